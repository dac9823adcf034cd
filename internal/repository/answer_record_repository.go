package repository

import (
	"time"

	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// AnswerRecordRepository 答题记录持久化与统计查询
type AnswerRecordRepository struct {
	DB *gorm.DB
}

func NewAnswerRecordRepository(db *gorm.DB) *AnswerRecordRepository {
	return &AnswerRecordRepository{DB: db}
}

func (r *AnswerRecordRepository) Create(tx *gorm.DB, rec *model.AnswerRecord) error {
	return tx.Create(rec).Error
}

func (r *AnswerRecordRepository) FindByID(id uint) (*model.AnswerRecord, error) {
	var rec model.AnswerRecord
	if err := r.DB.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByIDTx 事务内按主键读取
func (r *AnswerRecordRepository) FindByIDTx(tx *gorm.DB, id uint) (*model.AnswerRecord, error) {
	var rec model.AnswerRecord
	if err := tx.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// FinalizeOnce 仅当记录尚未定稿时写入定稿字段。
// 返回是否写入成功，已定稿的记录不会被改写。
func (r *AnswerRecordRepository) FinalizeOnce(tx *gorm.DB, rec *model.AnswerRecord) (bool, error) {
	res := tx.Model(&model.AnswerRecord{}).
		Where("id = ? AND grading_status <> ?", rec.ID, model.GradingGraded).
		Updates(map[string]interface{}{
			"score":          rec.Score,
			"final_score":    rec.FinalScore,
			"is_correct":     rec.IsCorrect,
			"grading_status": rec.GradingStatus,
			"graded_at":      rec.GradedAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *AnswerRecordRepository) ListBySession(sessionID string) ([]model.AnswerRecord, error) {
	var out []model.AnswerRecord
	err := r.DB.Where("session_id = ?", sessionID).
		Order("id ASC").Find(&out).Error
	return out, err
}

// ListByUser 用户答题记录，按时间倒序分页
func (r *AnswerRecordRepository) ListByUser(userID uint, page, size int) ([]model.AnswerRecord, int64, error) {
	query := r.DB.Model(&model.AnswerRecord{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []model.AnswerRecord
	err := query.Order("id DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&out).Error
	return out, total, err
}

// finalizedScope 已定稿记录: 自动/人工确认后 is_correct 才有值
func (r *AnswerRecordRepository) finalizedScope(tx *gorm.DB) *gorm.DB {
	return tx.Model(&model.AnswerRecord{}).
		Where("grading_status = ?", model.GradingGraded)
}

// CountFinalizedByUser 返回用户已定稿的总答题数与正确数
func (r *AnswerRecordRepository) CountFinalizedByUser(userID uint) (total, correct int64, err error) {
	if err = r.finalizedScope(r.DB).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return
	}
	err = r.finalizedScope(r.DB).
		Where("user_id = ? AND is_correct = ?", userID, true).
		Count(&correct).Error
	return
}

// CountFinalizedBySubject 按学科统计，联表 questions 取学科归属
func (r *AnswerRecordRepository) CountFinalizedBySubject(userID, subjectID uint) (total, correct int64, err error) {
	base := func() *gorm.DB {
		return r.finalizedScope(r.DB).
			Joins("JOIN questions ON questions.id = answer_records.question_id").
			Where("answer_records.user_id = ? AND questions.subject_id = ?", userID, subjectID)
	}
	if err = base().Count(&total).Error; err != nil {
		return
	}
	err = base().Where("answer_records.is_correct = ?", true).Count(&correct).Error
	return
}

// CountFinalizedByChapter 按章节统计
func (r *AnswerRecordRepository) CountFinalizedByChapter(userID, chapterID uint) (total, correct int64, err error) {
	base := func() *gorm.DB {
		return r.finalizedScope(r.DB).
			Joins("JOIN questions ON questions.id = answer_records.question_id").
			Where("answer_records.user_id = ? AND questions.chapter_id = ?", userID, chapterID)
	}
	if err = base().Count(&total).Error; err != nil {
		return
	}
	err = base().Where("answer_records.is_correct = ?", true).Count(&correct).Error
	return
}

// DayCount 单日活动量，日期按 [from, to) 半开区间
type DayCount struct {
	Day     string
	Total   int64
	Correct int64
	Seconds int64
}

// CountFinalizedByDay 时间区间内按天聚合，用于趋势与日历
func (r *AnswerRecordRepository) CountFinalizedByDay(userID uint, from, to time.Time) ([]DayCount, error) {
	var rows []DayCount
	err := r.finalizedScope(r.DB).
		Select("DATE(created_at) AS day, COUNT(*) AS total, SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct, COALESCE(SUM(time_spent), 0) AS seconds").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

// SumTimeSpent 用户已定稿记录的累计作答时长（秒）
func (r *AnswerRecordRepository) SumTimeSpent(userID uint) (int64, error) {
	var seconds *int64
	err := r.finalizedScope(r.DB).
		Select("SUM(time_spent)").
		Where("user_id = ?", userID).
		Scan(&seconds).Error
	if err != nil || seconds == nil {
		return 0, err
	}
	return *seconds, nil
}

// UserAggregate 按用户聚合的定稿答题量
type UserAggregate struct {
	UserID  uint
	Total   int64
	Correct int64
}

// AggregateBySubject 单条分组查询得到学科榜单的底表
func (r *AnswerRecordRepository) AggregateBySubject(subjectID uint) ([]UserAggregate, error) {
	var rows []UserAggregate
	err := r.finalizedScope(r.DB).
		Select("answer_records.user_id AS user_id, COUNT(*) AS total, SUM(CASE WHEN answer_records.is_correct THEN 1 ELSE 0 END) AS correct").
		Joins("JOIN questions ON questions.id = answer_records.question_id").
		Where("questions.subject_id = ?", subjectID).
		Group("answer_records.user_id").
		Scan(&rows).Error
	return rows, err
}

// ListStudyDays 用户有定稿记录的日期集合（去重，倒序），用于连续学习天数
func (r *AnswerRecordRepository) ListStudyDays(userID uint, limit int) ([]string, error) {
	var days []string
	err := r.finalizedScope(r.DB).
		Distinct("DATE(created_at)").
		Where("user_id = ?", userID).
		Order("DATE(created_at) DESC").
		Limit(limit).
		Pluck("DATE(created_at)", &days).Error
	return days, err
}

// ListRecentWrongQuestionIDs 近期答错题目ID，供智能推荐加权
func (r *AnswerRecordRepository) ListRecentWrongQuestionIDs(userID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.finalizedScope(r.DB).
		Where("user_id = ? AND is_correct = ?", userID, false).
		Order("id DESC").
		Limit(limit).
		Pluck("question_id", &ids).Error
	return ids, err
}

// ListAnsweredQuestionIDs 用户已作答过的题目ID集合
func (r *AnswerRecordRepository) ListAnsweredQuestionIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.AnswerRecord{}).
		Distinct("question_id").
		Where("user_id = ?", userID).
		Pluck("question_id", &ids).Error
	return ids, err
}
