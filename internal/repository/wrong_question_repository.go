package repository

import (
	"errors"

	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// WrongQuestionRepository 错题本持久化
type WrongQuestionRepository struct {
	DB *gorm.DB
}

func NewWrongQuestionRepository(db *gorm.DB) *WrongQuestionRepository {
	return &WrongQuestionRepository{DB: db}
}

// FindByUserAndQuestion 不存在时返回 (nil, nil)
func (r *WrongQuestionRepository) FindByUserAndQuestion(tx *gorm.DB, userID, questionID uint) (*model.WrongQuestion, error) {
	var wq model.WrongQuestion
	err := tx.Where("user_id = ? AND question_id = ?", userID, questionID).First(&wq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wq, nil
}

func (r *WrongQuestionRepository) Create(tx *gorm.DB, wq *model.WrongQuestion) error {
	return tx.Create(wq).Error
}

func (r *WrongQuestionRepository) Save(tx *gorm.DB, wq *model.WrongQuestion) error {
	return tx.Save(wq).Error
}

// WrongFilter 错题本列表过滤
type WrongFilter struct {
	SubjectID uint
	ChapterID uint
	Status    model.WrongStatus
}

// ListActiveByUser 用户未移除的错题，按最近答错时间倒序
func (r *WrongQuestionRepository) ListActiveByUser(userID uint, f WrongFilter, page, size int) ([]model.WrongQuestion, int64, error) {
	tx := r.DB.Model(&model.WrongQuestion{}).
		Where("wrong_questions.user_id = ? AND wrong_questions.removed = ?", userID, false)
	if f.SubjectID > 0 || f.ChapterID > 0 {
		tx = tx.Joins("JOIN questions ON questions.id = wrong_questions.question_id")
		if f.SubjectID > 0 {
			tx = tx.Where("questions.subject_id = ?", f.SubjectID)
		}
		if f.ChapterID > 0 {
			tx = tx.Where("questions.chapter_id = ?", f.ChapterID)
		}
	}
	if f.Status != "" {
		tx = tx.Where("wrong_questions.status = ?", f.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []model.WrongQuestion
	err := tx.Order("wrong_questions.last_wrong_at DESC, wrong_questions.id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out).Error
	return out, total, err
}

// CountByStatus 各状态错题数量（仅未移除）
func (r *WrongQuestionRepository) CountByStatus(userID uint) (map[model.WrongStatus]int64, error) {
	type row struct {
		Status model.WrongStatus
		N      int64
	}
	var rows []row
	err := r.DB.Model(&model.WrongQuestion{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ? AND removed = ?", userID, false).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.WrongStatus]int64, len(rows))
	for _, x := range rows {
		out[x.Status] = x.N
	}
	return out, nil
}

// ListActiveQuestionIDs 未掌握错题的题目ID，供错题强化模式选题
func (r *WrongQuestionRepository) ListActiveQuestionIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.WrongQuestion{}).
		Where("user_id = ? AND removed = ? AND status <> ?", userID, false, model.WrongStatusMastered).
		Order("wrong_count DESC, last_wrong_at DESC").
		Pluck("question_id", &ids).Error
	return ids, err
}
