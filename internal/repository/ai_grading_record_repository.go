package repository

import (
	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// AiGradingRecordRepository AI判分记录与复核队列
type AiGradingRecordRepository struct {
	DB *gorm.DB
}

func NewAiGradingRecordRepository(db *gorm.DB) *AiGradingRecordRepository {
	return &AiGradingRecordRepository{DB: db}
}

func (r *AiGradingRecordRepository) Create(tx *gorm.DB, rec *model.AiGradingRecord) error {
	return tx.Create(rec).Error
}

func (r *AiGradingRecordRepository) FindByID(id uint) (*model.AiGradingRecord, error) {
	var rec model.AiGradingRecord
	if err := r.DB.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByIDTx 事务内按主键读取
func (r *AiGradingRecordRepository) FindByIDTx(tx *gorm.DB, id uint) (*model.AiGradingRecord, error) {
	var rec model.AiGradingRecord
	if err := tx.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// ClaimFinalize 以 final_score 尚未写入为条件写入定稿字段。
// 返回是否抢到定稿权，并发确认同一条记录时只有一个调用成功。
func (r *AiGradingRecordRepository) ClaimFinalize(tx *gorm.DB, rec *model.AiGradingRecord) (bool, error) {
	res := tx.Model(&model.AiGradingRecord{}).
		Where("id = ? AND final_score IS NULL", rec.ID).
		Updates(map[string]interface{}{
			"manual_score":   rec.ManualScore,
			"final_score":    rec.FinalScore,
			"reviewer_id":    rec.ReviewerID,
			"review_comment": rec.ReviewComment,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *AiGradingRecordRepository) FindByAnswerRecordID(answerRecordID uint) (*model.AiGradingRecord, error) {
	var rec model.AiGradingRecord
	if err := r.DB.Where("answer_record_id = ?", answerRecordID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListPending 待人工复核的记录，按创建时间先进先出
func (r *AiGradingRecordRepository) ListPending(page, size int) ([]model.AiGradingRecord, int64, error) {
	var (
		out   []model.AiGradingRecord
		total int64
	)
	tx := r.DB.Model(&model.AiGradingRecord{}).
		Where("manual_review = ? AND final_score IS NULL", true)
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := tx.Order("created_at ASC, id ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out).Error
	return out, total, err
}

// ReviewStats 复核队列概览
type ReviewStats struct {
	Pending       int64   `json:"pending"`
	Confirmed     int64   `json:"confirmed"`
	AvgConfidence float64 `json:"avgConfidence"`
}

func (r *AiGradingRecordRepository) Stats() (*ReviewStats, error) {
	var s ReviewStats
	if err := r.DB.Model(&model.AiGradingRecord{}).
		Where("manual_review = ? AND final_score IS NULL", true).
		Count(&s.Pending).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.AiGradingRecord{}).
		Where("final_score IS NOT NULL").
		Count(&s.Confirmed).Error; err != nil {
		return nil, err
	}
	var avg *float64
	if err := r.DB.Model(&model.AiGradingRecord{}).
		Select("AVG(ai_confidence)").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		s.AvgConfidence = *avg
	}
	return &s, nil
}
