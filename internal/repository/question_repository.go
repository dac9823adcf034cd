package repository

import (
	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// QuestionRepository 题库只读访问 + 使用统计回写
type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// FindByIDs 按ID集合查询，不保证顺序，调用方按自己的序列重排
func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var qs []model.Question
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.Where("id IN ? AND status = ?", ids, 1).Find(&qs).Error
	return qs, err
}

// QuestionFilter 候选题目过滤条件
type QuestionFilter struct {
	SubjectID  uint
	ChapterID  uint
	Type       model.QuestionType
	Difficulty model.Difficulty
}

// ListCandidates 按过滤条件返回启用题目，按章节序号稳定排序
func (r *QuestionRepository) ListCandidates(f QuestionFilter) ([]model.Question, error) {
	tx := r.DB.Where("status = ?", 1)
	if f.SubjectID > 0 {
		tx = tx.Where("subject_id = ?", f.SubjectID)
	}
	if f.ChapterID > 0 {
		tx = tx.Where("chapter_id = ?", f.ChapterID)
	}
	if f.Type != "" {
		tx = tx.Where("type = ?", f.Type)
	}
	if f.Difficulty != "" {
		tx = tx.Where("difficulty = ?", f.Difficulty)
	}

	var qs []model.Question
	err := tx.Order("chapter_id ASC, serial_number ASC, id ASC").Find(&qs).Error
	return qs, err
}

// IncrementUsage 回写题目使用统计，只在结果定稿时调用
func (r *QuestionRepository) IncrementUsage(tx *gorm.DB, questionID uint, correct bool) error {
	updates := map[string]interface{}{
		"use_count": gorm.Expr("use_count + 1"),
	}
	if correct {
		updates["correct_count"] = gorm.Expr("correct_count + 1")
	} else {
		updates["wrong_count"] = gorm.Expr("wrong_count + 1")
	}
	return tx.Model(&model.Question{}).Where("id = ?", questionID).Updates(updates).Error
}
