package repository

import (
	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// ChapterRepository 章节只读访问
type ChapterRepository struct {
	DB *gorm.DB
}

func NewChapterRepository(db *gorm.DB) *ChapterRepository {
	return &ChapterRepository{DB: db}
}

func (r *ChapterRepository) FindByID(id uint) (*model.Chapter, error) {
	var c model.Chapter
	if err := r.DB.Where("id = ? AND status = ?", id, 1).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChapterRepository) ListBySubject(subjectID uint) ([]model.Chapter, error) {
	var out []model.Chapter
	err := r.DB.Where("subject_id = ? AND status = ?", subjectID, 1).
		Order("sort_order ASC, id ASC").Find(&out).Error
	return out, err
}
