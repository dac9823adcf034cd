package repository

import (
	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// SubjectRepository 学科只读访问
type SubjectRepository struct {
	DB *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{DB: db}
}

func (r *SubjectRepository) FindByID(id uint) (*model.Subject, error) {
	var s model.Subject
	if err := r.DB.Where("id = ? AND status = ?", id, 1).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubjectRepository) ListActive() ([]model.Subject, error) {
	var out []model.Subject
	err := r.DB.Where("status = ?", 1).Order("sort_order ASC, id ASC").Find(&out).Error
	return out, err
}
