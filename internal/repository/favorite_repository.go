package repository

import (
	"errors"

	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// FavoriteRepository 收藏夹持久化
type FavoriteRepository struct {
	DB *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{DB: db}
}

// FindByUserAndQuestion 不存在时返回 (nil, nil)
func (r *FavoriteRepository) FindByUserAndQuestion(userID, questionID uint) (*model.Favorite, error) {
	var f model.Favorite
	err := r.DB.Where("user_id = ? AND question_id = ?", userID, questionID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FavoriteRepository) Create(f *model.Favorite) error {
	return r.DB.Create(f).Error
}

func (r *FavoriteRepository) Save(f *model.Favorite) error {
	return r.DB.Save(f).Error
}

func (r *FavoriteRepository) Delete(userID, questionID uint) error {
	return r.DB.Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&model.Favorite{}).Error
}

// ListByUser 收藏列表，支持按分类过滤
func (r *FavoriteRepository) ListByUser(userID uint, category string, page, size int) ([]model.Favorite, int64, error) {
	tx := r.DB.Model(&model.Favorite{}).Where("user_id = ?", userID)
	if category != "" {
		tx = tx.Where("category = ?", category)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []model.Favorite
	err := tx.Order("created_at DESC, id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out).Error
	return out, total, err
}

func (r *FavoriteRepository) CountByUser(userID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Favorite{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *FavoriteRepository) ListQuestionIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("question_id", &ids).Error
	return ids, err
}
