package repository

import (
	"time"

	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// UserRepository 用户档案与累计计数
type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var u model.User
	if err := r.DB.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByIDs(ids []uint) ([]model.User, error) {
	var us []model.User
	if len(ids) == 0 {
		return us, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&us).Error
	return us, err
}

// IncrementCounters 结果定稿时累加用户计数并刷新最近学习时间
func (r *UserRepository) IncrementCounters(tx *gorm.DB, userID uint, correct bool, now time.Time) error {
	updates := map[string]interface{}{
		"total_answer_count": gorm.Expr("total_answer_count + 1"),
		"last_study_at":      now,
	}
	if correct {
		updates["total_correct_count"] = gorm.Expr("total_correct_count + 1")
	}
	return tx.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// ListActive 有答题记录的用户，供榜单计算
func (r *UserRepository) ListActive() ([]model.User, error) {
	var us []model.User
	err := r.DB.Where("total_answer_count > 0").Find(&us).Error
	return us, err
}
