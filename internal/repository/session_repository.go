package repository

import (
	"time"

	"tiku_backend/internal/model"

	"gorm.io/gorm"
)

// SessionRepository 练习会话持久化
type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(s *model.PracticeSession) error {
	return r.DB.Create(s).Error
}

func (r *SessionRepository) FindByID(id string) (*model.PracticeSession, error) {
	var s model.PracticeSession
	if err := r.DB.Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Save(s *model.PracticeSession) error {
	return r.DB.Save(s).Error
}

// ListExpirable 扫描可能已超时但还未标记的会话，供后台清扫用
func (r *SessionRepository) ListExpirable(now time.Time, limit int) ([]model.PracticeSession, error) {
	var out []model.PracticeSession
	err := r.DB.
		Where("status IN ?", []model.SessionStatus{model.SessionCreated, model.SessionInProgress}).
		Order("started_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListByUser 分页查询用户会话，按创建时间倒序
func (r *SessionRepository) ListByUser(userID uint, page, size int) ([]model.PracticeSession, int64, error) {
	var (
		out   []model.PracticeSession
		total int64
	)
	tx := r.DB.Model(&model.PracticeSession{}).Where("user_id = ?", userID)
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := tx.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out).Error
	return out, total, err
}
