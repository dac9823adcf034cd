package service

import (
	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"

	"gorm.io/gorm"
)

// WrongQuestionView 错题条目与题目内容的拼合视图
type WrongQuestionView struct {
	model.WrongQuestion
	Question *model.Question `json:"question,omitempty"`
}

// WrongQuestionStats 错题本概览
type WrongQuestionStats struct {
	Total         int64 `json:"total"`
	Wrong         int64 `json:"wrong"`
	RepeatedWrong int64 `json:"repeatedWrong"`
	Mastered      int64 `json:"mastered"`
}

// WrongQuestionService 错题本。台账由判题定稿自动维护，
// 这里只提供查询与用户显式的掌握/移除操作。
type WrongQuestionService struct {
	DB           *gorm.DB
	WrongRepo    *repository.WrongQuestionRepository
	QuestionRepo *repository.QuestionRepository
}

func NewWrongQuestionService(db *gorm.DB, wrongRepo *repository.WrongQuestionRepository, questionRepo *repository.QuestionRepository) *WrongQuestionService {
	return &WrongQuestionService{DB: db, WrongRepo: wrongRepo, QuestionRepo: questionRepo}
}

// List 错题列表，附带题目内容
func (s *WrongQuestionService) List(userID uint, f repository.WrongFilter, page, size int) ([]WrongQuestionView, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	entries, total, err := s.WrongRepo.ListActiveByUser(userID, f, page, size)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.QuestionID
	}
	qs, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]*model.Question, len(qs))
	for i := range qs {
		byID[qs[i].ID] = &qs[i]
	}

	views := make([]WrongQuestionView, len(entries))
	for i, e := range entries {
		views[i] = WrongQuestionView{WrongQuestion: e, Question: byID[e.QuestionID]}
	}
	return views, total, nil
}

// MarkMastered 用户显式标记已掌握
func (s *WrongQuestionService) MarkMastered(userID, questionID uint) error {
	return s.mutate(userID, questionID, func(wq *model.WrongQuestion) {
		wq.Status = model.WrongStatusMastered
	})
}

// Remove 从错题本移除（软删除，历史统计不受影响）
func (s *WrongQuestionService) Remove(userID, questionID uint) error {
	return s.mutate(userID, questionID, func(wq *model.WrongQuestion) {
		wq.Removed = true
	})
}

// Restore 恢复已移除的条目
func (s *WrongQuestionService) Restore(userID, questionID uint) error {
	return s.mutate(userID, questionID, func(wq *model.WrongQuestion) {
		wq.Removed = false
	})
}

func (s *WrongQuestionService) mutate(userID, questionID uint, apply func(*model.WrongQuestion)) error {
	wq, err := s.WrongRepo.FindByUserAndQuestion(s.DB, userID, questionID)
	if err != nil {
		return err
	}
	if wq == nil {
		return util.ErrQuestionNotFound
	}
	apply(wq)
	return s.WrongRepo.Save(s.DB, wq)
}

// Stats 各状态错题数量
func (s *WrongQuestionService) Stats(userID uint) (*WrongQuestionStats, error) {
	counts, err := s.WrongRepo.CountByStatus(userID)
	if err != nil {
		return nil, err
	}
	stats := &WrongQuestionStats{
		Wrong:         counts[model.WrongStatusWrong],
		RepeatedWrong: counts[model.WrongStatusRepeatedWrong],
		Mastered:      counts[model.WrongStatusMastered],
	}
	stats.Total = stats.Wrong + stats.RepeatedWrong + stats.Mastered
	return stats, nil
}
