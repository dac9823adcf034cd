package service

import (
	"errors"

	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"

	"gorm.io/gorm"
)

// FavoriteView 收藏条目与题目内容的拼合视图
type FavoriteView struct {
	model.Favorite
	Question *model.Question `json:"question,omitempty"`
}

// FavoriteService 题目收藏夹
type FavoriteService struct {
	FavoriteRepo *repository.FavoriteRepository
	QuestionRepo *repository.QuestionRepository
}

func NewFavoriteService(favoriteRepo *repository.FavoriteRepository, questionRepo *repository.QuestionRepository) *FavoriteService {
	return &FavoriteService{FavoriteRepo: favoriteRepo, QuestionRepo: questionRepo}
}

// Add 收藏题目。重复收藏只更新分类和备注，不报错。
func (s *FavoriteService) Add(userID uint, req *model.FavoriteRequest) (*model.Favorite, error) {
	if _, err := s.QuestionRepo.FindByID(req.QuestionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	existing, err := s.FavoriteRepo.FindByUserAndQuestion(userID, req.QuestionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Category = req.Category
		existing.Remark = req.Remark
		if err := s.FavoriteRepo.Save(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	fav := &model.Favorite{
		UserID:     userID,
		QuestionID: req.QuestionID,
		Category:   req.Category,
		Remark:     req.Remark,
	}
	if err := s.FavoriteRepo.Create(fav); err != nil {
		return nil, err
	}
	return fav, nil
}

// Remove 取消收藏，未收藏时也返回成功
func (s *FavoriteService) Remove(userID, questionID uint) error {
	return s.FavoriteRepo.Delete(userID, questionID)
}

// Check 题目是否已收藏
func (s *FavoriteService) Check(userID, questionID uint) (bool, error) {
	fav, err := s.FavoriteRepo.FindByUserAndQuestion(userID, questionID)
	if err != nil {
		return false, err
	}
	return fav != nil, nil
}

// List 收藏列表，附带题目内容
func (s *FavoriteService) List(userID uint, category string, page, size int) ([]FavoriteView, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	favs, total, err := s.FavoriteRepo.ListByUser(userID, category, page, size)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(favs))
	for i, f := range favs {
		ids[i] = f.QuestionID
	}
	qs, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]*model.Question, len(qs))
	for i := range qs {
		byID[qs[i].ID] = &qs[i]
	}

	views := make([]FavoriteView, len(favs))
	for i, f := range favs {
		views[i] = FavoriteView{Favorite: f, Question: byID[f.QuestionID]}
	}
	return views, total, nil
}
