package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"tiku_backend/internal/config"
	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"
	"tiku_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	rankingCacheTTL  = time.Minute
	rankingBoardSize = 50
)

// RankingService 排行榜。榜单从持久化计数重算并在Redis短暂缓存，
// 并列名次按最早达成时间、再按用户ID排序，同一数据下结果可复现。
// Redis不可用时直接回源计算，不影响正确性。
type RankingService struct {
	Config     *config.Config
	Redis      *redis.Client
	UserRepo   *repository.UserRepository
	AnswerRepo *repository.AnswerRecordRepository

	Now func() time.Time
}

func NewRankingService(
	cfg *config.Config,
	rdb *redis.Client,
	userRepo *repository.UserRepository,
	answerRepo *repository.AnswerRecordRepository,
) *RankingService {
	return &RankingService{
		Config:     cfg,
		Redis:      rdb,
		UserRepo:   userRepo,
		AnswerRepo: answerRepo,
		Now:        time.Now,
	}
}

// GetBoard 查询榜单。callerID 用于标记自己并在未上榜时补充名次。
func (s *RankingService) GetBoard(ctx context.Context, metric model.RankingMetric, subjectID, callerID uint) (*model.RankingBoard, error) {
	if metric == model.RankBySubject && subjectID == 0 {
		return nil, util.ErrInvalidParameters
	}

	key := fmt.Sprintf("ranking:%s:%d", metric, subjectID)
	items, hit := s.fromCache(ctx, key)
	if !hit {
		var err error
		items, err = s.compute(metric, subjectID)
		if err != nil {
			return nil, err
		}
		s.toCache(ctx, key, items)
	}

	return s.personalize(items, callerID, metric), nil
}

// InvalidateBoards 判题定稿后清除受影响的榜单缓存，下次查询重新计算
func (s *RankingService) InvalidateBoards(ctx context.Context, subjectID uint) {
	if s.Redis == nil {
		return
	}
	keys := []string{
		fmt.Sprintf("ranking:%s:%d", model.RankByAnswerCount, 0),
		fmt.Sprintf("ranking:%s:%d", model.RankByAccuracy, 0),
		fmt.Sprintf("ranking:%s:%d", model.RankByPoints, 0),
	}
	if subjectID > 0 {
		keys = append(keys, fmt.Sprintf("ranking:%s:%d", model.RankBySubject, subjectID))
	}
	if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("清除榜单缓存失败", zap.Error(err))
	}
}

// compute 全量重算指定榜单并编好名次
func (s *RankingService) compute(metric model.RankingMetric, subjectID uint) ([]model.RankingItem, error) {
	var items []model.RankingItem
	var err error
	if metric == model.RankBySubject {
		items, err = s.subjectItems(subjectID)
	} else {
		items, err = s.globalItems(metric)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if metric == model.RankByAccuracy {
			if a.Accuracy != b.Accuracy {
				return a.Accuracy > b.Accuracy
			}
		} else if a.Value != b.Value {
			return a.Value > b.Value
		}
		if !a.AchievedAt.Equal(b.AchievedAt) {
			return a.AchievedAt.Before(b.AchievedAt)
		}
		return a.UserID < b.UserID
	})
	for i := range items {
		items[i].Rank = i + 1
	}
	return items, nil
}

func (s *RankingService) globalItems(metric model.RankingMetric) ([]model.RankingItem, error) {
	users, err := s.UserRepo.ListActive()
	if err != nil {
		return nil, err
	}

	minAnswers := int64(s.Config.Grading.AccuracyRankingMinAnswers)
	points := int64(s.Config.Grading.PointsPerCorrect)

	items := make([]model.RankingItem, 0, len(users))
	for _, u := range users {
		item := model.RankingItem{
			UserID:   u.ID,
			Username: u.Username,
			RealName: maskName(u.RealName),
		}
		if u.LastStudyAt != nil {
			item.AchievedAt = *u.LastStudyAt
		}
		if u.TotalAnswerCount > 0 {
			item.Accuracy = float64(u.TotalCorrectCount) / float64(u.TotalAnswerCount) * 100
		}
		item.Points = u.TotalCorrectCount * points

		switch metric {
		case model.RankByAnswerCount:
			item.Value = u.TotalAnswerCount
		case model.RankByAccuracy:
			// 答题量不足的用户不进正确率榜，避免一题满分霸榜
			if u.TotalAnswerCount < minAnswers {
				continue
			}
			item.Value = u.TotalAnswerCount
		case model.RankByPoints:
			item.Value = item.Points
		default:
			return nil, util.ErrInvalidParameters
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *RankingService) subjectItems(subjectID uint) ([]model.RankingItem, error) {
	aggs, err := s.AnswerRepo.AggregateBySubject(subjectID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(aggs))
	for i, a := range aggs {
		ids[i] = a.UserID
	}
	users, err := s.UserRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	items := make([]model.RankingItem, 0, len(aggs))
	for _, a := range aggs {
		u, ok := byID[a.UserID]
		if !ok {
			continue
		}
		item := model.RankingItem{
			UserID:   u.ID,
			Username: u.Username,
			RealName: maskName(u.RealName),
			Value:    a.Total,
		}
		if u.LastStudyAt != nil {
			item.AchievedAt = *u.LastStudyAt
		}
		if a.Total > 0 {
			item.Accuracy = float64(a.Correct) / float64(a.Total) * 100
		}
		items = append(items, item)
	}
	return items, nil
}

// personalize 截取榜单前N名并标记调用者，未上榜时单独给出名次
func (s *RankingService) personalize(items []model.RankingItem, callerID uint, metric model.RankingMetric) *model.RankingBoard {
	board := &model.RankingBoard{
		Metric:  metric,
		Total:   len(items),
		CacheAt: s.Now(),
	}

	var mine *model.RankingItem
	for i := range items {
		if items[i].UserID == callerID {
			copied := items[i]
			copied.IsCurrentUser = true
			mine = &copied
			break
		}
	}

	top := items
	if len(top) > rankingBoardSize {
		top = top[:rankingBoardSize]
	}
	board.Items = make([]model.RankingItem, len(top))
	copy(board.Items, top)
	for i := range board.Items {
		board.Items[i].IsCurrentUser = board.Items[i].UserID == callerID
	}
	board.MyRank = mine
	return board
}

func (s *RankingService) fromCache(ctx context.Context, key string) ([]model.RankingItem, bool) {
	if s.Redis == nil {
		return nil, false
	}
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var items []model.RankingItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (s *RankingService) toCache(ctx context.Context, key string, items []model.RankingItem) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, rankingCacheTTL).Err(); err != nil {
		logger.Log.Warn("写入榜单缓存失败", zap.String("key", key), zap.Error(err))
	}
}

// maskName 真名脱敏：保留姓氏，其余打码
func maskName(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[0]) + "**"
}
