package service

import (
	"context"
	"errors"
	"time"

	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"
	"tiku_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewService 人工复核队列。确认后的得分一次写入、不可再改，
// 定稿的统计副作用与判题服务共用同一套事务逻辑。
type ReviewService struct {
	DB         *gorm.DB
	AiRepo     *repository.AiGradingRecordRepository
	AnswerRepo *repository.AnswerRecordRepository
	Grading    *GradingService

	Now func() time.Time
}

func NewReviewService(
	db *gorm.DB,
	aiRepo *repository.AiGradingRecordRepository,
	answerRepo *repository.AnswerRecordRepository,
	grading *GradingService,
) *ReviewService {
	return &ReviewService{
		DB:         db,
		AiRepo:     aiRepo,
		AnswerRepo: answerRepo,
		Grading:    grading,
		Now:        time.Now,
	}
}

// ListPending 待复核队列，先进先出
func (s *ReviewService) ListPending(page, size int) ([]model.AiGradingRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.AiRepo.ListPending(page, size)
}

// Confirm 复核定稿。重复确认是幂等空操作，得分保持首次确认的值。
// 读取、抢占与定稿在同一事务内完成，并发确认同一条记录只有一个生效。
func (s *ReviewService) Confirm(reviewerID, recordID uint, req *model.ConfirmReviewRequest) (*model.AiGradingRecord, error) {
	now := s.Now()
	finalized := false
	var questionID uint

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		aiRec, err := s.AiRepo.FindByIDTx(tx, recordID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrReviewNotFound
			}
			return err
		}
		if aiRec.Confirmed() {
			return nil
		}

		answerRec, err := s.AnswerRepo.FindByIDTx(tx, aiRec.AnswerRecordID)
		if err != nil {
			return err
		}
		if req.FinalScore < 0 || req.FinalScore > answerRec.TotalScore {
			return util.ErrInvalidParameters
		}
		questionID = answerRec.QuestionID

		score := req.FinalScore
		aiRec.ManualScore = &score
		aiRec.FinalScore = &score
		aiRec.ReviewerID = reviewerID
		aiRec.ReviewComment = req.Comment

		claimed, err := s.AiRepo.ClaimFinalize(tx, aiRec)
		if err != nil {
			return err
		}
		if !claimed {
			// 另一个确认赢得抢占，按幂等处理
			return nil
		}
		if err := s.Grading.FinalizeReview(tx, answerRec, score, now); err != nil {
			return err
		}
		finalized = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交后回读，首次定稿、重复确认与输掉抢占都返回同一份定稿结果
	aiRec, err := s.AiRepo.FindByID(recordID)
	if err != nil {
		return nil, err
	}

	if finalized {
		subjectID := uint(0)
		if q, qErr := s.Grading.QuestionRepo.FindByID(questionID); qErr == nil {
			subjectID = q.SubjectID
		}
		s.Grading.invalidateBoards(context.Background(), subjectID)

		logger.Log.Info("人工复核定稿",
			zap.Uint("recordId", aiRec.ID),
			zap.Uint("reviewerId", reviewerID),
			zap.Float64("finalScore", req.FinalScore))
	}
	return aiRec, nil
}

// BatchApprove 批量采纳AI给分作为最终得分，已定稿的条目跳过
func (s *ReviewService) BatchApprove(reviewerID uint, recordIDs []uint) (int, error) {
	approved := 0
	for _, id := range recordIDs {
		aiRec, err := s.AiRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return approved, err
		}
		if aiRec.Confirmed() {
			continue
		}
		_, err = s.Confirm(reviewerID, id, &model.ConfirmReviewRequest{
			FinalScore: aiRec.AiScore,
			Comment:    "批量采纳AI评分",
		})
		if err != nil && !errors.Is(err, util.ErrAlreadyFinalized) {
			return approved, err
		}
		if err == nil {
			approved++
		}
	}
	return approved, nil
}

// Stats 复核队列概览
func (s *ReviewService) Stats() (*repository.ReviewStats, error) {
	return s.AiRepo.Stats()
}
