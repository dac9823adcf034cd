package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tiku_backend/internal/config"
	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"
	"tiku_backend/pkg/logger"
	"tiku_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// repeatedWrongThreshold 累计答错次数达到该值后错题升级为反复错
const repeatedWrongThreshold = 3

// BoardInvalidator 定稿后通知榜单缓存失效
type BoardInvalidator interface {
	InvalidateBoards(ctx context.Context, subjectID uint)
}

// GradingService 判题流水线：按题型路由到自动/AI判题，
// 高置信结果立即定稿，低置信与失败结果进入人工复核队列。
// 定稿的所有副作用（用户计数、题目计数、错题本）在同一事务内完成。
type GradingService struct {
	Config       *config.Config
	DB           *gorm.DB
	QuestionRepo *repository.QuestionRepository
	AnswerRepo   *repository.AnswerRecordRepository
	AiRepo       *repository.AiGradingRecordRepository
	WrongRepo    *repository.WrongQuestionRepository
	UserRepo     *repository.UserRepository
	Auto         *AutoGrader
	AI           *AIGrader

	// Boards 可选，设置后每次定稿都会使相关榜单缓存失效
	Boards BoardInvalidator

	// Now 可注入时钟，便于测试
	Now func() time.Time
}

func NewGradingService(
	cfg *config.Config,
	db *gorm.DB,
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRecordRepository,
	aiRepo *repository.AiGradingRecordRepository,
	wrongRepo *repository.WrongQuestionRepository,
	userRepo *repository.UserRepository,
	aiClient AIClient,
) *GradingService {
	return &GradingService{
		Config:       cfg,
		DB:           db,
		QuestionRepo: questionRepo,
		AnswerRepo:   answerRepo,
		AiRepo:       aiRepo,
		WrongRepo:    wrongRepo,
		UserRepo:     userRepo,
		Auto:         NewAutoGrader(),
		AI:           NewAIGrader(aiClient, cfg.AI),
		Now:          time.Now,
	}
}

// Grade 对一次作答完成判题并持久化。
// 标准答案在此刻快照进答题记录，之后题目编辑不影响已有结果。
func (s *GradingService) Grade(ctx context.Context, userID uint, q *model.Question, sess *model.PracticeSession, req *model.SubmitAnswerRequest) (*model.GradingResult, error) {
	now := s.Now()
	rec := &model.AnswerRecord{
		UserID:        userID,
		QuestionID:    q.ID,
		UserAnswer:    string(req.UserAnswer),
		CorrectAnswer: q.Answer,
		TotalScore:    q.Score,
		TimeSpent:     req.TimeSpent,
		AnsweredAt:    now,
	}
	if sess != nil {
		rec.SessionID = sess.ID
		rec.PracticeMode = sess.Mode
	}

	// 空白提交不消耗AI配额，直接零分定稿
	if emptyAnswer(rec.UserAnswer) {
		return s.finalizeObjective(ctx, rec, q, false, now, "empty")
	}

	if q.Type.IsObjective() {
		correct := s.Auto.Grade(q.Type, q.Answer, rec.UserAnswer)
		return s.finalizeObjective(ctx, rec, q, correct, now, "auto")
	}

	return s.gradeSubjective(ctx, rec, q, now)
}

// finalizeObjective 客观题满分或零分，一次事务定稿
func (s *GradingService) finalizeObjective(ctx context.Context, rec *model.AnswerRecord, q *model.Question, correct bool, now time.Time, path string) (*model.GradingResult, error) {
	score := 0.0
	if correct {
		score = q.Score
	}
	rec.GradingType = model.GradingAuto
	rec.GradingStatus = model.GradingGraded
	rec.IsCorrect = &correct
	rec.Score = score
	rec.FinalScore = &score
	rec.GradedAt = &now

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.AnswerRepo.Create(tx, rec); err != nil {
			return err
		}
		return s.applySideEffects(tx, rec, correct, now)
	})
	if err != nil {
		return nil, err
	}

	monitoring.GradingCounter.WithLabelValues(path, outcomeLabel(correct)).Inc()
	s.invalidateBoards(ctx, q.SubjectID)
	return s.resultView(rec, q, nil), nil
}

// gradeSubjective 主观题AI判分。低置信或调用失败时写入复核队列，
// 记录状态 REVIEWING，不计入任何统计。
func (s *GradingService) gradeSubjective(ctx context.Context, rec *model.AnswerRecord, q *model.Question, now time.Time) (*model.GradingResult, error) {
	rec.GradingType = model.GradingAI

	start := time.Now()
	score, feedback, aiErr := s.AI.Grade(ctx, q, rec.UserAnswer)
	elapsed := time.Since(start)
	monitoring.AIGradingDuration.Observe(elapsed.Seconds())

	aiRec := &model.AiGradingRecord{
		QuestionID:    q.ID,
		UserID:        rec.UserID,
		StudentAnswer: rec.UserAnswer,
		GradingTimeMs: int(elapsed.Milliseconds()),
	}

	if aiErr != nil {
		logger.Log.Warn("AI判题失败，转入人工复核",
			zap.Uint("questionId", q.ID),
			zap.Error(aiErr))
		monitoring.GradingCounter.WithLabelValues("ai", "failed").Inc()
		return s.queueForReview(rec, q, aiRec)
	}

	aiRec.AiModel = feedback.Model
	aiRec.AiScore = score
	aiRec.AiConfidence = feedback.Confidence
	if data, err := json.Marshal(feedback); err == nil {
		aiRec.AiFeedback = string(data)
	}

	if feedback.Confidence < s.Config.AI.ConfidenceThreshold {
		monitoring.GradingCounter.WithLabelValues("ai", "low_confidence").Inc()
		return s.queueForReview(rec, q, aiRec)
	}

	// 高置信直接定稿：得分率过半视为答对
	correct := q.Score > 0 && score/q.Score >= 0.5
	rec.GradingStatus = model.GradingGraded
	rec.IsCorrect = &correct
	rec.Score = score
	rec.FinalScore = &score
	rec.GradedAt = &now
	aiRec.FinalScore = &score

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.AnswerRepo.Create(tx, rec); err != nil {
			return err
		}
		aiRec.AnswerRecordID = rec.ID
		if err := s.AiRepo.Create(tx, aiRec); err != nil {
			return err
		}
		return s.applySideEffects(tx, rec, correct, now)
	})
	if err != nil {
		return nil, err
	}

	monitoring.GradingCounter.WithLabelValues("ai", outcomeLabel(correct)).Inc()
	s.invalidateBoards(ctx, q.SubjectID)
	return s.resultView(rec, q, feedback), nil
}

// queueForReview 写入复核队列。暂定得分为0，定稿前不产生任何统计副作用。
func (s *GradingService) queueForReview(rec *model.AnswerRecord, q *model.Question, aiRec *model.AiGradingRecord) (*model.GradingResult, error) {
	rec.GradingStatus = model.GradingReviewing
	rec.Score = 0
	aiRec.ManualReview = true

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.AnswerRepo.Create(tx, rec); err != nil {
			return err
		}
		aiRec.AnswerRecordID = rec.ID
		return s.AiRepo.Create(tx, aiRec)
	})
	if err != nil {
		return nil, err
	}
	return s.resultView(rec, q, nil), nil
}

// FinalizeReview 人工复核定稿，由复核服务在事务内调用。
// 写入带"尚未定稿"条件，并发定稿同一条记录时只有第一个成功，
// 统计副作用因此最多生效一次。
func (s *GradingService) FinalizeReview(tx *gorm.DB, rec *model.AnswerRecord, finalScore float64, now time.Time) error {
	if rec.Finalized() {
		return util.ErrAlreadyFinalized
	}
	correct := rec.TotalScore > 0 && finalScore/rec.TotalScore >= 0.5
	rec.Score = finalScore
	rec.FinalScore = &finalScore
	rec.IsCorrect = &correct
	rec.GradingStatus = model.GradingGraded
	rec.GradedAt = &now

	claimed, err := s.AnswerRepo.FinalizeOnce(tx, rec)
	if err != nil {
		return err
	}
	if !claimed {
		return util.ErrAlreadyFinalized
	}
	monitoring.GradingCounter.WithLabelValues("manual", outcomeLabel(correct)).Inc()
	return s.applySideEffects(tx, rec, correct, now)
}

// applySideEffects 定稿副作用：用户计数、题目使用统计、错题本台账
func (s *GradingService) applySideEffects(tx *gorm.DB, rec *model.AnswerRecord, correct bool, now time.Time) error {
	if err := s.UserRepo.IncrementCounters(tx, rec.UserID, correct, now); err != nil {
		return err
	}
	if err := s.QuestionRepo.IncrementUsage(tx, rec.QuestionID, correct); err != nil {
		return err
	}
	return s.updateWrongLedger(tx, rec.UserID, rec.QuestionID, correct, now)
}

// updateWrongLedger 答错入本、重复答错升级；答对累计连对次数，
// 达到配置阈值自动掌握（阈值为0时只能由用户手动标记掌握）。
func (s *GradingService) updateWrongLedger(tx *gorm.DB, userID, questionID uint, correct bool, now time.Time) error {
	wq, err := s.WrongRepo.FindByUserAndQuestion(tx, userID, questionID)
	if err != nil {
		return err
	}

	if !correct {
		if wq == nil {
			return s.WrongRepo.Create(tx, &model.WrongQuestion{
				UserID:      userID,
				QuestionID:  questionID,
				WrongCount:  1,
				Status:      model.WrongStatusWrong,
				LastWrongAt: &now,
			})
		}
		wq.WrongCount++
		wq.ConsecutiveRight = 0
		wq.Removed = false
		wq.LastWrongAt = &now
		if wq.WrongCount >= repeatedWrongThreshold {
			wq.Status = model.WrongStatusRepeatedWrong
		} else if wq.Status == model.WrongStatusMastered {
			// 已掌握的题又错了，回到错题状态
			wq.Status = model.WrongStatusWrong
		}
		return s.WrongRepo.Save(tx, wq)
	}

	if wq == nil || !wq.Active() {
		return nil
	}
	wq.ConsecutiveRight++
	threshold := s.Config.Grading.MasteryConsecutiveCorrect
	if threshold > 0 && wq.ConsecutiveRight >= threshold {
		wq.Status = model.WrongStatusMastered
	}
	return s.WrongRepo.Save(tx, wq)
}

func (s *GradingService) invalidateBoards(ctx context.Context, subjectID uint) {
	if s.Boards != nil {
		s.Boards.InvalidateBoards(ctx, subjectID)
	}
}

// GetResult 查询单条判题结果，只允许本人查看
func (s *GradingService) GetResult(userID, recordID uint) (*model.GradingResult, error) {
	rec, err := s.AnswerRepo.FindByID(recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrRecordNotFound
		}
		return nil, err
	}
	if rec.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	q, err := s.QuestionRepo.FindByID(rec.QuestionID)
	if err != nil {
		return nil, err
	}

	var feedback *model.AIFeedback
	if rec.GradingStatus == model.GradingGraded && rec.GradingType == model.GradingAI {
		if aiRec, aiErr := s.AiRepo.FindByAnswerRecordID(rec.ID); aiErr == nil && aiRec.AiFeedback != "" {
			var fb model.AIFeedback
			if json.Unmarshal([]byte(aiRec.AiFeedback), &fb) == nil {
				feedback = &fb
			}
		}
	}
	return s.resultView(rec, q, feedback), nil
}

// ListRecords 用户答题记录分页，复核中的记录不带标准答案
func (s *GradingService) ListRecords(userID uint, page, size int) ([]model.AnswerRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	recs, total, err := s.AnswerRepo.ListByUser(userID, page, size)
	if err != nil {
		return nil, 0, err
	}
	for i := range recs {
		if recs[i].GradingStatus != model.GradingGraded {
			recs[i].CorrectAnswer = ""
		}
	}
	return recs, total, nil
}

func (s *GradingService) resultView(rec *model.AnswerRecord, q *model.Question, feedback *model.AIFeedback) *model.GradingResult {
	result := &model.GradingResult{
		AnswerRecordID:   rec.ID,
		QuestionID:       rec.QuestionID,
		SessionID:        rec.SessionID,
		Score:            rec.Score,
		TotalScore:       rec.TotalScore,
		FinalScore:       rec.FinalScore,
		GradingType:      rec.GradingType,
		GradingStatus:    rec.GradingStatus,
		NeedManualReview: rec.GradingStatus == model.GradingReviewing,
		AiFeedback:       feedback,
	}
	if rec.IsCorrect != nil {
		result.IsCorrect = *rec.IsCorrect
	}
	// 复核中的记录不提前泄露标准答案
	if rec.GradingStatus == model.GradingGraded {
		result.CorrectAnswer = rec.CorrectAnswer
		result.AnswerAnalysis = q.AnswerAnalysis
	}
	return result
}

func outcomeLabel(correct bool) string {
	if correct {
		return "correct"
	}
	return "wrong"
}
