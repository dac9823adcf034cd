package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"
	"tiku_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionSummary 会话视图：进度、得分与闯关结果
type SessionSummary struct {
	Session    *model.PracticeSession `json:"session"`
	Answered   int                    `json:"answered"`
	Correct    int                    `json:"correct"`
	Pending    int                    `json:"pending"` // 复核中，未计入正确数
	Score      float64                `json:"score"`
	TotalScore float64                `json:"totalScore"`
	Accuracy   float64                `json:"accuracy"`
	Passed     *bool                  `json:"passed,omitempty"` // 仅闯关模式
}

// PracticeService 刷题会话状态机。
// 每个会话一把互斥锁：进度推进串行化，但判题调用（可能走外部AI）
// 在锁外执行，慢判题不会阻塞同一用户的其他会话。
type PracticeService struct {
	SessionRepo  *repository.SessionRepository
	QuestionRepo *repository.QuestionRepository
	AnswerRepo   *repository.AnswerRecordRepository
	Selector     *QuestionSelector
	Grading      *GradingService

	locks sync.Map // session id -> *sync.Mutex

	// Now 可注入时钟，便于测试超时路径
	Now func() time.Time
}

func NewPracticeService(
	sessionRepo *repository.SessionRepository,
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRecordRepository,
	selector *QuestionSelector,
	grading *GradingService,
) *PracticeService {
	return &PracticeService{
		SessionRepo:  sessionRepo,
		QuestionRepo: questionRepo,
		AnswerRepo:   answerRepo,
		Selector:     selector,
		Grading:      grading,
		Now:          time.Now,
	}
}

// Start 创建会话并返回按答题顺序排列的题目（答案字段不序列化给前端）
func (s *PracticeService) Start(ctx context.Context, userID uint, req *model.PracticeRequest) (*model.PracticeSession, []model.Question, error) {
	if !req.Mode.Valid() {
		return nil, nil, util.ErrInvalidParameters
	}
	switch req.Mode {
	case model.ModeExam:
		if req.ExamDuration <= 0 {
			return nil, nil, util.ErrInvalidParameters
		}
	case model.ModeTimed:
		if req.TimePerQuestion <= 0 {
			return nil, nil, util.ErrInvalidParameters
		}
	}

	sel, err := s.Selector.Select(userID, req)
	if err != nil {
		return nil, nil, err
	}

	now := s.Now()
	sess := &model.PracticeSession{
		UserID:              userID,
		Mode:                req.Mode,
		SubjectID:           req.SubjectID,
		ChapterID:           req.ChapterID,
		Status:              model.SessionCreated,
		StartedAt:           now,
		ExamDuration:        req.ExamDuration,
		TimePerQuestion:     req.TimePerQuestion,
		ChallengeLevel:      sel.ChallengeLevel,
		PassRequiredCorrect: sel.PassRequiredCorrect,
		Tip:                 sel.Tip,
	}
	sess.SetQuestions(sel.QuestionIDs)

	if err := s.SessionRepo.Create(sess); err != nil {
		return nil, nil, err
	}

	questions, err := s.orderedQuestions(sel.QuestionIDs)
	if err != nil {
		return nil, nil, err
	}

	logger.Log.Info("开始刷题会话",
		zap.String("sessionId", sess.ID),
		zap.Uint("userId", userID),
		zap.String("mode", string(req.Mode)),
		zap.Int("count", sess.TotalCount))
	return sess, questions, nil
}

// SubmitAnswer 提交当前题目的答案。进度指针只接受当前位置的题目，
// 推进并落库后才进入判题流水线。
func (s *PracticeService) SubmitAnswer(ctx context.Context, userID uint, sessionID string, req *model.SubmitAnswerRequest) (*model.GradingResult, error) {
	sess, err := s.advance(userID, sessionID, req.QuestionID)
	if err != nil {
		return nil, err
	}

	question, err := s.QuestionRepo.FindByID(req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	// 锁已释放：判题（含外部AI调用）不持有会话锁
	return s.Grading.Grade(ctx, userID, question, sess, req)
}

// advance 持锁校验并推进会话进度
func (s *PracticeService) advance(userID uint, sessionID string, questionID uint) (*model.PracticeSession, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.loadLive(userID, sessionID)
	if err != nil {
		return nil, err
	}

	current, ok := sess.CurrentQuestion()
	if !ok || current != questionID {
		return nil, util.ErrQuestionNotInSession
	}

	if sess.Status == model.SessionCreated {
		sess.Status = model.SessionInProgress
	}
	sess.Progress++
	if sess.Progress >= sess.TotalCount {
		now := s.Now()
		sess.Status = model.SessionCompleted
		sess.EndedAt = &now
	}
	if err := s.SessionRepo.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SubmitBatch 按序批量提交（考试收卷）。单项失败不中断其余项。
func (s *PracticeService) SubmitBatch(ctx context.Context, userID uint, sessionID string, req *model.BatchSubmitRequest) []model.BatchItemResult {
	results := make([]model.BatchItemResult, 0, len(req.Answers))
	for i := range req.Answers {
		item := &req.Answers[i]
		result, err := s.SubmitAnswer(ctx, userID, sessionID, item)
		if err != nil {
			results = append(results, model.BatchItemResult{
				QuestionID: item.QuestionID,
				OK:         false,
				Error:      err.Error(),
			})
			continue
		}
		results = append(results, model.BatchItemResult{
			QuestionID: item.QuestionID,
			OK:         true,
			Result:     result,
		})
	}
	return results
}

// End 主动结束会话。已终态的会话直接返回汇总，重复调用无副作用。
func (s *PracticeService) End(userID uint, sessionID string) (*SessionSummary, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()

	sess, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		mu.Unlock()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if sess.UserID != userID {
		mu.Unlock()
		return nil, util.ErrSessionNotFound
	}

	if !sess.Status.Terminal() {
		now := s.Now()
		switch {
		case sess.ExpiredAt(now):
			sess.Status = model.SessionExpired
		case sess.Progress < sess.TotalCount:
			// 没答完就主动结束视为放弃
			sess.Status = model.SessionAbandoned
		default:
			sess.Status = model.SessionCompleted
		}
		sess.EndedAt = &now
		if err := s.SessionRepo.Save(sess); err != nil {
			mu.Unlock()
			return nil, err
		}
	}
	mu.Unlock()

	return s.summarize(sess)
}

// GetSession 查询会话与当前汇总，访问时惰性检查超时
func (s *PracticeService) GetSession(userID uint, sessionID string) (*SessionSummary, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	sess, err := s.loadLiveOrTerminal(userID, sessionID)
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.summarize(sess)
}

// ListSessions 用户历史会话
func (s *PracticeService) ListSessions(userID uint, page, size int) ([]model.PracticeSession, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.SessionRepo.ListByUser(userID, page, size)
}

// SweepExpired 后台定时标记超时会话，由应用层的ticker驱动
func (s *PracticeService) SweepExpired(ctx context.Context) {
	now := s.Now()
	sessions, err := s.SessionRepo.ListExpirable(now, 200)
	if err != nil {
		logger.Log.Error("扫描超时会话失败", zap.Error(err))
		return
	}
	for i := range sessions {
		sess := &sessions[i]
		if !sess.ExpiredAt(now) {
			continue
		}
		mu := s.lockFor(sess.ID)
		mu.Lock()
		fresh, err := s.SessionRepo.FindByID(sess.ID)
		if err == nil && !fresh.Status.Terminal() && fresh.ExpiredAt(now) {
			fresh.Status = model.SessionExpired
			fresh.EndedAt = &now
			if err := s.SessionRepo.Save(fresh); err != nil {
				logger.Log.Error("标记超时会话失败",
					zap.String("sessionId", fresh.ID), zap.Error(err))
			}
		}
		mu.Unlock()
	}
}

func (s *PracticeService) lockFor(sessionID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// loadLive 返回可继续作答的会话；超时会话就地标记并返回超时错误
func (s *PracticeService) loadLive(userID uint, sessionID string) (*model.PracticeSession, error) {
	sess, err := s.loadLiveOrTerminal(userID, sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case model.SessionExpired:
		return nil, util.ErrSessionExpired
	case model.SessionCompleted, model.SessionAbandoned:
		return nil, util.ErrSessionNotFound
	}
	return sess, nil
}

// loadLiveOrTerminal 加载会话并惰性处理超时，终态会话原样返回
func (s *PracticeService) loadLiveOrTerminal(userID uint, sessionID string) (*model.PracticeSession, error) {
	sess, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if sess.UserID != userID {
		return nil, util.ErrSessionNotFound
	}

	if !sess.Status.Terminal() && sess.ExpiredAt(s.Now()) {
		now := s.Now()
		sess.Status = model.SessionExpired
		sess.EndedAt = &now
		if err := s.SessionRepo.Save(sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// summarize 基于答题记录重算会话汇总。复核中的记录单列，不计入正确数。
func (s *PracticeService) summarize(sess *model.PracticeSession) (*SessionSummary, error) {
	records, err := s.AnswerRepo.ListBySession(sess.ID)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummary{Session: sess, Answered: len(records)}
	for i := range records {
		rec := &records[i]
		summary.TotalScore += rec.TotalScore
		if rec.GradingStatus == model.GradingReviewing {
			summary.Pending++
			continue
		}
		summary.Score += rec.Score
		if rec.IsCorrect != nil && *rec.IsCorrect {
			summary.Correct++
		}
	}
	graded := summary.Answered - summary.Pending
	if graded > 0 {
		summary.Accuracy = float64(summary.Correct) / float64(graded) * 100
	}

	if sess.Mode == model.ModeChallenge && sess.Status.Terminal() {
		passed := summary.Correct >= sess.PassRequiredCorrect
		summary.Passed = &passed
	}
	return summary, nil
}

// orderedQuestions 按选题序列重排数据库返回的题目
func (s *PracticeService) orderedQuestions(ids []uint) ([]model.Question, error) {
	qs, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Question, len(qs))
	for i := range qs {
		byID[qs[i].ID] = &qs[i]
	}
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}
