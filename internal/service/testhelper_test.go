package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"tiku_backend/internal/config"
	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/pkg/database"
	"tiku_backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Model:               "test-model",
			ConfidenceThreshold: 0.75,
			TimeoutSeconds:      5,
			MaxRetries:          1,
		},
		Grading: config.GradingConfig{
			MasteryConsecutiveCorrect: 0,
			PointsPerCorrect:          10,
			AccuracyRankingMinAnswers: 10,
		},
	}
}

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	ai       *fakeAIClient
	repos    struct {
		user     *repository.UserRepository
		subject  *repository.SubjectRepository
		chapter  *repository.ChapterRepository
		question *repository.QuestionRepository
		session  *repository.SessionRepository
		answer   *repository.AnswerRecordRepository
		aiRecord *repository.AiGradingRecordRepository
		wrong    *repository.WrongQuestionRepository
		favorite *repository.FavoriteRepository
	}
	selector *QuestionSelector
	grading  *GradingService
	practice *PracticeService
	review   *ReviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		db:  newTestDB(t),
		cfg: testConfig(),
		ai:  &fakeAIClient{score: 8, confidence: 0.9},
	}
	env.repos.user = repository.NewUserRepository(env.db)
	env.repos.subject = repository.NewSubjectRepository(env.db)
	env.repos.chapter = repository.NewChapterRepository(env.db)
	env.repos.question = repository.NewQuestionRepository(env.db)
	env.repos.session = repository.NewSessionRepository(env.db)
	env.repos.answer = repository.NewAnswerRecordRepository(env.db)
	env.repos.aiRecord = repository.NewAiGradingRecordRepository(env.db)
	env.repos.wrong = repository.NewWrongQuestionRepository(env.db)
	env.repos.favorite = repository.NewFavoriteRepository(env.db)

	env.selector = NewQuestionSelectorWithSeed(
		env.repos.question, env.repos.answer, env.repos.wrong, env.repos.favorite, env.repos.chapter, 42)
	env.grading = NewGradingService(env.cfg, env.db,
		env.repos.question, env.repos.answer, env.repos.aiRecord, env.repos.wrong, env.repos.user, env.ai)
	env.practice = NewPracticeService(
		env.repos.session, env.repos.question, env.repos.answer, env.selector, env.grading)
	env.review = NewReviewService(env.db, env.repos.aiRecord, env.repos.answer, env.grading)
	return env
}

// fakeAIClient 可编程的AI客户端替身，返回固定的判分JSON
type fakeAIClient struct {
	score      float64
	confidence float64
	err        error
	raw        string // 非空时直接返回该文本
	calls      int
}

func (f *fakeAIClient) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.raw != "" {
		return f.raw, nil
	}
	verdict := map[string]interface{}{
		"score":      f.score,
		"confidence": f.confidence,
		"comment":    "自动测试评语",
	}
	data, _ := json.Marshal(verdict)
	return string(data), nil
}

func (f *fakeAIClient) Model() string { return "fake-model" }

var errAIDown = errors.New("connection refused")

func (env *testEnv) seedUser(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, RealName: "张三", Status: 1}
	require.NoError(t, env.db.Create(u).Error)
	return u
}

func (env *testEnv) seedSubject(t *testing.T, name string, questionCount int) *model.Subject {
	t.Helper()
	s := &model.Subject{Name: name, QuestionCount: questionCount, Status: 1}
	require.NoError(t, env.db.Create(s).Error)
	return s
}

func (env *testEnv) seedChapter(t *testing.T, subjectID uint, name string, questionCount int) *model.Chapter {
	t.Helper()
	c := &model.Chapter{SubjectID: subjectID, Name: name, QuestionCount: questionCount, Status: 1}
	require.NoError(t, env.db.Create(c).Error)
	return c
}

// seedSingleChoice 造一批单选题，答案都是"A"
func (env *testEnv) seedSingleChoice(t *testing.T, subjectID, chapterID uint, n int) []model.Question {
	t.Helper()
	out := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		q := model.Question{
			SubjectID:    subjectID,
			ChapterID:    chapterID,
			Type:         model.TypeSingle,
			Title:        fmt.Sprintf("单选题 %d", i+1),
			Difficulty:   model.DifficultyMedium,
			Score:        5,
			Options:      `["A","B","C","D"]`,
			Answer:       `"A"`,
			SerialNumber: i + 1,
			Status:       1,
		}
		require.NoError(t, env.db.Create(&q).Error)
		out = append(out, q)
	}
	return out
}

func (env *testEnv) seedEssay(t *testing.T, subjectID, chapterID uint) *model.Question {
	t.Helper()
	q := &model.Question{
		SubjectID:  subjectID,
		ChapterID:  chapterID,
		Type:       model.TypeEssay,
		Title:      "论述题",
		Difficulty: model.DifficultyHard,
		Score:      10,
		Answer:     `"参考答案要点"`,
		Status:     1,
	}
	require.NoError(t, env.db.Create(q).Error)
	return q
}

// startSession 以顺序模式开一个会话
func (env *testEnv) startSession(t *testing.T, userID uint, req *model.PracticeRequest) *model.PracticeSession {
	t.Helper()
	sess, _, err := env.practice.Start(context.Background(), userID, req)
	require.NoError(t, err)
	return sess
}

func answerJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
