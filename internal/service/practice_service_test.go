package service

import (
	"context"
	"testing"
	"time"

	"tiku_backend/internal/model"
	"tiku_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSequentialSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice")
	subject := env.seedSubject(t, "数据结构", 20)
	chapter := env.seedChapter(t, subject.ID, "第一章", 20)
	env.seedSingleChoice(t, subject.ID, chapter.ID, 20)

	sess, questions, err := env.practice.Start(context.Background(), user.ID, &model.PracticeRequest{
		Mode:      model.ModeSequential,
		SubjectID: subject.ID,
		Count:     5,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SessionCreated, sess.Status)
	assert.Equal(t, 5, sess.TotalCount)
	assert.Equal(t, 0, sess.Progress)
	assert.Len(t, questions, 5)
	// 顺序模式按章节序号出题
	assert.Equal(t, sess.Questions()[0], questions[0].ID)
}

func TestStartValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "bob")

	_, _, err := env.practice.Start(context.Background(), user.ID, &model.PracticeRequest{Mode: "NOPE"})
	assert.ErrorIs(t, err, util.ErrInvalidParameters)

	_, _, err = env.practice.Start(context.Background(), user.ID, &model.PracticeRequest{
		Mode: model.ModeExam, SubjectID: 1,
	})
	assert.ErrorIs(t, err, util.ErrInvalidParameters)

	_, _, err = env.practice.Start(context.Background(), user.ID, &model.PracticeRequest{
		Mode: model.ModeTimed,
	})
	assert.ErrorIs(t, err, util.ErrInvalidParameters)

	// 没有任何题目
	_, _, err = env.practice.Start(context.Background(), user.ID, &model.PracticeRequest{
		Mode: model.ModeRandom, SubjectID: 999,
	})
	assert.ErrorIs(t, err, util.ErrEmptyQuestionSet)
}

func TestSubmitAdvancesProgressInOrder(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "carol")
	subject := env.seedSubject(t, "网络", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	env.seedSingleChoice(t, subject.ID, chapter.ID, 3)

	sess := env.startSession(t, user.ID, &model.PracticeRequest{
		Mode: model.ModeSequential, SubjectID: subject.ID, Count: 3,
	})
	ids := sess.Questions()

	// 乱序提交被拒绝，进度不动
	_, err := env.practice.SubmitAnswer(context.Background(), user.ID, sess.ID,
		&model.SubmitAnswerRequest{QuestionID: ids[1], UserAnswer: answerJSON(t, "A")})
	assert.ErrorIs(t, err, util.ErrQuestionNotInSession)

	fresh, err := env.repos.session.FindByID(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Progress)

	// 按序提交逐题推进
	for i, id := range ids {
		result, err := env.practice.SubmitAnswer(context.Background(), user.ID, sess.ID,
			&model.SubmitAnswerRequest{QuestionID: id, UserAnswer: answerJSON(t, "A")})
		require.NoError(t, err)
		assert.True(t, result.IsCorrect)

		fresh, err := env.repos.session.FindByID(sess.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, fresh.Progress)
	}

	// 答完自动完成
	fresh, err = env.repos.session.FindByID(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, fresh.Status)
	require.NotNil(t, fresh.EndedAt)

	// 完成后的会话不再接受提交
	_, err = env.practice.SubmitAnswer(context.Background(), user.ID, sess.ID,
		&model.SubmitAnswerRequest{QuestionID: ids[0], UserAnswer: answerJSON(t, "A")})
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSubmitRejectsForeignUser(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "dave")
	other := env.seedUser(t, "eve")
	subject := env.seedSubject(t, "网络", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	env.seedSingleChoice(t, subject.ID, chapter.ID, 2)

	sess := env.startSession(t, owner.ID, &model.PracticeRequest{
		Mode: model.ModeSequential, SubjectID: subject.ID, Count: 2,
	})

	_, err := env.practice.SubmitAnswer(context.Background(), other.ID, sess.ID,
		&model.SubmitAnswerRequest{QuestionID: sess.Questions()[0], UserAnswer: answerJSON(t, "A")})
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestTimedSessionExpiry(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "frank")
	subject := env.seedSubject(t, "网络", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	env.seedSingleChoice(t, subject.ID, chapter.ID, 2)

	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)
	env.practice.Now = fixedClock(start)

	sess := env.startSession(t, user.ID, &model.PracticeRequest{
		Mode:            model.ModeTimed,
		SubjectID:       subject.ID,
		Count:           2,
		TimePerQuestion: 30,
	})
	// 2题 × 30秒 = 60秒预算

	// 预算内可以提交
	_, err := env.practice.SubmitAnswer(context.Background(), user.ID, sess.ID,
		&model.SubmitAnswerRequest{QuestionID: sess.Questions()[0], UserAnswer: answerJSON(t, "A")})
	require.NoError(t, err)

	// 预算耗尽后提交被拒绝，会话就地标记超时
	env.practice.Now = fixedClock(start.Add(61 * time.Second))
	_, err = env.practice.SubmitAnswer(context.Background(), user.ID, sess.ID,
		&model.SubmitAnswerRequest{QuestionID: sess.Questions()[1], UserAnswer: answerJSON(t, "A")})
	assert.ErrorIs(t, err, util.ErrSessionExpired)

	fresh, err := env.repos.session.FindByID(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionExpired, fresh.Status)
	// 超时前已判的结果保留
	records, err := env.repos.answer.ListBySession(sess.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSubmitBatchPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "grace")
	subject := env.seedSubject(t, "网络", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	env.seedSingleChoice(t, subject.ID, chapter.ID, 3)

	sess := env.startSession(t, user.ID, &model.PracticeRequest{
		Mode: model.ModeExam, SubjectID: subject.ID, Count: 3, ExamDuration: 30,
	})
	ids := sess.Questions()

	results := env.practice.SubmitBatch(context.Background(), user.ID, sess.ID, &model.BatchSubmitRequest{
		Answers: []model.SubmitAnswerRequest{
			{QuestionID: ids[0], UserAnswer: answerJSON(t, "A")},
			{QuestionID: ids[2], UserAnswer: answerJSON(t, "A")}, // 乱序，失败
			{QuestionID: ids[1], UserAnswer: answerJSON(t, "B")},
		},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].OK)
	assert.False(t, results[2].Result.IsCorrect)
}

func TestEndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "henry")
	subject := env.seedSubject(t, "网络", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	env.seedSingleChoice(t, subject.ID, chapter.ID, 3)

	sess := env.startSession(t, user.ID, &model.PracticeRequest{
		Mode: model.ModeSequential, SubjectID: subject.ID, Count: 3,
	})

	_, err := env.practice.SubmitAnswer(context.Background(), user.ID, sess.ID,
		&model.SubmitAnswerRequest{QuestionID: sess.Questions()[0], UserAnswer: answerJSON(t, "A")})
	require.NoError(t, err)

	first, err := env.practice.End(user.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionAbandoned, first.Session.Status)
	assert.Equal(t, 1, first.Answered)
	assert.Equal(t, 1, first.Correct)

	second, err := env.practice.End(user.ID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Session.Status, second.Session.Status)
	assert.Equal(t, first.Answered, second.Answered)
}

func TestEndDistinguishesAbandonedFromCompleted(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "iris")
	subject := env.seedSubject(t, "网络", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	env.seedSingleChoice(t, subject.ID, chapter.ID, 4)

	// 中途结束视为放弃
	abandoned := env.startSession(t, user.ID, &model.PracticeRequest{
		Mode: model.ModeSequential, SubjectID: subject.ID, Count: 2,
	})
	_, err := env.practice.SubmitAnswer(context.Background(), user.ID, abandoned.ID,
		&model.SubmitAnswerRequest{QuestionID: abandoned.Questions()[0], UserAnswer: answerJSON(t, "A")})
	require.NoError(t, err)

	summary, err := env.practice.End(user.ID, abandoned.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionAbandoned, summary.Session.Status)

	fresh, err := env.repos.session.FindByID(abandoned.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionAbandoned, fresh.Status)
	assert.Equal(t, 1, fresh.Progress)

	// 放弃后不再接受提交
	_, err = env.practice.SubmitAnswer(context.Background(), user.ID, abandoned.ID,
		&model.SubmitAnswerRequest{QuestionID: abandoned.Questions()[1], UserAnswer: answerJSON(t, "A")})
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	// 全部答完后结束才算完成
	completed := env.startSession(t, user.ID, &model.PracticeRequest{
		Mode: model.ModeSequential, SubjectID: subject.ID, Count: 2,
	})
	for _, id := range completed.Questions() {
		_, err := env.practice.SubmitAnswer(context.Background(), user.ID, completed.ID,
			&model.SubmitAnswerRequest{QuestionID: id, UserAnswer: answerJSON(t, "A")})
		require.NoError(t, err)
	}
	summary, err = env.practice.End(user.ID, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, summary.Session.Status)
}

func TestChallengePassEvaluation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "ivy")
	subject := env.seedSubject(t, "算法", 30)
	chapter := env.seedChapter(t, subject.ID, "第一章", 30)
	// 闯关第1关需要简单题
	for i := 0; i < 12; i++ {
		q := model.Question{
			SubjectID: subject.ID, ChapterID: chapter.ID,
			Type: model.TypeSingle, Title: "闯关题", Difficulty: model.DifficultyEasy,
			Score: 5, Answer: `"A"`, SerialNumber: i + 1, Status: 1,
		}
		require.NoError(t, env.db.Create(&q).Error)
	}

	sess := env.startSession(t, user.ID, &model.PracticeRequest{
		Mode: model.ModeChallenge, SubjectID: subject.ID, ChallengeLevel: 1,
	})
	assert.Equal(t, 10, sess.TotalCount)
	assert.Equal(t, 8, sess.PassRequiredCorrect) // ceil(10*0.8)
	assert.NotEmpty(t, sess.Tip)

	// 全部答对
	for _, id := range sess.Questions() {
		_, err := env.practice.SubmitAnswer(context.Background(), user.ID, sess.ID,
			&model.SubmitAnswerRequest{QuestionID: id, UserAnswer: answerJSON(t, "A")})
		require.NoError(t, err)
	}

	summary, err := env.practice.GetSession(user.ID, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.Passed)
	assert.True(t, *summary.Passed)
}

func TestSweepExpiredMarksSessions(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jack")
	subject := env.seedSubject(t, "网络", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	env.seedSingleChoice(t, subject.ID, chapter.ID, 2)

	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)
	env.practice.Now = fixedClock(start)

	sess := env.startSession(t, user.ID, &model.PracticeRequest{
		Mode: model.ModeExam, SubjectID: subject.ID, Count: 2, ExamDuration: 10,
	})

	env.practice.Now = fixedClock(start.Add(11 * time.Minute))
	env.practice.SweepExpired(context.Background())

	fresh, err := env.repos.session.FindByID(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionExpired, fresh.Status)
}
