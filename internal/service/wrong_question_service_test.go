package service

import (
	"context"
	"testing"

	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWrongService(env *testEnv) *WrongQuestionService {
	return NewWrongQuestionService(env.db, env.repos.wrong, env.repos.question)
}

func seedWrongEntries(t *testing.T, env *testEnv, userID uint, qs []model.Question, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := env.grading.Grade(context.Background(), userID, &qs[i], nil,
			&model.SubmitAnswerRequest{QuestionID: qs[i].ID, UserAnswer: answerJSON(t, "B")})
		require.NoError(t, err)
	}
}

func TestWrongQuestionListAndFilter(t *testing.T) {
	env := newTestEnv(t)
	svc := newWrongService(env)
	user := env.seedUser(t, "alice")
	subject := env.seedSubject(t, "数据结构", 10)
	other := env.seedSubject(t, "网络", 10)
	c1 := env.seedChapter(t, subject.ID, "第一章", 5)
	c2 := env.seedChapter(t, other.ID, "第一章", 5)
	qs1 := env.seedSingleChoice(t, subject.ID, c1.ID, 3)
	qs2 := env.seedSingleChoice(t, other.ID, c2.ID, 2)

	seedWrongEntries(t, env, user.ID, qs1, 3)
	seedWrongEntries(t, env, user.ID, qs2, 2)

	views, total, err := svc.List(user.ID, repository.WrongFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.NotEmpty(t, views)
	assert.NotNil(t, views[0].Question)

	_, total, err = svc.List(user.ID, repository.WrongFilter{SubjectID: subject.ID}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestMarkMasteredAndRemoveRestore(t *testing.T) {
	env := newTestEnv(t)
	svc := newWrongService(env)
	user := env.seedUser(t, "bob")
	subject := env.seedSubject(t, "数据结构", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 5)
	qs := env.seedSingleChoice(t, subject.ID, chapter.ID, 2)
	seedWrongEntries(t, env, user.ID, qs, 2)

	require.NoError(t, svc.MarkMastered(user.ID, qs[0].ID))
	wq, err := env.repos.wrong.FindByUserAndQuestion(env.db, user.ID, qs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.WrongStatusMastered, wq.Status)

	require.NoError(t, svc.Remove(user.ID, qs[1].ID))
	_, total, err := svc.List(user.ID, repository.WrongFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total) // 移除的不再出现

	require.NoError(t, svc.Restore(user.ID, qs[1].ID))
	_, total, err = svc.List(user.ID, repository.WrongFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// 不存在的条目
	assert.ErrorIs(t, svc.MarkMastered(user.ID, 99999), util.ErrQuestionNotFound)
}

func TestMasteredQuestionReentersOnWrongAnswer(t *testing.T) {
	env := newTestEnv(t)
	svc := newWrongService(env)
	user := env.seedUser(t, "carol")
	subject := env.seedSubject(t, "数据结构", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 5)
	qs := env.seedSingleChoice(t, subject.ID, chapter.ID, 1)
	seedWrongEntries(t, env, user.ID, qs, 1)

	require.NoError(t, svc.MarkMastered(user.ID, qs[0].ID))

	// 已掌握的题又答错，回到错题状态
	_, err := env.grading.Grade(context.Background(), user.ID, &qs[0], nil,
		&model.SubmitAnswerRequest{QuestionID: qs[0].ID, UserAnswer: answerJSON(t, "B")})
	require.NoError(t, err)

	wq, err := env.repos.wrong.FindByUserAndQuestion(env.db, user.ID, qs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.WrongStatusWrong, wq.Status)
	assert.Equal(t, 0, wq.ConsecutiveRight)
}

func TestWrongQuestionStats(t *testing.T) {
	env := newTestEnv(t)
	svc := newWrongService(env)
	user := env.seedUser(t, "dave")
	subject := env.seedSubject(t, "数据结构", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 5)
	qs := env.seedSingleChoice(t, subject.ID, chapter.ID, 3)
	seedWrongEntries(t, env, user.ID, qs, 3)

	require.NoError(t, svc.MarkMastered(user.ID, qs[0].ID))

	stats, err := svc.Stats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Wrong)
	assert.Equal(t, int64(1), stats.Mastered)
}
