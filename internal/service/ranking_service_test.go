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

func seedRankedUser(t *testing.T, env *testEnv, username string, answered, correct int64, studyAt time.Time) *model.User {
	t.Helper()
	u := &model.User{
		Username:          username,
		RealName:          "王小明",
		Status:            1,
		TotalAnswerCount:  answered,
		TotalCorrectCount: correct,
		LastStudyAt:       &studyAt,
	}
	require.NoError(t, env.db.Create(u).Error)
	return u
}

func newRanking(env *testEnv) *RankingService {
	// Redis为空：直接回源计算
	return NewRankingService(env.cfg, nil, env.repos.user, env.repos.answer)
}

func TestRankingByAnswerCount(t *testing.T) {
	env := newTestEnv(t)
	ranking := newRanking(env)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.Local)

	seedRankedUser(t, env, "low", 10, 5, base)
	top := seedRankedUser(t, env, "high", 100, 80, base)
	me := seedRankedUser(t, env, "mid", 50, 40, base)

	board, err := ranking.GetBoard(context.Background(), model.RankByAnswerCount, 0, me.ID)
	require.NoError(t, err)

	require.Len(t, board.Items, 3)
	assert.Equal(t, top.ID, board.Items[0].UserID)
	assert.Equal(t, 1, board.Items[0].Rank)
	assert.Equal(t, me.ID, board.Items[1].UserID)
	assert.True(t, board.Items[1].IsCurrentUser)

	require.NotNil(t, board.MyRank)
	assert.Equal(t, 2, board.MyRank.Rank)

	// 真名脱敏
	assert.Equal(t, "王**", board.Items[0].RealName)
}

func TestRankingTieBreakIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	ranking := newRanking(env)

	early := time.Date(2026, 8, 1, 9, 0, 0, 0, time.Local)
	late := time.Date(2026, 8, 1, 18, 0, 0, 0, time.Local)

	// 同样的答题量：先达成者在前
	b := seedRankedUser(t, env, "late", 50, 40, late)
	a := seedRankedUser(t, env, "early", 50, 40, early)

	board, err := ranking.GetBoard(context.Background(), model.RankByAnswerCount, 0, 0)
	require.NoError(t, err)

	require.Len(t, board.Items, 2)
	assert.Equal(t, a.ID, board.Items[0].UserID)
	assert.Equal(t, b.ID, board.Items[1].UserID)

	// 重复计算结果一致
	again, err := ranking.GetBoard(context.Background(), model.RankByAnswerCount, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, board.Items[0].UserID, again.Items[0].UserID)
	assert.Equal(t, board.Items[1].UserID, again.Items[1].UserID)
}

func TestAccuracyRankingRequiresMinimumAnswers(t *testing.T) {
	env := newTestEnv(t)
	ranking := newRanking(env)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.Local)

	// 1题全对：答题量不足，不应霸榜
	lucky := seedRankedUser(t, env, "lucky", 1, 1, base)
	steady := seedRankedUser(t, env, "steady", 100, 90, base)

	board, err := ranking.GetBoard(context.Background(), model.RankByAccuracy, 0, lucky.ID)
	require.NoError(t, err)

	require.Len(t, board.Items, 1)
	assert.Equal(t, steady.ID, board.Items[0].UserID)
	assert.InDelta(t, 90.0, board.Items[0].Accuracy, 0.001)
	// 未上榜的调用者没有名次
	assert.Nil(t, board.MyRank)
}

func TestRankingByPoints(t *testing.T) {
	env := newTestEnv(t)
	ranking := newRanking(env)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.Local)

	seedRankedUser(t, env, "alice", 30, 20, base)
	top := seedRankedUser(t, env, "bob", 40, 35, base)

	board, err := ranking.GetBoard(context.Background(), model.RankByPoints, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, top.ID, board.Items[0].UserID)
	assert.Equal(t, int64(350), board.Items[0].Value) // 35 × 10
}

func TestSubjectRanking(t *testing.T) {
	env := newTestEnv(t)
	ranking := newRanking(env)
	subject := env.seedSubject(t, "数据结构", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	qs := env.seedSingleChoice(t, subject.ID, chapter.ID, 5)

	u1 := env.seedUser(t, "alice")
	u2 := env.seedUser(t, "bob")

	// u1 答3题，u2 答1题
	for i := 0; i < 3; i++ {
		_, err := env.grading.Grade(context.Background(), u1.ID, &qs[i], nil,
			&model.SubmitAnswerRequest{QuestionID: qs[i].ID, UserAnswer: answerJSON(t, "A")})
		require.NoError(t, err)
	}
	_, err := env.grading.Grade(context.Background(), u2.ID, &qs[3], nil,
		&model.SubmitAnswerRequest{QuestionID: qs[3].ID, UserAnswer: answerJSON(t, "B")})
	require.NoError(t, err)

	board, err := ranking.GetBoard(context.Background(), model.RankBySubject, subject.ID, u2.ID)
	require.NoError(t, err)

	require.Len(t, board.Items, 2)
	assert.Equal(t, u1.ID, board.Items[0].UserID)
	assert.Equal(t, int64(3), board.Items[0].Value)
	assert.InDelta(t, 100.0, board.Items[0].Accuracy, 0.001)

	// metric=subject 必须带学科
	_, err = ranking.GetBoard(context.Background(), model.RankBySubject, 0, 0)
	assert.ErrorIs(t, err, util.ErrInvalidParameters)
}

func TestRankingUnknownMetric(t *testing.T) {
	env := newTestEnv(t)
	ranking := newRanking(env)
	seedRankedUser(t, env, "alice", 10, 5, time.Now())

	_, err := ranking.GetBoard(context.Background(), "nope", 0, 0)
	assert.ErrorIs(t, err, util.ErrInvalidParameters)
}
