package service

import (
	"context"
	"testing"
	"time"

	"tiku_backend/internal/model"
	"tiku_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// queueReviewItem 造一条待复核记录并返回复核队列条目
func queueReviewItem(t *testing.T, env *testEnv, userID uint, q *model.Question) *model.AiGradingRecord {
	t.Helper()
	env.ai.confidence = 0.3
	env.ai.score = 6
	result, err := env.grading.Grade(context.Background(), userID, q, nil,
		&model.SubmitAnswerRequest{QuestionID: q.ID, UserAnswer: answerJSON(t, "勉强的答案")})
	require.NoError(t, err)
	require.True(t, result.NeedManualReview)

	aiRec, err := env.repos.aiRecord.FindByAnswerRecordID(result.AnswerRecordID)
	require.NoError(t, err)
	return aiRec
}

func TestConfirmFinalizesAndAppliesSideEffects(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "alice")
	reviewer := env.seedUser(t, "teacher")
	subject := env.seedSubject(t, "软件工程", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	q := env.seedEssay(t, subject.ID, chapter.ID)

	aiRec := queueReviewItem(t, env, user.ID, q)

	confirmed, err := env.review.Confirm(reviewer.ID, aiRec.ID, &model.ConfirmReviewRequest{
		FinalScore: 7,
		Comment:    "论证较充分",
	})
	require.NoError(t, err)

	assert.True(t, confirmed.Confirmed())
	assert.Equal(t, 7.0, *confirmed.FinalScore)
	assert.Equal(t, reviewer.ID, confirmed.ReviewerID)

	// 答题记录定稿：得分率0.7视为答对
	rec, err := env.repos.answer.FindByID(aiRec.AnswerRecordID)
	require.NoError(t, err)
	assert.Equal(t, model.GradingGraded, rec.GradingStatus)
	assert.Equal(t, 7.0, rec.Score)
	require.NotNil(t, rec.IsCorrect)
	assert.True(t, *rec.IsCorrect)

	// 定稿后统计副作用生效
	fresh, err := env.repos.user.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.TotalAnswerCount)
	assert.Equal(t, int64(1), fresh.TotalCorrectCount)

	// 队列清空
	_, total, err := env.repos.aiRecord.ListPending(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestConfirmTwiceIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "bob")
	reviewer := env.seedUser(t, "teacher")
	subject := env.seedSubject(t, "软件工程", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	q := env.seedEssay(t, subject.ID, chapter.ID)

	aiRec := queueReviewItem(t, env, user.ID, q)

	_, err := env.review.Confirm(reviewer.ID, aiRec.ID, &model.ConfirmReviewRequest{FinalScore: 7})
	require.NoError(t, err)

	// 二次确认是幂等空操作，返回首次定稿的结果
	again, err := env.review.Confirm(reviewer.ID, aiRec.ID, &model.ConfirmReviewRequest{FinalScore: 2})
	require.NoError(t, err)
	assert.Equal(t, 7.0, *again.FinalScore)

	rec, err := env.repos.answer.FindByID(aiRec.AnswerRecordID)
	require.NoError(t, err)
	assert.Equal(t, 7.0, *rec.FinalScore)

	// 副作用只生效一次
	fresh, err := env.repos.user.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.TotalAnswerCount)
}

func TestConfirmLosesClaimToEarlierFinalization(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "dave")
	reviewer := env.seedUser(t, "teacher")
	subject := env.seedSubject(t, "软件工程", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	q := env.seedEssay(t, subject.ID, chapter.ID)

	aiRec := queueReviewItem(t, env, user.ID, q)

	// 两个审核方都先读到未定稿的快照
	stale, err := env.repos.aiRecord.FindByID(aiRec.ID)
	require.NoError(t, err)
	staleAnswer, err := env.repos.answer.FindByID(aiRec.AnswerRecordID)
	require.NoError(t, err)

	_, err = env.review.Confirm(reviewer.ID, aiRec.ID, &model.ConfirmReviewRequest{FinalScore: 7})
	require.NoError(t, err)

	// 落后的一方带着过期快照尝试定稿：抢占失败，记录保持首次定稿的值
	score := 2.0
	stale.ManualScore = &score
	stale.FinalScore = &score
	err = env.db.Transaction(func(tx *gorm.DB) error {
		claimed, err := env.repos.aiRecord.ClaimFinalize(tx, stale)
		require.NoError(t, err)
		assert.False(t, claimed)
		return env.grading.FinalizeReview(tx, staleAnswer, score, time.Now())
	})
	assert.ErrorIs(t, err, util.ErrAlreadyFinalized)

	rec, err := env.repos.answer.FindByID(aiRec.AnswerRecordID)
	require.NoError(t, err)
	assert.Equal(t, 7.0, *rec.FinalScore)

	fresh, err := env.repos.aiRecord.FindByID(aiRec.ID)
	require.NoError(t, err)
	assert.Equal(t, 7.0, *fresh.FinalScore)

	// 副作用只生效一次
	u, err := env.repos.user.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.TotalAnswerCount)
}

func TestConfirmValidatesScoreRange(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "carol")
	reviewer := env.seedUser(t, "teacher")
	subject := env.seedSubject(t, "软件工程", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)
	q := env.seedEssay(t, subject.ID, chapter.ID) // 满分10

	aiRec := queueReviewItem(t, env, user.ID, q)

	_, err := env.review.Confirm(reviewer.ID, aiRec.ID, &model.ConfirmReviewRequest{FinalScore: 11})
	assert.ErrorIs(t, err, util.ErrInvalidParameters)

	_, err = env.review.Confirm(reviewer.ID, 99999, &model.ConfirmReviewRequest{FinalScore: 5})
	assert.ErrorIs(t, err, util.ErrReviewNotFound)
}

func TestBatchApproveAdoptsAIScore(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "dave")
	reviewer := env.seedUser(t, "teacher")
	subject := env.seedSubject(t, "软件工程", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)

	q1 := env.seedEssay(t, subject.ID, chapter.ID)
	q2 := env.seedEssay(t, subject.ID, chapter.ID)
	rec1 := queueReviewItem(t, env, user.ID, q1)
	rec2 := queueReviewItem(t, env, user.ID, q2)

	// 先手工确认一条，批量时应跳过
	_, err := env.review.Confirm(reviewer.ID, rec1.ID, &model.ConfirmReviewRequest{FinalScore: 3})
	require.NoError(t, err)

	approved, err := env.review.BatchApprove(reviewer.ID, []uint{rec1.ID, rec2.ID, 99999})
	require.NoError(t, err)
	assert.Equal(t, 1, approved)

	fresh, err := env.repos.aiRecord.FindByID(rec2.ID)
	require.NoError(t, err)
	require.True(t, fresh.Confirmed())
	assert.Equal(t, fresh.AiScore, *fresh.FinalScore)
}

func TestReviewStats(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "erin")
	reviewer := env.seedUser(t, "teacher")
	subject := env.seedSubject(t, "软件工程", 10)
	chapter := env.seedChapter(t, subject.ID, "第一章", 10)

	q1 := env.seedEssay(t, subject.ID, chapter.ID)
	q2 := env.seedEssay(t, subject.ID, chapter.ID)
	rec1 := queueReviewItem(t, env, user.ID, q1)
	queueReviewItem(t, env, user.ID, q2)

	_, err := env.review.Confirm(reviewer.ID, rec1.ID, &model.ConfirmReviewRequest{FinalScore: 5})
	require.NoError(t, err)

	stats, err := env.review.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Confirmed)
}
