package model

import "encoding/json"

// PracticeRequest 开始刷题请求
// swagger:model PracticeRequest
type PracticeRequest struct {
	Mode            PracticeMode `json:"mode" binding:"required"`
	SubjectID       uint         `json:"subjectId"`
	ChapterID       uint         `json:"chapterId"`
	QuestionType    QuestionType `json:"questionType"`
	Difficulty      Difficulty   `json:"difficulty"`
	Count           int          `json:"count"`
	ExamDuration    int          `json:"examDuration"`    // 分钟，EXAM 模式必填
	TimePerQuestion int          `json:"timePerQuestion"` // 秒，TIMED 模式必填
	ChallengeLevel  int          `json:"challengeLevel"`
}

// SubmitAnswerRequest 提交答案请求
// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	QuestionID uint            `json:"questionId" binding:"required"`
	UserAnswer json.RawMessage `json:"userAnswer"`
	TimeSpent  int             `json:"timeSpent"`
}

// BatchSubmitRequest 批量提交（考试收卷场景）
// swagger:model BatchSubmitRequest
type BatchSubmitRequest struct {
	Answers []SubmitAnswerRequest `json:"answers" binding:"required"`
}

// BatchItemResult 批量提交的单项结果，部分失败不影响其余项
type BatchItemResult struct {
	QuestionID uint           `json:"questionId"`
	OK         bool           `json:"ok"`
	Error      string         `json:"error,omitempty"`
	Result     *GradingResult `json:"result,omitempty"`
}

// GradingResult 判题结果视图
// swagger:model GradingResult
type GradingResult struct {
	AnswerRecordID   uint          `json:"answerRecordId"`
	QuestionID       uint          `json:"questionId"`
	SessionID        string        `json:"sessionId,omitempty"`
	IsCorrect        bool          `json:"isCorrect"`
	Score            float64       `json:"score"`
	TotalScore       float64       `json:"totalScore"`
	FinalScore       *float64      `json:"finalScore,omitempty"`
	GradingType      GradingType   `json:"gradingType"`
	GradingStatus    GradingStatus `json:"gradingStatus"`
	NeedManualReview bool          `json:"needManualReview"`
	CorrectAnswer    string        `json:"correctAnswer,omitempty"`
	AnswerAnalysis   string        `json:"answerAnalysis,omitempty"`
	AiFeedback       *AIFeedback   `json:"aiFeedback,omitempty"`
}

// ConfirmReviewRequest 人工复核确认请求
// swagger:model ConfirmReviewRequest
type ConfirmReviewRequest struct {
	FinalScore float64 `json:"finalScore" binding:"min=0"`
	Comment    string  `json:"comment"`
}

// FavoriteRequest 收藏请求
// swagger:model FavoriteRequest
type FavoriteRequest struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Category   string `json:"category"`
	Remark     string `json:"remark"`
}
