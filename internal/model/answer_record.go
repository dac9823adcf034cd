package model

import "time"

type GradingType string

const (
	GradingAuto   GradingType = "AUTO"   // 自动判题（客观题）
	GradingAI     GradingType = "AI"     // AI判题
	GradingManual GradingType = "MANUAL" // 人工判题
)

type GradingStatus string

const (
	GradingPending   GradingStatus = "PENDING"   // 待判题
	GradingGraded    GradingStatus = "GRADED"    // 已定稿
	GradingReviewing GradingStatus = "REVIEWING" // 人工复核中
)

// AnswerRecord 答题记录，即持久化的判题结果。
// CorrectAnswer 是判题时刻的标准答案快照，定稿后不随题目编辑变化。
// FinalScore 一经写入不再改变；REVIEWING 状态的记录不计入任何统计。
// swagger:model AnswerRecord
type AnswerRecord struct {
	BaseModel
	UserID        uint          `gorm:"index;not null" json:"userId"`
	QuestionID    uint          `gorm:"index;not null" json:"questionId"`
	SessionID     string        `gorm:"size:36;index" json:"sessionId"`
	PracticeMode  PracticeMode  `gorm:"size:20" json:"practiceMode"`
	UserAnswer    string        `gorm:"type:json" json:"userAnswer"`
	CorrectAnswer string        `gorm:"type:json" json:"correctAnswer"`
	IsCorrect     *bool         `gorm:"index" json:"isCorrect"`
	Score         float64       `json:"score"`
	TotalScore    float64       `json:"totalScore"`
	FinalScore    *float64      `json:"finalScore,omitempty"`
	GradingType   GradingType   `gorm:"size:10" json:"gradingType"`
	GradingStatus GradingStatus `gorm:"size:10;index;default:'PENDING'" json:"gradingStatus"`
	TimeSpent     int           `json:"timeSpent"` // 秒
	AnsweredAt    time.Time     `gorm:"index" json:"answeredAt"`
	GradedAt      *time.Time    `json:"gradedAt,omitempty"`
}

func (AnswerRecord) TableName() string {
	return "answer_records"
}

// Finalized 结果是否已定稿（可计入统计）
func (r *AnswerRecord) Finalized() bool {
	return r.GradingStatus == GradingGraded && r.FinalScore != nil
}
