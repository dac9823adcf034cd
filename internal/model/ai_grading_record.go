package model

// AiGradingRecord AI判题记录，也是人工复核队列中的条目。
// FinalScore 为空表示仍在待复核队列中。
// swagger:model AiGradingRecord
type AiGradingRecord struct {
	BaseModel
	AnswerRecordID uint     `gorm:"index;not null" json:"answerRecordId"`
	QuestionID     uint     `gorm:"index;not null" json:"questionId"`
	UserID         uint     `gorm:"index;not null" json:"userId"`
	StudentAnswer  string   `gorm:"type:text" json:"studentAnswer"`
	AiModel        string   `gorm:"size:50" json:"aiModel"`
	AiScore        float64  `json:"aiScore"`
	AiConfidence   float64  `json:"aiConfidence"`
	AiFeedback     string   `gorm:"type:json" json:"-"`
	ManualReview   bool     `gorm:"default:false" json:"manualReview"`
	ManualScore    *float64 `json:"manualScore,omitempty"`
	ReviewerID     uint     `json:"reviewerId,omitempty"`
	ReviewComment  string   `gorm:"type:text" json:"reviewComment,omitempty"`
	FinalScore     *float64 `json:"finalScore,omitempty"`
	GradingTimeMs  int      `json:"gradingTimeMs"`
}

func (AiGradingRecord) TableName() string {
	return "ai_grading_records"
}

// Confirmed 是否已有最终得分（复核完成或高置信直接定稿）
func (r *AiGradingRecord) Confirmed() bool {
	return r.FinalScore != nil
}

// ScoreDetail AI按维度给出的评分
type ScoreDetail struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"maxScore"`
	Reason    string  `json:"reason"`
}

// AIFeedback AI判题反馈，整体以JSON存入 AiGradingRecord.AiFeedback
type AIFeedback struct {
	Model        string        `json:"model"`
	Confidence   float64       `json:"confidence"`
	ScoreDetails []ScoreDetail `json:"scoreDetails,omitempty"`
	Strengths    []string      `json:"strengths,omitempty"`
	Weaknesses   []string      `json:"weaknesses,omitempty"`
	Suggestions  string        `json:"suggestions,omitempty"`
	Comment      string        `json:"comment,omitempty"`
}
