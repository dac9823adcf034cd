package model

import "time"

type WrongStatus string

const (
	WrongStatusWrong         WrongStatus = "WRONG"          // 易错
	WrongStatusRepeatedWrong WrongStatus = "REPEATED_WRONG" // 反复错（3次以上）
	WrongStatusMastered      WrongStatus = "MASTERED"       // 已掌握
)

// WrongQuestion 错题本条目。只软删除，保证历史统计的连接一致性。
// swagger:model WrongQuestion
type WrongQuestion struct {
	BaseModel
	UserID           uint        `gorm:"uniqueIndex:idx_user_question;not null" json:"userId"`
	QuestionID       uint        `gorm:"uniqueIndex:idx_user_question;not null" json:"questionId"`
	WrongCount       int         `gorm:"default:1" json:"wrongCount"`
	ConsecutiveRight int         `gorm:"default:0" json:"consecutiveRight"`
	Status           WrongStatus `gorm:"size:20;index;default:'WRONG'" json:"status"`
	Removed          bool        `gorm:"default:false" json:"removed"`
	LastWrongAt      *time.Time  `json:"lastWrongAt,omitempty"`
}

func (WrongQuestion) TableName() string {
	return "wrong_questions"
}

// Active 条目是否仍在错题本中（未移除且未掌握）
func (w *WrongQuestion) Active() bool {
	return !w.Removed && w.Status != WrongStatusMastered
}
