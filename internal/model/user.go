package model

import "time"

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// User 身份服务的本地镜像，引擎只维护答题计数等派生字段
// swagger:model User
type User struct {
	BaseModel
	Username          string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	RealName          string     `gorm:"size:50" json:"realName"`
	Role              UserRole   `gorm:"size:20;default:'student'" json:"role"`
	Status            int        `gorm:"default:1" json:"status"` // 1:正常 0:禁用
	TotalAnswerCount  int64      `gorm:"default:0" json:"totalAnswerCount"`
	TotalCorrectCount int64      `gorm:"default:0" json:"totalCorrectCount"`
	LastStudyAt       *time.Time `json:"lastStudyAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}
