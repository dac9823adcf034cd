package model

// Subject 学科，由内容服务维护，引擎只读
// swagger:model Subject
type Subject struct {
	BaseModel
	Name          string `gorm:"size:100;not null" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	QuestionCount int    `gorm:"default:0" json:"questionCount"`
	SortOrder     int    `gorm:"default:0" json:"sortOrder"`
	Status        int    `gorm:"default:1" json:"status"`
}

func (Subject) TableName() string {
	return "subjects"
}
