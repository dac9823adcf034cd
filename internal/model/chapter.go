package model

// Chapter 章节，由内容服务维护，引擎只读
// swagger:model Chapter
type Chapter struct {
	BaseModel
	SubjectID     uint   `gorm:"index;not null" json:"subjectId"`
	Name          string `gorm:"size:100;not null" json:"name"`
	QuestionCount int    `gorm:"default:0" json:"questionCount"`
	SortOrder     int    `gorm:"default:0" json:"sortOrder"`
	Status        int    `gorm:"default:1" json:"status"`
}

func (Chapter) TableName() string {
	return "chapters"
}
