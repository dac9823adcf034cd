package model

// Favorite 收藏条目，简单的幂等增删集合
// swagger:model Favorite
type Favorite struct {
	BaseModel
	UserID     uint   `gorm:"uniqueIndex:idx_user_fav_question;not null" json:"userId"`
	QuestionID uint   `gorm:"uniqueIndex:idx_user_fav_question;not null" json:"questionId"`
	Category   string `gorm:"size:50" json:"category"`
	Remark     string `gorm:"size:255" json:"remark"`
}

func (Favorite) TableName() string {
	return "favorites"
}
