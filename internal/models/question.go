package models

type Question struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	QuestionSetID uint     `gorm:"not null;index" json:"question_set_id"`
	Text          string   `gorm:"type:text;not null" json:"text"`
	OrderNum      int      `gorm:"not null" json:"order_num"`
	TimeLimit     int      `gorm:"not null;default:30" json:"time_limit"`
	Points        int      `gorm:"not null;default:100" json:"points"`
	Explanation   string   `gorm:"type:text" json:"explanation,omitempty"`
	Options       []Option `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}
