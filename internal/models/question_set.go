package models

import "time"

type QuestionSet struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	HostID      uint       `gorm:"not null;index" json:"host_id"`
	Host        Host       `gorm:"foreignKey:HostID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	PlayCount   int        `gorm:"not null;default:0" json:"play_count"`
	Questions   []Question `gorm:"foreignKey:QuestionSetID" json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
