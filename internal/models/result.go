package models

import "time"

type Result struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GameID      uint      `gorm:"not null;index" json:"game_id"`
	PlayerID    uint      `gorm:"not null" json:"player_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Score       int       `gorm:"not null" json:"score"`
	Streak      int       `gorm:"not null;default:0" json:"streak"`
	Rank        int       `gorm:"not null" json:"rank"`
	CompletedAt time.Time `json:"completed_at"`
}
