package models

import "time"

type GamePlayer struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GameID   uint      `gorm:"not null;index" json:"game_id"`
	Name     string    `gorm:"size:100;not null" json:"name"`
	Token    string    `gorm:"size:64;index" json:"-"`
	Score    int       `gorm:"not null;default:0" json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}
