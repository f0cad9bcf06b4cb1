package models

import "time"

type Answer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GameID      uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"game_id"`
	PlayerID    uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"player_id"`
	QuestionID  uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"question_id"`
	OptionIndex int       `gorm:"not null" json:"option_index"`
	IsCorrect   bool      `gorm:"not null" json:"is_correct"`
	Points      int       `gorm:"not null;default:0" json:"points"`
	TimeTaken   float64   `gorm:"not null;default:0" json:"time_taken"`
	AnsweredAt  time.Time `json:"answered_at"`
}
