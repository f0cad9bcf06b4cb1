package models

import "time"

type Game struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	QuestionSetID   uint         `gorm:"not null;index" json:"question_set_id"`
	QuestionSet     QuestionSet  `gorm:"foreignKey:QuestionSetID" json:"question_set,omitempty"`
	HostID          uint         `gorm:"not null;index" json:"host_id"`
	Code            string       `gorm:"size:6;index" json:"code"`
	Status          string       `gorm:"size:20;not null;default:'lobby'" json:"status"`
	CurrentQuestion int          `gorm:"not null;default:-1" json:"current_question"`
	Players         []GamePlayer `gorm:"foreignKey:GameID" json:"players,omitempty"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	EndedAt         *time.Time   `json:"ended_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

const (
	GameStatusLobby          = "lobby"
	GameStatusQuestionActive = "question_active"
	GameStatusShowingResults = "showing_results"
	GameStatusFinished       = "finished"
)
