package store

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
)

// GameStore is the gorm-backed implementation of the engine's durable
// store contract. Every write is idempotent or safely retryable from
// the engine's point of view; callers log failures and move on.
type GameStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGameStore(db *gorm.DB, logger *zap.Logger) *GameStore {
	return &GameStore{db: db, logger: logger}
}

func (s *GameStore) CreateGame(g *models.Game) error {
	return s.db.Create(g).Error
}

func (s *GameStore) UpdateGameStatus(id uint, status string, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": status}
	for k, v := range fields {
		updates[k] = v
	}
	return s.db.Model(&models.Game{}).Where("id = ?", id).Updates(updates).Error
}

func (s *GameStore) AddPlayer(p *models.GamePlayer) error {
	return s.db.Create(p).Error
}

func (s *GameStore) RecordAnswer(a *models.Answer) error {
	// A zero player id means the join write has not landed yet; the
	// row is unattributable, so it must never update another player's
	// answer in place.
	if a.PlayerID == 0 {
		return s.db.Create(a).Error
	}

	// One answer per player per question; a replayed write updates in
	// place rather than failing the unique index.
	var existing models.Answer
	err := s.db.Where("game_id = ? AND player_id = ? AND question_id = ?",
		a.GameID, a.PlayerID, a.QuestionID).First(&existing).Error
	if err == nil {
		a.ID = existing.ID
		return s.db.Save(a).Error
	}
	return s.db.Create(a).Error
}

func (s *GameStore) CreateResult(r *models.Result) error {
	return s.db.Create(r).Error
}

func (s *GameStore) IncrementPlayCount(questionSetID uint) error {
	return s.db.Model(&models.QuestionSet{}).
		Where("id = ?", questionSetID).
		Update("play_count", gorm.Expr("play_count + 1")).Error
}

func (s *GameStore) FindGameByCode(code string) (*models.Game, error) {
	var game models.Game
	err := s.db.Where("code = ?", code).Order("created_at DESC").First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *GameStore) FindGameByID(id uint) (*models.Game, error) {
	var game models.Game
	err := s.db.First(&game, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *GameStore) PlayersForGame(gameID uint) ([]models.GamePlayer, error) {
	var players []models.GamePlayer
	err := s.db.Where("game_id = ?", gameID).Order("joined_at ASC").Find(&players).Error
	return players, err
}

func (s *GameStore) ResultsForGame(gameID uint) ([]models.Result, error) {
	var results []models.Result
	err := s.db.Where("game_id = ?", gameID).Order("rank ASC").Find(&results).Error
	return results, err
}
