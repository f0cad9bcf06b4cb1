package game

import "github.com/PandaDev0069/TUIZ-sub003/internal/models"

// Store is the engine's narrow view of durable storage. Writes are
// best-effort from the engine's perspective: failures are logged and
// never abort in-memory game flow.
type Store interface {
	CreateGame(g *models.Game) error
	UpdateGameStatus(id uint, status string, fields map[string]interface{}) error
	AddPlayer(p *models.GamePlayer) error
	RecordAnswer(a *models.Answer) error
	CreateResult(r *models.Result) error
	IncrementPlayCount(questionSetID uint) error

	FindGameByCode(code string) (*models.Game, error)
	FindGameByID(id uint) (*models.Game, error)
	PlayersForGame(gameID uint) ([]models.GamePlayer, error)
	ResultsForGame(gameID uint) ([]models.Result, error)
}
