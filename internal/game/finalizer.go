package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
)

// EndGame finalizes a session exactly once. A missing session, an
// already-finished session, or a finalize already in flight all drop
// the call. The in-memory transition (standings computed, timers
// cancelled, status terminal) commits under the session lock; result
// persistence and the game-over broadcast happen after, each
// independently fault-tolerant.
func (e *Engine) EndGame(code string) {
	var (
		gameID    uint
		setID     uint
		standings []Standing
		results   []*models.Result
	)
	ended := false

	e.registry.Update(code, func(s *Session) {
		if s.Finished() || s.transition == transitionEnding {
			return
		}
		s.transition = transitionEnding
		ended = true

		s.clearTimers()
		standings = Rank(s.PlayersInOrder())
		s.Status = models.GameStatusFinished
		s.touch()

		gameID = s.GameID
		setID = s.QuestionSetID

		now := time.Now()
		byName := make(map[string]*Player, len(s.Players))
		for _, p := range s.Players {
			byName[p.Name] = p
		}
		for _, st := range standings {
			p := byName[st.Name]
			if p == nil {
				continue
			}
			results = append(results, &models.Result{
				GameID:      gameID,
				PlayerID:    p.DBID,
				Name:        st.Name,
				Score:       st.Score,
				Streak:      st.Streak,
				Rank:        st.Rank,
				CompletedAt: now,
			})
		}
	})
	if !ended {
		return
	}

	for _, r := range results {
		if err := e.store.CreateResult(r); err != nil {
			e.logger.Warn("persist result failed",
				zap.String("code", code),
				zap.String("player", r.Name),
				zap.Error(err))
		}
	}
	if err := e.store.IncrementPlayCount(setID); err != nil {
		e.logger.Warn("increment play count failed", zap.String("code", code), zap.Error(err))
	}
	if gameID != 0 {
		now := time.Now()
		err := e.store.UpdateGameStatus(gameID, models.GameStatusFinished, map[string]interface{}{
			"ended_at": &now,
		})
		if err != nil {
			e.logger.Warn("persist final status failed", zap.String("code", code), zap.Error(err))
		}
	}

	e.bus.EmitToRoom(code, EventGameOver, map[string]interface{}{
		"standings": standings,
	})
	e.logger.Info("game finished", zap.String("code", code), zap.Int("players", len(standings)))

	// Release the ending guard. Status stays terminal; the session
	// remains queryable until the idle sweep evicts it.
	e.registry.Update(code, func(s *Session) {
		s.transition = transitionIdle
	})
}

// HostEndGame ends the game on an explicit host command. The host
// check happens under the lock; the finalize itself rides EndGame's
// own guard, so a host command racing the last reveal timer still
// finalizes exactly once.
func (e *Engine) HostEndGame(code, connID string) {
	isHost := false
	e.registry.View(code, func(s *Session) {
		isHost = connID == s.HostConnID
	})
	if isHost {
		e.EndGame(code)
	}
}
