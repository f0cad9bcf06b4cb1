package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
)

// RestoreRequest is an incoming restoration attempt. Token is the
// client-persisted stable identity; Name is the deprecated fallback
// used only when no token is presented. Either GameCode or GameID may
// locate the session.
type RestoreRequest struct {
	ConnID   string `json:"-"`
	IsHost   bool   `json:"is_host"`
	Token    string `json:"token,omitempty"`
	Name     string `json:"name,omitempty"`
	GameCode string `json:"game_code,omitempty"`
	GameID   uint   `json:"game_id,omitempty"`
}

// Snapshot types carried by restoration events.
const (
	SnapshotActiveGame = "activeGame"
	SnapshotLobby      = "lobby"
	SnapshotCompleted  = "completed"
)

// RestoreSession matches a connection to an existing player or host
// record and replays the right snapshot: the resident session when one
// exists, durable storage when it does not, and a sessionExpired signal
// when neither knows the game. A connection that already restored is
// rejected to prevent duplicate rebinding churn.
func (e *Engine) RestoreSession(req RestoreRequest) {
	if e.isRestored(req.ConnID) {
		e.logger.Warn("duplicate restore rejected", zap.String("conn", req.ConnID))
		return
	}

	code := req.GameCode
	if code == "" || !e.registry.Has(code) {
		if found, ok := e.registry.FindByGameID(req.GameID); ok {
			code = found
		}
	}

	if code != "" && e.registry.Has(code) {
		e.restoreResident(code, req)
		return
	}
	e.restoreFromStore(req)
}

func (e *Engine) restoreResident(code string, req RestoreRequest) {
	var fx []emit
	joined := false

	e.registry.Update(code, func(s *Session) {
		if req.IsHost {
			if req.Token != s.HostKey {
				return
			}
			s.HostConnID = req.ConnID
			joined = true
			fx = append(fx, connEmit(req.ConnID, EventHostRestored, e.snapshotLocked(s, nil)))
			s.touch()
			return
		}

		oldConn, p := s.findByToken(req.Token)
		if p == nil {
			oldConn, p = s.findByName(req.Name)
		}
		if p == nil {
			fx = append(fx, connEmit(req.ConnID, EventSessionExpired, map[string]string{
				"reason": "player not found",
			}))
			return
		}

		// Rebind the stable identity to the new connection; score,
		// streak, and any in-flight answer stay on the record.
		delete(s.Players, oldConn)
		s.Players[req.ConnID] = p
		p.Connected = true
		for i := range s.CurrentAnswers {
			if s.CurrentAnswers[i].ConnID == oldConn {
				s.CurrentAnswers[i].ConnID = req.ConnID
			}
		}
		joined = true
		fx = append(fx, connEmit(req.ConnID, EventPlayerRestored, e.snapshotLocked(s, p)))
		s.touch()
	})

	if joined {
		e.bus.JoinRoom(code, req.ConnID)
		e.markRestored(req.ConnID)
	}
	e.flush(fx)
}

// snapshotLocked builds the typed state snapshot for a restoring
// connection. Caller holds the session lock.
func (e *Engine) snapshotLocked(s *Session, you *Player) map[string]interface{} {
	snap := map[string]interface{}{
		"code":    s.Code,
		"game_id": s.GameID,
		"status":  s.Status,
	}

	if s.Status == models.GameStatusLobby {
		snap["type"] = SnapshotLobby
		var players []string
		for _, p := range s.PlayersInOrder() {
			if p.Connected {
				players = append(players, p.Name)
			}
		}
		snap["players"] = players
		snap["settings"] = s.Settings
		return snap
	}

	// A finished session lingering before the sweep restores the same
	// shape the durable fallback serves.
	if s.Finished() {
		snap["type"] = SnapshotCompleted
		snap["results"] = Rank(s.PlayersInOrder())
		return snap
	}

	snap["type"] = SnapshotActiveGame
	snap["index"] = s.CurrentIndex
	snap["total"] = len(s.Questions)
	snap["standings"] = Rank(s.PlayersInOrder())
	if q := s.CurrentQuestion(); q != nil {
		snap["question"] = map[string]interface{}{
			"id":         q.ID,
			"text":       q.Text,
			"options":    q.Options,
			"time_limit": q.TimeLimit,
		}
		if s.Status == models.GameStatusQuestionActive {
			remaining := int(time.Until(s.QuestionDeadline).Seconds())
			if remaining < 0 {
				remaining = 0
			}
			snap["remaining"] = remaining
		}
	}
	if you != nil {
		snap["you"] = map[string]interface{}{
			"name":     you.Name,
			"score":    you.Score,
			"streak":   you.Streak,
			"answered": s.hasAnswered(connIDOf(s, you)),
		}
	}
	return snap
}

func connIDOf(s *Session, target *Player) string {
	for connID, p := range s.Players {
		if p == target {
			return connID
		}
	}
	return ""
}

// restoreFromStore is the durable fallback for sessions no longer
// resident: finished games replay their final results, unfinished rows
// restore as a lobby, and unknown games get the expired signal.
func (e *Engine) restoreFromStore(req RestoreRequest) {
	var (
		row *models.Game
		err error
	)
	if req.GameCode != "" {
		row, err = e.store.FindGameByCode(req.GameCode)
	}
	if row == nil && req.GameID != 0 {
		row, err = e.store.FindGameByID(req.GameID)
	}
	if err != nil {
		e.logger.Warn("restore lookup failed", zap.String("conn", req.ConnID), zap.Error(err))
	}
	if row == nil {
		e.bus.EmitToConn(req.ConnID, EventSessionExpired, map[string]string{
			"reason": "session not found",
		})
		return
	}

	if row.Status == models.GameStatusFinished {
		results, err := e.store.ResultsForGame(row.ID)
		if err != nil {
			e.logger.Warn("restore results failed", zap.Uint("game_id", row.ID), zap.Error(err))
		}
		e.bus.EmitToConn(req.ConnID, e.restoreEvent(req), map[string]interface{}{
			"type":    SnapshotCompleted,
			"code":    row.Code,
			"game_id": row.ID,
			"status":  row.Status,
			"results": results,
		})
		e.markRestored(req.ConnID)
		return
	}

	players, err := e.store.PlayersForGame(row.ID)
	if err != nil {
		e.logger.Warn("restore players failed", zap.Uint("game_id", row.ID), zap.Error(err))
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	e.bus.EmitToConn(req.ConnID, e.restoreEvent(req), map[string]interface{}{
		"type":    SnapshotLobby,
		"code":    row.Code,
		"game_id": row.ID,
		"status":  models.GameStatusLobby,
		"players": names,
	})
	e.markRestored(req.ConnID)
}

func (e *Engine) restoreEvent(req RestoreRequest) string {
	if req.IsHost {
		return EventHostRestored
	}
	return EventPlayerRestored
}

func (e *Engine) isRestored(connID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restored[connID]
}

func (e *Engine) markRestored(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restored[connID] = true
}

func (e *Engine) clearRestored(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.restored, connID)
}
