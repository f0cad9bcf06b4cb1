package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
)

// Engine drives every active session: it owns the question flow state
// machine, scoring, reconnection, and finalization. All session
// mutations run inside Registry.Update; durable writes and broadcasts
// happen after the in-memory transition commits, so a slow store call
// never stalls game flow.
type Engine struct {
	registry *Registry
	store    Store
	bus      Broadcaster
	logger   *zap.Logger

	// settleDelay is how long the transition guard stays held after an
	// advance, absorbing the duplicate trigger when a timer fires at
	// the same instant as a host command.
	settleDelay time.Duration

	mu       sync.Mutex
	restored map[string]bool
}

func NewEngine(registry *Registry, store Store, bus Broadcaster, logger *zap.Logger) *Engine {
	return &Engine{
		registry:    registry,
		store:       store,
		bus:         bus,
		logger:      logger,
		settleDelay: time.Second,
		restored:    make(map[string]bool),
	}
}

// Registry exposes the session registry for read-only surfaces (HTTP
// state endpoint, idle sweeper).
func (e *Engine) Registry() *Registry {
	return e.registry
}

// CreatedGame is what the host gets back from CreateSession. HostKey is
// the host's stable identity for the websocket side.
type CreatedGame struct {
	Code    string `json:"code"`
	GameID  uint   `json:"game_id"`
	HostKey string `json:"host_key"`
}

// CreateSession materializes a question set into a live lobby. The
// durable game row is created up front so reconnection can fall back to
// it; everything after this point treats the store as best-effort.
func (e *Engine) CreateSession(hostID uint, set *models.QuestionSet, settings Settings) (*CreatedGame, error) {
	questions := QuestionsFromSet(set)
	if len(questions) == 0 {
		return nil, errors.New("question set has no questions")
	}
	if settings.FlowMode == "" {
		settings = DefaultSettings()
	}

	row := &models.Game{
		QuestionSetID:   set.ID,
		HostID:          hostID,
		Status:          models.GameStatusLobby,
		CurrentQuestion: -1,
	}

	code := e.generateCode()
	row.Code = code
	if err := e.store.CreateGame(row); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	sess := &Session{
		Code:          code,
		GameID:        row.ID,
		HostID:        hostID,
		HostKey:       uuid.New().String(),
		QuestionSetID: set.ID,
		Questions:     questions,
		Settings:      settings,
		Status:        models.GameStatusLobby,
		CurrentIndex:  -1,
		Players:       make(map[string]*Player),
		LastActivity:  time.Now(),
	}
	e.registry.Put(sess)

	e.logger.Info("session created",
		zap.String("code", code),
		zap.Uint("game_id", row.ID),
		zap.Int("questions", len(questions)))

	return &CreatedGame{Code: code, GameID: row.ID, HostKey: sess.HostKey}, nil
}

// generateCode picks a 6-digit code unique among active sessions.
// Collisions with already-finished games are fine; codes are only keys
// while a session is resident.
func (e *Engine) generateCode() string {
	for {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		if !e.registry.Has(code) {
			return code
		}
	}
}

// BindHost attaches a host connection to its session, authenticated by
// the host key returned at creation.
func (e *Engine) BindHost(code, hostKey, connID string) error {
	var err error
	ok := e.registry.Update(code, func(s *Session) {
		if s.HostKey != hostKey {
			err = errors.New("host key mismatch")
			return
		}
		s.HostConnID = connID
		s.touch()
	})
	if !ok {
		return errors.New("game not found")
	}
	if err == nil {
		e.bus.JoinRoom(code, connID)
	}
	return err
}

// JoinedPlayer is the acknowledgement for a join: the token is the
// client-persisted stable identity used for reconnection.
type JoinedPlayer struct {
	Name   string `json:"name"`
	Token  string `json:"token"`
	Code   string `json:"code"`
	GameID uint   `json:"game_id"`
}

// Join adds a player to a lobby, or rebinds them when their token (or,
// as a fallback, their name) already has a record in the session.
func (e *Engine) Join(code, name, token, connID string) (*JoinedPlayer, error) {
	var (
		joined  *JoinedPlayer
		dbRow   *models.GamePlayer
		players []string
		err     error
	)
	ok := e.registry.Update(code, func(s *Session) {
		if s.Finished() {
			err = errors.New("game already finished")
			return
		}

		oldConn, existing := s.findByToken(token)
		if existing == nil && token == "" {
			oldConn, existing = s.findByName(name)
		}
		if existing != nil {
			delete(s.Players, oldConn)
			existing.Connected = true
			s.Players[connID] = existing
			joined = &JoinedPlayer{Name: existing.Name, Token: existing.Token, Code: s.Code, GameID: s.GameID}
		} else {
			if s.Status != models.GameStatusLobby {
				err = errors.New("game already in progress")
				return
			}
			if _, clash := s.findByName(name); clash != nil {
				err = errors.New("name already taken")
				return
			}
			p := &Player{
				Name:      name,
				Token:     uuid.New().String(),
				Connected: true,
				seq:       s.nextSeq,
			}
			s.nextSeq++
			s.Players[connID] = p
			joined = &JoinedPlayer{Name: p.Name, Token: p.Token, Code: s.Code, GameID: s.GameID}
			dbRow = &models.GamePlayer{GameID: s.GameID, Name: p.Name, Token: p.Token, JoinedAt: time.Now()}
		}

		for _, p := range s.PlayersInOrder() {
			if p.Connected {
				players = append(players, p.Name)
			}
		}
		s.touch()
	})
	if !ok {
		return nil, errors.New("game not found")
	}
	if err != nil {
		return nil, err
	}

	e.bus.JoinRoom(code, connID)
	e.bus.EmitToRoom(code, EventPlayerJoined, map[string]interface{}{
		"name":    joined.Name,
		"players": players,
	})

	if dbRow != nil {
		go func() {
			if err := e.store.AddPlayer(dbRow); err != nil {
				e.logger.Warn("persist player failed", zap.String("code", code), zap.Error(err))
				return
			}
			e.registry.Update(code, func(s *Session) {
				if _, p := s.findByToken(dbRow.Token); p != nil {
					p.DBID = dbRow.ID
				}
			})
		}()
	}
	return joined, nil
}

// StartGame moves a lobby into its first question. Only the host
// connection may start; the advance itself rides the same transition
// guard as every other question advance.
func (e *Engine) StartGame(code, connID string) {
	start := false
	var gameID uint
	e.registry.Update(code, func(s *Session) {
		if s.Status != models.GameStatusLobby || connID != s.HostConnID {
			return
		}
		start = true
		gameID = s.GameID
		s.touch()
	})
	if !start {
		return
	}

	now := time.Now()
	go func() {
		err := e.store.UpdateGameStatus(gameID, models.GameStatusQuestionActive, map[string]interface{}{
			"started_at": &now,
		})
		if err != nil {
			e.logger.Warn("persist start failed", zap.String("code", code), zap.Error(err))
		}
	}()

	e.logger.Info("game started", zap.String("code", code))
	e.ProceedToNextQuestion(code)
}

// ProceedToNextQuestion advances the session by exactly one question.
// The tri-state transition lock drops duplicate triggers (a reveal
// timer firing at the same instant as a host command); the guard is
// released after a short settle delay.
func (e *Engine) ProceedToNextQuestion(code string) {
	var fx []emit
	finish := false
	advanced := false
	e.registry.Update(code, func(s *Session) {
		if s.transition != transitionIdle || s.Finished() {
			return
		}
		s.transition = transitionAdvancing
		advanced = true

		s.clearTimers()
		s.CurrentIndex++
		s.touch()
		if s.CurrentIndex >= len(s.Questions) {
			finish = true
			return
		}
		fx = e.sendNextLocked(s)
	})
	e.flush(fx)

	if finish {
		e.EndGame(code)
		return
	}
	if advanced {
		e.persistProgress(code)
		time.AfterFunc(e.settleDelay, func() {
			e.registry.Update(code, func(s *Session) {
				if s.transition == transitionAdvancing {
					s.transition = transitionIdle
				}
			})
		})
	}
}

// SendNextQuestion re-broadcasts the current question without touching
// the index. A missing session is a silent no-op; past the last
// question it delegates to the finalizer.
func (e *Engine) SendNextQuestion(code string) {
	var fx []emit
	finish := false
	e.registry.Update(code, func(s *Session) {
		if s.Finished() {
			return
		}
		if s.CurrentIndex >= len(s.Questions) {
			finish = true
			return
		}
		fx = e.sendNextLocked(s)
	})
	e.flush(fx)
	if finish {
		e.EndGame(code)
	}
}

// sendNextLocked arms the question phase. Caller holds the session
// lock and has already positioned CurrentIndex.
func (e *Engine) sendNextLocked(s *Session) []emit {
	q := s.CurrentQuestion()
	if q == nil {
		return nil
	}

	s.CurrentAnswers = nil
	s.Status = models.GameStatusQuestionActive
	s.QuestionStarted = time.Now()
	s.QuestionDeadline = s.QuestionStarted.Add(time.Duration(q.TimeLimit) * time.Second)

	code := s.Code
	idx := s.CurrentIndex
	s.armQuestionTimer(time.Duration(q.TimeLimit)*time.Second, func() {
		e.onQuestionExpired(code, idx)
	})

	stop := make(chan struct{})
	s.tickStop = stop
	go e.runCountdown(code, s.QuestionDeadline, stop)

	public := map[string]interface{}{
		"index":      idx,
		"total":      len(s.Questions),
		"id":         q.ID,
		"text":       q.Text,
		"options":    q.Options,
		"time_limit": q.TimeLimit,
	}
	fx := []emit{roomEmit(code, EventQuestion, public)}
	if s.HostConnID != "" {
		fx = append(fx, connEmit(s.HostConnID, EventHostQuestion, map[string]interface{}{
			"index":   idx,
			"id":      q.ID,
			"correct": q.Correct,
		}))
	}
	return fx
}

// runCountdown emits remaining-time telemetry at 1 Hz. It is telemetry
// only: question expiry is the hard deadline armed in sendNextLocked.
func (e *Engine) runCountdown(code string, deadline time.Time, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining := int(time.Until(deadline).Seconds())
			if remaining < 0 {
				return
			}
			e.bus.EmitToRoom(code, EventTimer, map[string]int{"remaining": remaining})
		}
	}
}

// onQuestionExpired is the hard-deadline callback. The index check
// drops stale firings from a question that already advanced.
func (e *Engine) onQuestionExpired(code string, idx int) {
	var fx []emit
	e.registry.Update(code, func(s *Session) {
		if s.Status != models.GameStatusQuestionActive || s.CurrentIndex != idx {
			return
		}
		fx = e.showResultsLocked(s)
	})
	e.flush(fx)
}

// SubmitAnswer records a player's answer for the active question,
// scoring it immediately. Malformed submissions (wrong question, no
// active question, duplicate, unknown player) are rejected with no
// state change.
func (e *Engine) SubmitAnswer(code, connID string, questionID uint, option int) {
	var fx []emit
	e.registry.Update(code, func(s *Session) {
		if s.Status != models.GameStatusQuestionActive {
			return
		}
		q := s.CurrentQuestion()
		if q == nil || q.ID != questionID {
			return
		}
		p, ok := s.Players[connID]
		if !ok || s.hasAnswered(connID) {
			return
		}
		if option < 0 || option >= len(q.Options) {
			return
		}

		now := time.Now()
		timeTaken := now.Sub(s.QuestionStarted).Seconds()
		correct := option == q.Correct
		late := timeTaken > float64(q.TimeLimit)

		points := 0
		if correct {
			// A correct answer racing the deadline timer scores zero
			// and must not extend the streak either.
			if !late {
				p.Streak++
			}
			points = Score(q.Points, p.Streak, timeTaken, float64(q.TimeLimit), s.Settings)
		} else {
			p.Streak = 0
		}
		p.Score += points

		s.CurrentAnswers = append(s.CurrentAnswers, SubmittedAnswer{
			ConnID:     connID,
			PlayerName: p.Name,
			QuestionID: q.ID,
			Option:     option,
			Correct:    correct,
			Points:     points,
			TimeTaken:  timeTaken,
			At:         now,
		})
		s.touch()

		answered := len(s.CurrentAnswers)
		total := s.connectedPlayers()
		fx = append(fx, roomEmit(code, EventAnswerReceived, map[string]int{
			"answered": answered,
			"players":  total,
		}))

		row := &models.Answer{
			GameID:      s.GameID,
			PlayerID:    p.DBID,
			QuestionID:  q.ID,
			OptionIndex: option,
			IsCorrect:   correct,
			Points:      points,
			TimeTaken:   timeTaken,
			AnsweredAt:  now,
		}
		go func() {
			if err := e.store.RecordAnswer(row); err != nil {
				e.logger.Warn("persist answer failed", zap.String("code", code), zap.Error(err))
			}
		}()

		// Everyone in? No reason to wait out the clock.
		if answered >= total && total > 0 {
			fx = append(fx, e.showResultsLocked(s)...)
		}
	})
	e.flush(fx)
}

// showResultsLocked closes the question phase: computes per-option
// stats and standings once from CurrentAnswers, broadcasts the reveal,
// and arms (or not) the auto-advance depending on flow mode. Caller
// holds the session lock.
func (e *Engine) showResultsLocked(s *Session) []emit {
	q := s.CurrentQuestion()
	if q == nil {
		return nil
	}

	s.clearTimers()
	s.Status = models.GameStatusShowingResults
	s.touch()

	counts := make([]int, len(q.Options))
	correctCount := 0
	for _, a := range s.CurrentAnswers {
		if a.Option >= 0 && a.Option < len(counts) {
			counts[a.Option]++
		}
		if a.Correct {
			correctCount++
		}
	}
	correctPct := 0
	if len(s.CurrentAnswers) > 0 {
		correctPct = correctCount * 100 / len(s.CurrentAnswers)
	}

	standings := Rank(s.PlayersInOrder())
	hasExplanation := s.Settings.ShowExplanations && q.Explanation != ""

	payload := map[string]interface{}{
		"index":           s.CurrentIndex,
		"question_id":     q.ID,
		"correct":         q.Correct,
		"option_counts":   counts,
		"correct_percent": correctPct,
		"standings":       standings,
		"display_time":    s.Settings.ExplanationTime,
	}

	event := EventShowLeaderboard
	if hasExplanation {
		event = EventShowExplanation
		payload["explanation"] = q.Explanation
	}
	fx := []emit{roomEmit(s.Code, event, payload)}

	// auto: always advance on the timer. manual: always wait for the
	// host. hybrid: advance automatically unless an explanation screen
	// is up, then wait for the host to leave it.
	auto := s.Settings.FlowMode == FlowModeAuto ||
		(s.Settings.FlowMode == FlowModeHybrid && !hasExplanation)
	if auto {
		code := s.Code
		d := time.Duration(s.Settings.ExplanationTime) * time.Second
		if d <= 0 {
			d = 5 * time.Second
		}
		s.armAdvanceTimer(d, func() {
			e.ProceedToNextQuestion(code)
		})
	}
	return fx
}

// HostNext handles the host's "next" command: it starts a lobby, or
// advances out of the results phase. Anywhere else it is dropped.
func (e *Engine) HostNext(code, connID string) {
	action := ""
	e.registry.Update(code, func(s *Session) {
		if connID != s.HostConnID {
			return
		}
		switch s.Status {
		case models.GameStatusLobby:
			action = "start"
		case models.GameStatusShowingResults:
			action = "advance"
		}
	})
	switch action {
	case "start":
		e.StartGame(code, connID)
	case "advance":
		e.ProceedToNextQuestion(code)
	}
}

// HandleDisconnect marks the dropped connection's player disconnected.
// Player records are never deleted, so score and streak survive a
// reconnect. The per-connection restore flag is released so a fresh
// connection can restore later.
func (e *Engine) HandleDisconnect(code, connID string) {
	e.clearRestored(connID)

	var fx []emit
	e.registry.Update(code, func(s *Session) {
		if s.HostConnID == connID {
			s.HostConnID = ""
			return
		}
		p, ok := s.Players[connID]
		if !ok || !p.Connected {
			return
		}
		p.Connected = false
		fx = append(fx, roomEmit(code, EventPlayerDisconnected, map[string]string{"name": p.Name}))
	})
	e.flush(fx)
	e.bus.LeaveRoom(code, connID)
}

// persistProgress mirrors the in-memory index/status to the durable
// row, best-effort.
func (e *Engine) persistProgress(code string) {
	var (
		gameID uint
		status string
		index  int
	)
	ok := e.registry.View(code, func(s *Session) {
		gameID, status, index = s.GameID, s.Status, s.CurrentIndex
	})
	if !ok || gameID == 0 {
		return
	}
	go func() {
		err := e.store.UpdateGameStatus(gameID, status, map[string]interface{}{
			"current_question": index,
		})
		if err != nil {
			e.logger.Warn("persist progress failed", zap.String("code", code), zap.Error(err))
		}
	}()
}
