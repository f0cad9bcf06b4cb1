package game

import (
	"time"

	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
)

// Flow modes control how a session moves out of the results phase.
const (
	FlowModeAuto   = "auto"
	FlowModeManual = "manual"
	FlowModeHybrid = "hybrid"
)

const (
	PointsFixed     = "fixed"
	PointsTimeBonus = "time-bonus"
)

// Settings holds the scoring and flow configuration for one session.
type Settings struct {
	FlowMode         string `json:"flow_mode"`
	StreakBonus      bool   `json:"streak_bonus"`
	PointCalculation string `json:"point_calculation"`
	ShowExplanations bool   `json:"show_explanations"`
	ExplanationTime  int    `json:"explanation_time"`
}

// DefaultSettings mirrors the host-facing defaults.
func DefaultSettings() Settings {
	return Settings{
		FlowMode:         FlowModeAuto,
		StreakBonus:      true,
		PointCalculation: PointsTimeBonus,
		ShowExplanations: true,
		ExplanationTime:  10,
	}
}

// Question is the engine-local view of a question, flattened from the
// durable models so the hot path never touches gorm.
type Question struct {
	ID          uint     `json:"id"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	TimeLimit   int      `json:"time_limit"`
	Points      int      `json:"points"`
	Explanation string   `json:"explanation,omitempty"`
}

// Player is the live, in-memory record for one participant. The map key
// in Session.Players is the transient connection id; Token (and Name as
// a fallback) is the stable identity that survives reconnects.
type Player struct {
	Name      string
	Token     string
	DBID      uint
	Score     int
	Streak    int
	Connected bool
	seq       int
}

// SubmittedAnswer is one arrival-ordered answer for the active question.
type SubmittedAnswer struct {
	ConnID     string
	PlayerName string
	QuestionID uint
	Option     int
	Correct    bool
	Points     int
	TimeTaken  float64
	At         time.Time
}

// transitionState is the per-session transition lock. It replaces the
// pair of ad hoc booleans (question-in-progress, ending) with a single
// tri-state checked and set inside Registry.Update.
type transitionState int

const (
	transitionIdle transitionState = iota
	transitionAdvancing
	transitionEnding
)

// Session is one in-memory game instance. All fields are owned by the
// Registry's per-code lock; timer callbacks re-enter through Update and
// never mutate a session directly.
type Session struct {
	Code          string
	GameID        uint
	HostID        uint
	HostKey       string
	HostConnID    string
	QuestionSetID uint
	Questions     []Question
	Settings      Settings

	Status       string
	CurrentIndex int

	Players        map[string]*Player
	CurrentAnswers []SubmittedAnswer

	QuestionStarted  time.Time
	QuestionDeadline time.Time
	LastActivity     time.Time

	transition transitionState
	nextSeq    int

	questionTimer *time.Timer
	advanceTimer  *time.Timer
	tickStop      chan struct{}
}

func (s *Session) touch() {
	s.LastActivity = time.Now()
}

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool {
	return s.Status == models.GameStatusFinished
}

// InProgress reports whether a question cycle is running.
func (s *Session) InProgress() bool {
	return s.Status == models.GameStatusQuestionActive || s.Status == models.GameStatusShowingResults
}

// CurrentQuestion returns the active question, or nil when the index is
// out of range (before start or past the last question).
func (s *Session) CurrentQuestion() *Question {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

func (s *Session) connectedPlayers() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (s *Session) hasAnswered(connID string) bool {
	for _, a := range s.CurrentAnswers {
		if a.ConnID == connID {
			return true
		}
	}
	return false
}

func (s *Session) findByToken(token string) (string, *Player) {
	if token == "" {
		return "", nil
	}
	for connID, p := range s.Players {
		if p.Token == token {
			return connID, p
		}
	}
	return "", nil
}

func (s *Session) findByName(name string) (string, *Player) {
	if name == "" {
		return "", nil
	}
	for connID, p := range s.Players {
		if p.Name == name {
			return connID, p
		}
	}
	return "", nil
}

// PlayersInOrder returns players in join order, so ranking stays
// deterministic for exact score ties.
func (s *Session) PlayersInOrder() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].seq > out[j].seq; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// armQuestionTimer schedules the hard deadline for the active question.
// Any previously armed timer of either kind is cleared first so a stale
// callback can never fire alongside a fresh one.
func (s *Session) armQuestionTimer(d time.Duration, fn func()) {
	s.clearTimers()
	s.questionTimer = time.AfterFunc(d, fn)
}

// armAdvanceTimer schedules the results/explanation auto-advance.
func (s *Session) armAdvanceTimer(d time.Duration, fn func()) {
	s.clearTimers()
	s.advanceTimer = time.AfterFunc(d, fn)
}

func (s *Session) clearTimers() {
	if s.questionTimer != nil {
		s.questionTimer.Stop()
		s.questionTimer = nil
	}
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
}

// QuestionsFromSet flattens a durable question set into engine questions,
// ordered by OrderNum with options in display order.
func QuestionsFromSet(set *models.QuestionSet) []Question {
	qs := append([]models.Question(nil), set.Questions...)
	for i := 1; i < len(qs); i++ {
		for j := i; j > 0 && qs[j-1].OrderNum > qs[j].OrderNum; j-- {
			qs[j-1], qs[j] = qs[j], qs[j-1]
		}
	}

	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		opts := append([]models.Option(nil), q.Options...)
		for i := 1; i < len(opts); i++ {
			for j := i; j > 0 && opts[j-1].OrderNum > opts[j].OrderNum; j-- {
				opts[j-1], opts[j] = opts[j], opts[j-1]
			}
		}

		eq := Question{
			ID:          q.ID,
			Text:        q.Text,
			Correct:     -1,
			TimeLimit:   q.TimeLimit,
			Points:      q.Points,
			Explanation: q.Explanation,
		}
		for i, o := range opts {
			eq.Options = append(eq.Options, o.Text)
			if o.IsCorrect && eq.Correct < 0 {
				eq.Correct = i
			}
		}
		out = append(out, eq)
	}
	return out
}
