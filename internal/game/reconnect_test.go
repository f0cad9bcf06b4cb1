package game

import (
	"testing"
	"time"

	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
)

func TestRestorePlayerByToken(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	s := putSession(t, e, "212121", testQuestions(2), DefaultSettings())
	p := addPlayer(s, "old-conn", "ayumi", 250, 4)
	p.Connected = false
	s.Status = models.GameStatusQuestionActive
	s.CurrentIndex = 1
	s.QuestionStarted = time.Now()
	s.QuestionDeadline = s.QuestionStarted.Add(45 * time.Second)

	e.RestoreSession(RestoreRequest{
		ConnID:   "new-conn",
		Token:    "tok-ayumi",
		GameCode: "212121",
	})

	ev, ok := bus.last(EventPlayerRestored)
	if !ok {
		t.Fatal("no playerSessionRestored event")
	}
	if ev.Conn != "new-conn" {
		t.Fatalf("restore sent to %q, want new connection", ev.Conn)
	}

	snap := ev.Payload.(map[string]interface{})
	if snap["type"] != SnapshotActiveGame {
		t.Fatalf("snapshot type = %v, want %s", snap["type"], SnapshotActiveGame)
	}
	you := snap["you"].(map[string]interface{})
	if you["score"] != 250 || you["streak"] != 4 {
		t.Fatalf("restored score/streak = %v/%v, want 250/4", you["score"], you["streak"])
	}
	q := snap["question"].(map[string]interface{})
	if _, leaked := q["correct"]; leaked {
		t.Fatal("restore snapshot leaks the correct answer")
	}

	e.registry.View("212121", func(s *Session) {
		if _, stale := s.Players["old-conn"]; stale {
			t.Error("stale connection id still mapped")
		}
		np := s.Players["new-conn"]
		if np == nil {
			t.Fatal("player not rebound to new connection")
		}
		if np.Score != 250 || np.Streak != 4 || !np.Connected {
			t.Errorf("rebound player = %+v", np)
		}
	})
}

func TestRestoreByNameFallback(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	s := putSession(t, e, "232323", testQuestions(1), DefaultSettings())
	addPlayer(s, "old-conn", "kenji", 80, 1).Connected = false

	e.RestoreSession(RestoreRequest{ConnID: "new-conn", Name: "kenji", GameCode: "232323"})

	if got := bus.count(EventPlayerRestored); got != 1 {
		t.Fatalf("playerSessionRestored events = %d, want 1", got)
	}
}

func TestRestoreUnknownPlayerExpires(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	putSession(t, e, "242424", testQuestions(1), DefaultSettings())

	e.RestoreSession(RestoreRequest{ConnID: "c1", Token: "no-such-token", GameCode: "242424"})

	if got := bus.count(EventSessionExpired); got != 1 {
		t.Fatalf("sessionExpired events = %d, want 1", got)
	}
	if got := bus.count(EventPlayerRestored); got != 0 {
		t.Fatalf("playerSessionRestored events = %d, want 0", got)
	}
}

func TestRestoreHostRequiresKey(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	putSession(t, e, "252525", testQuestions(1), DefaultSettings())

	e.RestoreSession(RestoreRequest{ConnID: "h1", IsHost: true, Token: "wrong-key", GameCode: "252525"})
	if got := bus.count(EventHostRestored); got != 0 {
		t.Fatal("host restored with a wrong key")
	}

	e.RestoreSession(RestoreRequest{ConnID: "h1", IsHost: true, Token: "host-key", GameCode: "252525"})
	if got := bus.count(EventHostRestored); got != 1 {
		t.Fatalf("hostSessionRestored events = %d, want 1", got)
	}
	e.registry.View("252525", func(s *Session) {
		if s.HostConnID != "h1" {
			t.Errorf("host conn = %q, want h1", s.HostConnID)
		}
	})
}

func TestRestoreIdempotentPerConnection(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	s := putSession(t, e, "262626", testQuestions(1), DefaultSettings())
	addPlayer(s, "old-conn", "ayumi", 50, 1).Connected = false

	req := RestoreRequest{ConnID: "new-conn", Token: "tok-ayumi", GameCode: "262626"}
	e.RestoreSession(req)
	e.RestoreSession(req)

	if got := bus.count(EventPlayerRestored); got != 1 {
		t.Fatalf("playerSessionRestored events = %d, want 1", got)
	}

	// After a disconnect the flag clears and the connection id may
	// restore again.
	e.HandleDisconnect("262626", "new-conn")
	e.RestoreSession(req)
	if got := bus.count(EventPlayerRestored); got != 2 {
		t.Fatalf("playerSessionRestored events after rejoin = %d, want 2", got)
	}
}

func TestRestoreResolvesByGameID(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	s := putSession(t, e, "272727", testQuestions(1), DefaultSettings())
	addPlayer(s, "old-conn", "ayumi", 10, 0).Connected = false

	e.RestoreSession(RestoreRequest{ConnID: "new-conn", Token: "tok-ayumi", GameID: 1})

	if got := bus.count(EventPlayerRestored); got != 1 {
		t.Fatalf("playerSessionRestored events = %d, want 1", got)
	}
}

func TestRestoreFinishedResidentGetsCompletedSnapshot(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	s := putSession(t, e, "292929", testQuestions(1), DefaultSettings())
	addPlayer(s, "old-conn", "ayumi", 420, 2).Connected = false
	s.Status = models.GameStatusFinished
	s.CurrentIndex = 1

	e.RestoreSession(RestoreRequest{ConnID: "new-conn", Token: "tok-ayumi", GameCode: "292929"})

	ev, ok := bus.last(EventPlayerRestored)
	if !ok {
		t.Fatal("no restore event for a finished resident session")
	}
	snap := ev.Payload.(map[string]interface{})
	if snap["type"] != SnapshotCompleted {
		t.Fatalf("snapshot type = %v, want %s", snap["type"], SnapshotCompleted)
	}
	results := snap["results"].([]Standing)
	if len(results) != 1 || results[0].Score != 420 || results[0].Rank != 1 {
		t.Fatalf("results = %+v", results)
	}
	if _, present := snap["question"]; present {
		t.Fatal("completed snapshot carries a live question")
	}
}

func TestRestoreFallsBackToStoreForFinishedGame(t *testing.T) {
	e, bus, st := newTestEngine(t)

	row := &models.Game{Code: "282828", Status: models.GameStatusFinished}
	if err := st.CreateGame(row); err != nil {
		t.Fatal(err)
	}
	st.CreateResult(&models.Result{GameID: row.ID, Name: "ayumi", Score: 420, Rank: 1})

	e.RestoreSession(RestoreRequest{ConnID: "c1", GameCode: "282828"})

	ev, ok := bus.last(EventPlayerRestored)
	if !ok {
		t.Fatal("no restore event for a finished durable game")
	}
	snap := ev.Payload.(map[string]interface{})
	if snap["type"] != SnapshotCompleted {
		t.Fatalf("snapshot type = %v, want %s", snap["type"], SnapshotCompleted)
	}
	results := snap["results"].([]models.Result)
	if len(results) != 1 || results[0].Score != 420 {
		t.Fatalf("results = %+v", results)
	}
}

func TestRestoreUnknownGameExpires(t *testing.T) {
	e, bus, _ := newTestEngine(t)

	e.RestoreSession(RestoreRequest{ConnID: "c1", GameCode: "000000"})

	if got := bus.count(EventSessionExpired); got != 1 {
		t.Fatalf("sessionExpired events = %d, want 1", got)
	}
}
