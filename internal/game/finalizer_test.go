package game

import (
	"sync"
	"testing"
	"time"

	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
)

func TestEndGameFinalizesExactlyOnce(t *testing.T) {
	e, bus, st := newTestEngine(t)
	s := putSession(t, e, "161616", testQuestions(2), DefaultSettings())
	addPlayer(s, "conn-1", "ayumi", 250, 2).DBID = 11
	addPlayer(s, "conn-2", "kenji", 180, 0).DBID = 12
	s.Status = models.GameStatusShowingResults
	s.CurrentIndex = 1

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.EndGame("161616")
		}()
	}
	wg.Wait()

	if got := bus.count(EventGameOver); got != 1 {
		t.Fatalf("game_over events = %d, want 1", got)
	}
	if got := st.resultCount(); got != 2 {
		t.Fatalf("persisted results = %d, want 2", got)
	}
	if got := st.playCount(7); got != 1 {
		t.Fatalf("play count increments = %d, want 1", got)
	}

	status, _ := sessionStatus(t, e, "161616")
	if status != models.GameStatusFinished {
		t.Fatalf("status = %s, want finished", status)
	}

	// A repeat after the guard released must still be dropped: the
	// terminal status is the second line of defense.
	time.Sleep(50 * time.Millisecond)
	e.EndGame("161616")
	if got := bus.count(EventGameOver); got != 1 {
		t.Fatalf("game_over events after repeat = %d, want 1", got)
	}
}

func TestEndGameRecordsRankedResults(t *testing.T) {
	e, bus, st := newTestEngine(t)
	s := putSession(t, e, "171717", testQuestions(1), DefaultSettings())
	addPlayer(s, "conn-1", "ayumi", 300, 3)
	addPlayer(s, "conn-2", "kenji", 300, 1)
	addPlayer(s, "conn-3", "rin", 100, 0)
	s.Status = models.GameStatusShowingResults
	s.CurrentIndex = 0

	e.EndGame("171717")

	ev, ok := bus.last(EventGameOver)
	if !ok {
		t.Fatal("no game_over event")
	}
	standings := ev.Payload.(map[string]interface{})["standings"].([]Standing)
	want := []struct {
		name string
		rank int
	}{{"ayumi", 1}, {"kenji", 1}, {"rin", 3}}
	for i, w := range want {
		if standings[i].Name != w.name || standings[i].Rank != w.rank {
			t.Errorf("standing[%d] = %s/%d, want %s/%d",
				i, standings[i].Name, standings[i].Rank, w.name, w.rank)
		}
	}

	results, _ := st.ResultsForGame(1)
	if len(results) != 3 {
		t.Fatalf("persisted results = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Name == "rin" && r.Rank != 3 {
			t.Errorf("rin persisted rank = %d, want 3", r.Rank)
		}
	}
}

func TestLastQuestionAdvanceFinalizes(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	settings := DefaultSettings()
	settings.FlowMode = FlowModeManual
	s := putSession(t, e, "181818", testQuestions(1), settings)
	s.HostConnID = "host-conn"
	addPlayer(s, "conn-1", "ayumi", 0, 0)
	s.Status = models.GameStatusShowingResults
	s.CurrentIndex = 0

	e.HostNext("181818", "host-conn")

	status, _ := sessionStatus(t, e, "181818")
	if status != models.GameStatusFinished {
		t.Fatalf("status = %s after advancing past last question, want finished", status)
	}
	if got := bus.count(EventGameOver); got != 1 {
		t.Fatalf("game_over events = %d, want 1", got)
	}
	if got := bus.count(EventQuestion); got != 0 {
		t.Fatalf("question events = %d, want 0", got)
	}
}

func TestHostEndGameRequiresHostConnection(t *testing.T) {
	e, bus, _ := newTestEngine(t)
	s := putSession(t, e, "191919", testQuestions(2), DefaultSettings())
	s.HostConnID = "host-conn"
	s.Status = models.GameStatusQuestionActive
	s.CurrentIndex = 0
	addPlayer(s, "conn-1", "ayumi", 0, 0)

	e.HostEndGame("191919", "conn-1")
	if got := bus.count(EventGameOver); got != 0 {
		t.Fatal("non-host ended the game")
	}

	e.HostEndGame("191919", "host-conn")
	if got := bus.count(EventGameOver); got != 1 {
		t.Fatalf("game_over events = %d, want 1", got)
	}
}
