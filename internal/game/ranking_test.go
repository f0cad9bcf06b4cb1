package game

import "testing"

func TestRankCompetitionTies(t *testing.T) {
	players := []*Player{
		{Name: "ayumi", Score: 50},
		{Name: "kenji", Score: 50},
		{Name: "rin", Score: 30},
	}

	got := Rank(players)
	want := []Standing{
		{Name: "ayumi", Score: 50, Rank: 1},
		{Name: "kenji", Score: 50, Rank: 1},
		{Name: "rin", Score: 30, Rank: 3},
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Rank != want[i].Rank {
			t.Errorf("standing[%d] = %s/%d, want %s/%d",
				i, got[i].Name, got[i].Rank, want[i].Name, want[i].Rank)
		}
	}
}

func TestRankStableWithinTies(t *testing.T) {
	players := []*Player{
		{Name: "first", Score: 10},
		{Name: "second", Score: 10},
		{Name: "third", Score: 10},
	}

	got := Rank(players)
	for i, name := range []string{"first", "second", "third"} {
		if got[i].Name != name {
			t.Fatalf("tie order not stable: position %d is %s", i, got[i].Name)
		}
		if got[i].Rank != 1 {
			t.Fatalf("%s rank = %d, want 1", got[i].Name, got[i].Rank)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	players := []*Player{
		{Name: "low", Score: 1},
		{Name: "high", Score: 9},
	}
	Rank(players)
	if players[0].Name != "low" {
		t.Fatal("Rank reordered the caller's slice")
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Fatalf("Rank(nil) returned %d standings", len(got))
	}
}
