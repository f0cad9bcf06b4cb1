package game

import "testing"

func fixedSettings() Settings {
	return Settings{StreakBonus: false, PointCalculation: PointsFixed}
}

func TestScoreBasePoints(t *testing.T) {
	if got := Score(100, 0, 5, 30, fixedSettings()); got != 100 {
		t.Fatalf("Score = %d, want 100", got)
	}
}

func TestScoreLateAnswerIsZero(t *testing.T) {
	s := Settings{StreakBonus: true, PointCalculation: PointsTimeBonus}
	if got := Score(100, 5, 31, 30, s); got != 0 {
		t.Fatalf("late answer scored %d, want 0", got)
	}
}

func TestScoreStreakBonus(t *testing.T) {
	s := Settings{StreakBonus: true, PointCalculation: PointsFixed}
	cases := []struct {
		streak int
		want   int
	}{
		{0, 100},  // no streak, no bonus
		{1, 125},  // log2(2)/4 = 0.25
		{3, 150},  // log2(4)/4 = 0.50
		{15, 160}, // log2(16)/4 = 1.0, capped at 0.6
		{100, 160},
	}
	for _, c := range cases {
		if got := Score(100, c.streak, 10, 30, s); got != c.want {
			t.Errorf("Score(streak=%d) = %d, want %d", c.streak, got, c.want)
		}
	}
}

func TestScoreTimeBonus(t *testing.T) {
	s := Settings{StreakBonus: false, PointCalculation: PointsTimeBonus}

	// 20 seconds saved at 1% of base per second.
	if got := Score(100, 0, 10, 30, s); got != 120 {
		t.Fatalf("Score = %d, want 120", got)
	}
	// Bonus caps at half the base points.
	if got := Score(100, 0, 0, 100, s); got != 150 {
		t.Fatalf("capped Score = %d, want 150", got)
	}
	// Answering exactly at the deadline earns no bonus.
	if got := Score(100, 0, 30, 30, s); got != 100 {
		t.Fatalf("deadline Score = %d, want 100", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := DefaultSettings()
	a := Score(350, 4, 7.25, 30, s)
	for i := 0; i < 100; i++ {
		if b := Score(350, 4, 7.25, 30, s); b != a {
			t.Fatalf("Score varied across calls: %d then %d", a, b)
		}
	}
}
