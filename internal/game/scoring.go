package game

import "math"

const (
	streakBonusCap  = 0.6
	timeBonusCap    = 0.5
	timeBonusPerSec = 0.01
)

// Score computes the points awarded for one correct answer. It is pure:
// identical inputs always produce the same integer, which lets the
// result persistence path recompute totals without drift.
//
// Correctness is the caller's check; a late answer (timeTaken past the
// limit) scores zero regardless of any bonus settings.
func Score(basePoints, streak int, timeTaken, timeLimit float64, settings Settings) int {
	if timeTaken > timeLimit {
		return 0
	}

	total := float64(basePoints)

	if settings.StreakBonus && streak > 0 {
		frac := math.Log2(float64(streak)+1) / 4
		if frac > streakBonusCap {
			frac = streakBonusCap
		}
		total += math.Floor(float64(basePoints) * frac)
	}

	if settings.PointCalculation == PointsTimeBonus {
		saved := timeLimit - timeTaken
		if saved < 0 {
			saved = 0
		}
		bonus := float64(basePoints) * timeBonusPerSec * saved
		if ceil := float64(basePoints) * timeBonusCap; bonus > ceil {
			bonus = ceil
		}
		total += math.Floor(bonus)
	}

	if total < 0 {
		return 0
	}
	return int(math.Floor(total))
}
