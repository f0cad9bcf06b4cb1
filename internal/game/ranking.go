package game

import "sort"

// Standing is one row of a ranked leaderboard.
type Standing struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
	Rank   int    `json:"rank"`
}

// Rank sorts players by score descending and assigns competition
// ranks: tied scores share the rank of the best-placed member of the
// tie group, and the next distinct score skips past the group (1,1,3 —
// never 1,1,2). The sort is stable, so players tied on score keep
// their input order.
func Rank(players []*Player) []Standing {
	ordered := append([]*Player(nil), players...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	out := make([]Standing, len(ordered))
	for i, p := range ordered {
		rank := i + 1
		if i > 0 && ordered[i-1].Score == p.Score {
			rank = out[i-1].Rank
		}
		out[i] = Standing{Name: p.Name, Score: p.Score, Streak: p.Streak, Rank: rank}
	}
	return out
}
