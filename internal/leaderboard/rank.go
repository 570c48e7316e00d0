package leaderboard

import "sort"

// Rank orders players by wager, highest first, and reassigns dense 1-based
// ranks in that order. The sort is stable, so equal wagers keep their
// relative order from the normalized input. Running Rank on its own output
// is a no-op.
func Rank(players []Player) []Player {
	ranked := make([]Player, len(players))
	copy(ranked, players)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Wager > ranked[j].Wager
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
