package leaderboard

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"likethacheeseAPI/internal/affiliate"
)

// Normalize converts the untrusted affiliate payload into clean players.
// Entries without a username are dropped; a wager that cannot be parsed
// normalizes to 0 but the player is kept. Ranks are not meaningful yet, Rank
// assigns them. A payload with no usable list yields zero players and a log
// line rather than an error, matching how the site treats a broken feed.
func Normalize(payload *affiliate.FeedPayload, featuredMarker string) []Player {
	if payload == nil || payload.Affiliates == nil {
		log.Println("affiliate feed missing affiliates list, treating as empty")
		return []Player{}
	}

	players := make([]Player, 0, len(payload.Affiliates))
	seen := make(map[string]bool, len(payload.Affiliates))
	for _, entry := range payload.Affiliates {
		if entry.Username == "" {
			continue
		}
		// first occurrence wins when the feed repeats a username
		if seen[entry.Username] {
			continue
		}
		seen[entry.Username] = true
		players = append(players, Player{
			Username:   entry.Username,
			Wager:      parseWager(entry.WageredAmount),
			IsFeatured: isFeatured(entry.Username, featuredMarker),
		})
	}
	return players
}

// parseWager accepts the feed's wagered_amount in whatever shape it arrives:
// JSON number, numeric string, or absent. Anything unparseable is 0.
func parseWager(v any) float64 {
	switch amount := v.(type) {
	case float64:
		return nonNegative(amount)
	case string:
		f, err := strconv.ParseFloat(amount, 64)
		if err != nil {
			return 0
		}
		return nonNegative(f)
	case json.Number:
		f, err := amount.Float64()
		if err != nil {
			return 0
		}
		return nonNegative(f)
	}
	return 0
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func isFeatured(username, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(username), strings.ToLower(marker))
}
