package affiliate

import (
	"context"
	"time"
)

// Entry is one row of the raw affiliate feed. The payload is untrusted:
// usernames can be missing and wagered_amount shows up as either a JSON
// string or a number, so it is kept loose here and validated by the
// leaderboard normalizer.
type Entry struct {
	Username      string `json:"username"`
	WageredAmount any    `json:"wagered_amount"`
}

type FeedPayload struct {
	Affiliates []Entry `json:"affiliates"`
}

// Feed is the read side of the affiliate-tracking API.
type Feed interface {
	FetchRange(ctx context.Context, start, end time.Time) (*FeedPayload, error)
}
