package leaderboard

import "time"

type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodWeekly  Period = "weekly"
)

// Window is the inclusive date range a leaderboard covers. Both bounds are
// whole-day boundaries in UTC.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartDate returns the window start formatted the way the affiliate API
// expects its start_at/end_at query params.
func (w Window) StartDate() string {
	return w.Start.Format("2006-01-02")
}

func (w Window) EndDate() string {
	return w.End.Format("2006-01-02")
}

// Remaining reports how long until the window closes. Zero once it has ended.
func (w Window) Remaining(now time.Time) time.Duration {
	d := w.End.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type Player struct {
	Rank       int     `json:"rank"`
	Username   string  `json:"username"`
	Wager      float64 `json:"wager"`
	IsFeatured bool    `json:"is_featured"`
	Prize      string  `json:"prize,omitempty"`
}

// Snapshot is one fully ranked leaderboard. It is replaced wholesale on every
// successful fetch and never mutated in place.
type Snapshot struct {
	Period    Period    `json:"period"`
	Window    Window    `json:"window"`
	Players   []Player  `json:"players"`
	FetchedAt time.Time `json:"fetched_at"`
}
