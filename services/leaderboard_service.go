package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"likethacheeseAPI/internal/affiliate"
	"likethacheeseAPI/internal/leaderboard"
)

// Prize money for the top three spots, per period.
var prizeTable = map[leaderboard.Period][]string{
	leaderboard.PeriodMonthly: {"$150", "$75", "$25"},
	leaderboard.PeriodWeekly:  {"$150", "$100", "$50"},
}

// LeaderboardService is the single source of truth for what the leaderboard
// currently shows. It owns the cached snapshot, the active period, and the
// loading/error state; views only ever read through State.
type LeaderboardService struct {
	feed           affiliate.Feed
	featuredMarker string

	mu       sync.Mutex
	period   leaderboard.Period
	snapshot *leaderboard.Snapshot
	inflight int
	lastErr  string
	seq      uint64
}

func NewLeaderboardService(feed affiliate.Feed, featuredMarker string) *LeaderboardService {
	return &LeaderboardService{
		feed:           feed,
		featuredMarker: featuredMarker,
		period:         leaderboard.PeriodMonthly,
	}
}

// SetPeriod switches the active period. It is a pure state change: callers
// decide when to refetch, it never triggers a fetch by itself.
func (s *LeaderboardService) SetPeriod(period leaderboard.Period) error {
	switch period {
	case leaderboard.PeriodMonthly, leaderboard.PeriodWeekly:
	default:
		return leaderboard.ErrInvalidPeriod
	}

	s.mu.Lock()
	s.period = period
	s.mu.Unlock()
	return nil
}

// Fetch pulls the feed for the active period's window, normalizes and ranks
// it, and replaces the cached snapshot wholesale. Safe to call repeatedly and
// concurrently: each call gets a monotonic sequence token and a response that
// is no longer the latest issued is discarded instead of clobbering newer
// data. On failure the previous snapshot stays readable and the error is
// recorded as a user-visible string.
func (s *LeaderboardService) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	token := s.seq
	period := s.period
	s.inflight++
	s.lastErr = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	window, err := leaderboard.ResolveWindow(period, time.Now())
	if err != nil {
		s.recordError(token, period, err)
		return err
	}

	payload, err := s.feed.FetchRange(ctx, window.Start, window.End)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		// a newer fetch was issued while this one was in flight
		leaderboardFetches.WithLabelValues(string(period), "stale").Inc()
		log.Printf("discarding stale leaderboard response for period %s", period)
		return nil
	}

	if err != nil {
		s.lastErr = fetchErrorMessage(err)
		leaderboardFetches.WithLabelValues(string(period), "error").Inc()
		return fmt.Errorf("leaderboard fetch failed: %w", err)
	}

	players := leaderboard.Rank(leaderboard.Normalize(payload, s.featuredMarker))
	annotatePrizes(period, players)

	s.snapshot = &leaderboard.Snapshot{
		Period:    period,
		Window:    window,
		Players:   players,
		FetchedAt: time.Now().UTC(),
	}
	leaderboardFetches.WithLabelValues(string(period), "success").Inc()
	return nil
}

// LeaderboardState is an immutable read of the store.
type LeaderboardState struct {
	Period      leaderboard.Period
	Window      leaderboard.Window
	Players     []leaderboard.Player
	FetchedAt   time.Time
	HasSnapshot bool
	IsLoading   bool
	Error       string
}

func (s *LeaderboardService) State() LeaderboardState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := LeaderboardState{
		Period:    s.period,
		IsLoading: s.inflight > 0,
		Error:     s.lastErr,
	}
	if s.snapshot != nil {
		state.HasSnapshot = true
		state.Window = s.snapshot.Window
		state.FetchedAt = s.snapshot.FetchedAt
		state.Players = make([]leaderboard.Player, len(s.snapshot.Players))
		copy(state.Players, s.snapshot.Players)
	}
	return state
}

func (s *LeaderboardService) recordError(token uint64, period leaderboard.Period, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == s.seq {
		s.lastErr = fetchErrorMessage(err)
	}
	leaderboardFetches.WithLabelValues(string(period), "error").Inc()
}

// fetchErrorMessage turns a fetch failure into the string the site displays:
// the remote body's message when one exists, otherwise a generic line with
// the status code or the error itself.
func fetchErrorMessage(err error) string {
	var remoteErr *affiliate.RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Error()
	}
	return err.Error()
}

func annotatePrizes(period leaderboard.Period, players []leaderboard.Player) {
	prizes := prizeTable[period]
	for i := range players {
		if i >= len(prizes) {
			break
		}
		players[i].Prize = prizes[i]
	}
}
