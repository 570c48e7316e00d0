package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"likethacheeseAPI/internal/affiliate"
	"likethacheeseAPI/internal/leaderboard"
)

// fakeFeed lets each test script the feed responses.
type fakeFeed struct {
	fetch func(ctx context.Context, start, end time.Time) (*affiliate.FeedPayload, error)
}

func (f *fakeFeed) FetchRange(ctx context.Context, start, end time.Time) (*affiliate.FeedPayload, error) {
	return f.fetch(ctx, start, end)
}

func TestFetchRanksAndAnnotatesPrizes(t *testing.T) {
	feed := &fakeFeed{
		fetch: func(ctx context.Context, start, end time.Time) (*affiliate.FeedPayload, error) {
			return &affiliate.FeedPayload{
				Affiliates: []affiliate.Entry{
					{Username: "Ann", WageredAmount: "150.5"},
					{Username: "Bob", WageredAmount: "300"},
					{Username: "Cat", WageredAmount: "10"},
					{Username: "Dan", WageredAmount: "5"},
				},
			}, nil
		},
	}

	svc := NewLeaderboardService(feed, "")
	if err := svc.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	state := svc.State()
	if !state.HasSnapshot {
		t.Fatal("no snapshot after successful fetch")
	}
	if state.Error != "" {
		t.Errorf("unexpected error state: %s", state.Error)
	}

	if state.Players[0].Username != "Bob" || state.Players[0].Rank != 1 {
		t.Errorf("rank 1 = %+v, want Bob", state.Players[0])
	}
	if state.Players[1].Username != "Ann" || state.Players[1].Wager != 150.5 {
		t.Errorf("rank 2 = %+v, want Ann/150.5", state.Players[1])
	}

	// monthly prizes on the top three, nothing on fourth
	wantPrizes := []string{"$150", "$75", "$25", ""}
	for i, p := range state.Players {
		if p.Prize != wantPrizes[i] {
			t.Errorf("rank %d prize = %q, want %q", i+1, p.Prize, wantPrizes[i])
		}
	}
}

func TestFetchWeeklyPrizes(t *testing.T) {
	feed := &fakeFeed{
		fetch: func(ctx context.Context, start, end time.Time) (*affiliate.FeedPayload, error) {
			return &affiliate.FeedPayload{
				Affiliates: []affiliate.Entry{
					{Username: "a", WageredAmount: "3"},
					{Username: "b", WageredAmount: "2"},
					{Username: "c", WageredAmount: "1"},
				},
			}, nil
		},
	}

	svc := NewLeaderboardService(feed, "")
	if err := svc.SetPeriod(leaderboard.PeriodWeekly); err != nil {
		t.Fatalf("SetPeriod failed: %v", err)
	}
	if err := svc.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	state := svc.State()
	wantPrizes := []string{"$150", "$100", "$50"}
	for i, p := range state.Players {
		if p.Prize != wantPrizes[i] {
			t.Errorf("weekly rank %d prize = %q, want %q", i+1, p.Prize, wantPrizes[i])
		}
	}
}

func TestSetPeriodInvalid(t *testing.T) {
	svc := NewLeaderboardService(&fakeFeed{}, "")
	if err := svc.SetPeriod(leaderboard.Period("yearly")); err != leaderboard.ErrInvalidPeriod {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
	if svc.State().Period != leaderboard.PeriodMonthly {
		t.Error("invalid SetPeriod mutated the active period")
	}
}

func TestFetchFailureKeepsPreviousSnapshot(t *testing.T) {
	failing := false
	feed := &fakeFeed{
		fetch: func(ctx context.Context, start, end time.Time) (*affiliate.FeedPayload, error) {
			if failing {
				return nil, &affiliate.RemoteError{StatusCode: 503, Message: "feed down for maintenance"}
			}
			return &affiliate.FeedPayload{
				Affiliates: []affiliate.Entry{{Username: "Ann", WageredAmount: "100"}},
			}, nil
		},
	}

	svc := NewLeaderboardService(feed, "")
	if err := svc.Fetch(context.Background()); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	failing = true
	if err := svc.Fetch(context.Background()); err == nil {
		t.Fatal("expected error from failing fetch")
	}

	state := svc.State()
	if state.Error != "feed down for maintenance" {
		t.Errorf("error = %q, want remote message", state.Error)
	}
	if len(state.Players) != 1 || state.Players[0].Username != "Ann" {
		t.Errorf("previous snapshot lost: %+v", state.Players)
	}
	if state.IsLoading {
		t.Error("loading flag stuck after failed fetch")
	}
}

func TestFetchErrorMessageFallsBackToStatusCode(t *testing.T) {
	feed := &fakeFeed{
		fetch: func(ctx context.Context, start, end time.Time) (*affiliate.FeedPayload, error) {
			return nil, &affiliate.RemoteError{StatusCode: 500}
		},
	}

	svc := NewLeaderboardService(feed, "")
	svc.Fetch(context.Background())

	if got := svc.State().Error; got != "affiliate request failed with status 500" {
		t.Errorf("error = %q", got)
	}
}

func TestFetchDiscardsStaleResponse(t *testing.T) {
	// first fetch blocks until released; second completes immediately with
	// newer data. The late first response must not clobber the snapshot.
	block := make(chan struct{})
	var calls int
	var mu sync.Mutex

	feed := &fakeFeed{
		fetch: func(ctx context.Context, start, end time.Time) (*affiliate.FeedPayload, error) {
			mu.Lock()
			calls++
			call := calls
			mu.Unlock()

			if call == 1 {
				<-block
				return &affiliate.FeedPayload{
					Affiliates: []affiliate.Entry{{Username: "stale", WageredAmount: "1"}},
				}, nil
			}
			return &affiliate.FeedPayload{
				Affiliates: []affiliate.Entry{{Username: "fresh", WageredAmount: "2"}},
			}, nil
		},
	}

	svc := NewLeaderboardService(feed, "")

	done := make(chan struct{})
	go func() {
		svc.Fetch(context.Background())
		close(done)
	}()

	// wait for the first call to be in flight
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n >= 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := svc.Fetch(context.Background()); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	close(block)
	<-done

	state := svc.State()
	if len(state.Players) != 1 || state.Players[0].Username != "fresh" {
		t.Errorf("stale response overwrote snapshot: %+v", state.Players)
	}
	if state.IsLoading {
		t.Error("loading flag stuck after concurrent fetches")
	}
}

func TestFetchAgainstHTTPFeed(t *testing.T) {
	// end to end through the real affiliate client
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start_at") == "" || r.URL.Query().Get("end_at") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"affiliates":[{"username":"5moking_bro","wagered_amount":"42"}]}`))
	}))
	defer ts.Close()

	svc := NewLeaderboardService(affiliate.NewClient(ts.URL, ""), "5moking")
	if err := svc.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	state := svc.State()
	if len(state.Players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(state.Players))
	}
	if !state.Players[0].IsFeatured {
		t.Error("featured marker not applied through the full pipeline")
	}
}

func TestFetchMalformedFeedYieldsEmptySnapshot(t *testing.T) {
	feed := &fakeFeed{
		fetch: func(ctx context.Context, start, end time.Time) (*affiliate.FeedPayload, error) {
			return &affiliate.FeedPayload{}, nil
		},
	}

	svc := NewLeaderboardService(feed, "")
	if err := svc.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	state := svc.State()
	if !state.HasSnapshot {
		t.Fatal("missing list should still produce a snapshot")
	}
	if len(state.Players) != 0 {
		t.Errorf("expected empty players, got %d", len(state.Players))
	}
	if state.Error != "" {
		t.Errorf("missing list should not surface an error, got %q", state.Error)
	}
}
