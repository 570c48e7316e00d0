package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"likethacheeseAPI/internal/leaderboard"
	"likethacheeseAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

type leaderboardResponse struct {
	Period           leaderboard.Period   `json:"period"`
	StartAt          string               `json:"start_at"`
	EndAt            string               `json:"end_at"`
	SecondsRemaining int64                `json:"seconds_remaining"`
	FetchedAt        time.Time            `json:"fetched_at,omitempty"`
	Players          []leaderboard.Player `json:"players"`
	Error            string               `json:"error,omitempty"`
}

// GetLeaderboard serves the full leaderboard for the requested period,
// refreshing from the affiliate feed first. A failed refresh with an older
// snapshot still available returns that snapshot with the error string set,
// mirroring the site's stale-but-available behavior.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	if period := r.URL.Query().Get("period"); period != "" {
		if err := h.leaderboardService.SetPeriod(leaderboard.Period(period)); err != nil {
			respondWithError(w, http.StatusBadRequest, "Unknown period, use 'monthly' or 'weekly'")
			return
		}
	}

	fetchErr := h.leaderboardService.Fetch(ctx)

	state := h.leaderboardService.State()
	if fetchErr != nil && !state.HasSnapshot {
		respondWithError(w, http.StatusBadGateway, state.Error)
		return
	}

	respondWithJSON(w, http.StatusOK, stateToResponse(state))
}

// GetTopPlayers serves the cached top slice for the home page. It only hits
// the feed when there is no snapshot yet.
func (h *LeaderboardHandler) GetTopPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	state := h.leaderboardService.State()
	if !state.HasSnapshot {
		if err := h.leaderboardService.Fetch(ctx); err != nil {
			respondWithError(w, http.StatusBadGateway, h.leaderboardService.State().Error)
			return
		}
		state = h.leaderboardService.State()
	}

	resp := stateToResponse(state)
	if len(resp.Players) > limit {
		resp.Players = resp.Players[:limit]
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func stateToResponse(state services.LeaderboardState) leaderboardResponse {
	resp := leaderboardResponse{
		Period:  state.Period,
		Players: state.Players,
		Error:   state.Error,
	}
	if resp.Players == nil {
		resp.Players = []leaderboard.Player{}
	}
	if state.HasSnapshot {
		resp.StartAt = state.Window.StartDate()
		resp.EndAt = state.Window.EndDate()
		resp.SecondsRemaining = int64(state.Window.Remaining(time.Now().UTC()).Seconds())
		resp.FetchedAt = state.FetchedAt
	}
	return resp
}
