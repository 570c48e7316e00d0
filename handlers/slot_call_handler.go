package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"likethacheeseAPI/internal/slotcall"
	"likethacheeseAPI/middleware"
	"likethacheeseAPI/services"
)

type SlotCallHandler struct {
	slotCallService *services.SlotCallService
}

func NewSlotCallHandler(slotCallService *services.SlotCallService) *SlotCallHandler {
	return &SlotCallHandler{
		slotCallService: slotCallService,
	}
}

// SubmitSlotCall creates a pending request for the authenticated viewer.
func (h *SlotCallHandler) SubmitSlotCall(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		SlotName  string `json:"slot_name"`
		Requester string `json:"requester"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	body.SlotName = strings.TrimSpace(body.SlotName)
	body.Requester = strings.TrimSpace(body.Requester)
	if body.SlotName == "" || body.Requester == "" {
		respondWithError(w, http.StatusBadRequest, "slot_name and requester are required")
		return
	}

	req, err := h.slotCallService.Submit(ctx, clerkID, body.Requester, body.SlotName)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to submit slot call")
		return
	}

	respondWithJSON(w, http.StatusCreated, req)
}

// ListSlotCalls returns all requests for moderators and the viewer's own
// requests for everyone else.
func (h *SlotCallHandler) ListSlotCalls(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var (
		requests []*slotcall.Request
		err      error
	)
	if middleware.IsModerator(clerkID) {
		requests, err = h.slotCallService.ListAll(ctx)
	} else {
		requests, err = h.slotCallService.ListByRequester(ctx, clerkID)
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to list slot calls")
		return
	}

	respondWithJSON(w, http.StatusOK, requests)
}

// AcceptSlotCall moves a pending request to accepted.
func (h *SlotCallHandler) AcceptSlotCall(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := slotCallID(w, r)
	if !ok {
		return
	}

	var body struct {
		X250Hit bool `json:"x250_hit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.slotCallService.Accept(ctx, id, body.X250Hit)
	if err != nil {
		respondWithTransitionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

func (h *SlotCallHandler) RejectSlotCall(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := slotCallID(w, r)
	if !ok {
		return
	}

	req, err := h.slotCallService.Reject(ctx, id)
	if err != nil {
		respondWithTransitionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

func (h *SlotCallHandler) MarkSlotCallPlayed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := slotCallID(w, r)
	if !ok {
		return
	}

	req, err := h.slotCallService.MarkPlayed(ctx, id)
	if err != nil {
		respondWithTransitionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

// ToggleX250 flips the 250x-hit flag on a played request.
func (h *SlotCallHandler) ToggleX250(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := slotCallID(w, r)
	if !ok {
		return
	}

	var body struct {
		Value bool `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.slotCallService.ToggleX250(ctx, id, body.Value)
	if err != nil {
		respondWithTransitionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

// SubmitBonusCall lets the original requester attach their bonus call after
// a 250x hit.
func (h *SlotCallHandler) SubmitBonusCall(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, ok := slotCallID(w, r)
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Bonus slot name is required")
		return
	}

	req, err := h.slotCallService.SubmitBonus(ctx, id, clerkID, body.Name)
	if err != nil {
		respondWithTransitionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

// DeleteSlotCall is a hard removal, legal from any state. The destructive
// double-check lives here: the request must carry confirm=true.
func (h *SlotCallHandler) DeleteSlotCall(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := slotCallID(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		respondWithError(w, http.StatusBadRequest, "Deletion requires confirm=true")
		return
	}

	if err := h.slotCallService.Delete(ctx, id); err != nil {
		respondWithTransitionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "slot call deleted"})
}

func slotCallID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid slot call id")
		return uuid.Nil, false
	}
	return id, true
}

// respondWithTransitionError maps workflow errors onto status codes:
// unknown id 404, illegal transition 409, wrong requester 403.
func respondWithTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slotcall.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Slot call not found")
	case errors.Is(err, slotcall.ErrIllegalTransition):
		respondWithError(w, http.StatusConflict, "Action not allowed in the current state")
	case errors.Is(err, slotcall.ErrNotRequester):
		respondWithError(w, http.StatusForbidden, "Only the requester can submit a bonus call")
	default:
		respondWithError(w, http.StatusInternalServerError, "Unable to update slot call")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
