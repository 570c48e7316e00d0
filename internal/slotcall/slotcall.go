package slotcall

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusPlayed   Status = "played"
)

var (
	ErrNotFound          = errors.New("slot call not found")
	ErrIllegalTransition = errors.New("illegal slot call transition")
	ErrNotRequester      = errors.New("only the requester can submit a bonus call")
)

type BonusCall struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Request is one viewer-submitted slot call moving through moderator review.
// Status only changes through the transition methods below; anything else is
// rejected with ErrIllegalTransition and leaves the request untouched.
type Request struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	SlotName         string     `json:"slot_name" db:"slot_name"`
	Requester        string     `json:"requester" db:"requester"`
	RequesterClerkID string     `json:"-" db:"requester_clerk_id"`
	Status           Status     `json:"status" db:"status"`
	X250Hit          bool       `json:"x250_hit" db:"x250_hit"`
	BonusCall        *BonusCall `json:"bonus_call,omitempty"`
	SubmittedAt      time.Time  `json:"submitted_at" db:"submitted_at"`
}

func New(slotName, requester, requesterClerkID string, now time.Time) *Request {
	return &Request{
		ID:               uuid.New(),
		SlotName:         slotName,
		Requester:        requester,
		RequesterClerkID: requesterClerkID,
		Status:           StatusPending,
		SubmittedAt:      now,
	}
}

// Accept moves a pending request to accepted and records whether the call
// already counts as a 250x hit.
func (r *Request) Accept(x250Hit bool) error {
	if r.Status != StatusPending {
		return ErrIllegalTransition
	}
	r.Status = StatusAccepted
	r.X250Hit = x250Hit
	return nil
}

func (r *Request) Reject() error {
	if r.Status != StatusPending {
		return ErrIllegalTransition
	}
	r.Status = StatusRejected
	return nil
}

// MarkPlayed is legal from pending (direct fast path) or accepted.
func (r *Request) MarkPlayed() error {
	if r.Status != StatusPending && r.Status != StatusAccepted {
		return ErrIllegalTransition
	}
	r.Status = StatusPlayed
	return nil
}

// SetX250 toggles the 250x flag. Only a played call can be flagged.
func (r *Request) SetX250(value bool) error {
	if r.Status != StatusPlayed {
		return ErrIllegalTransition
	}
	r.X250Hit = value
	return nil
}

// AttachBonus records the requester's bonus call. It requires a played
// request with the 250x flag set and no bonus attached yet; once attached
// the bonus is immutable.
func (r *Request) AttachBonus(name string, now time.Time) error {
	if r.Status != StatusPlayed || !r.X250Hit || r.BonusCall != nil {
		return ErrIllegalTransition
	}
	r.BonusCall = &BonusCall{Name: name, CreatedAt: now}
	return nil
}
