package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"likethacheeseAPI/internal/slotcall"
)

type SlotCallService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewSlotCallService(db *pgxpool.Pool, notifications *NotificationService) *SlotCallService {
	return &SlotCallService{
		db:            db,
		notifications: notifications,
	}
}

// EnsureSchema creates the slot call tables when they do not exist yet.
func (s *SlotCallService) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS slot_calls (
		id UUID PRIMARY KEY,
		slot_name TEXT NOT NULL,
		requester TEXT NOT NULL,
		requester_clerk_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		x250_hit BOOLEAN NOT NULL DEFAULT FALSE,
		bonus_name TEXT,
		bonus_created_at TIMESTAMPTZ,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
	`
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure slot_calls schema: %w", err)
	}
	return nil
}

// Submit creates a new pending request for a viewer.
func (s *SlotCallService) Submit(ctx context.Context, clerkID, requester, slotName string) (*slotcall.Request, error) {
	req := slotcall.New(slotName, requester, clerkID, time.Now().UTC())

	query := `
		INSERT INTO slot_calls (id, slot_name, requester, requester_clerk_id, status, x250_hit, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		req.ID, req.SlotName, req.Requester, req.RequesterClerkID, req.Status, req.X250Hit, req.SubmittedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot call: %w", err)
	}
	return req, nil
}

// ListAll returns every request, newest first. Moderator view.
func (s *SlotCallService) ListAll(ctx context.Context) ([]*slotcall.Request, error) {
	return s.list(ctx, `
		SELECT id, slot_name, requester, requester_clerk_id, status, x250_hit, bonus_name, bonus_created_at, submitted_at
		FROM slot_calls
		ORDER BY submitted_at DESC
	`)
}

// ListByRequester returns a viewer's own requests, newest first.
func (s *SlotCallService) ListByRequester(ctx context.Context, clerkID string) ([]*slotcall.Request, error) {
	return s.list(ctx, `
		SELECT id, slot_name, requester, requester_clerk_id, status, x250_hit, bonus_name, bonus_created_at, submitted_at
		FROM slot_calls
		WHERE requester_clerk_id = $1
		ORDER BY submitted_at DESC
	`, clerkID)
}

func (s *SlotCallService) list(ctx context.Context, query string, args ...any) ([]*slotcall.Request, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot calls: %w", err)
	}
	defer rows.Close()

	requests := []*slotcall.Request{}
	for rows.Next() {
		req, err := scanSlotCall(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read slot calls: %w", err)
	}
	return requests, nil
}

// Accept moves a pending request to accepted and notifies the requester.
func (s *SlotCallService) Accept(ctx context.Context, id uuid.UUID, x250Hit bool) (*slotcall.Request, error) {
	req, err := s.transition(ctx, id, func(r *slotcall.Request) error {
		return r.Accept(x250Hit)
	})
	if err != nil {
		return nil, err
	}
	s.notifyDecision(req, "Slot call accepted", fmt.Sprintf("%s made the list!", req.SlotName))
	return req, nil
}

func (s *SlotCallService) Reject(ctx context.Context, id uuid.UUID) (*slotcall.Request, error) {
	req, err := s.transition(ctx, id, func(r *slotcall.Request) error {
		return r.Reject()
	})
	if err != nil {
		return nil, err
	}
	s.notifyDecision(req, "Slot call rejected", fmt.Sprintf("%s didn't make it this time.", req.SlotName))
	return req, nil
}

func (s *SlotCallService) MarkPlayed(ctx context.Context, id uuid.UUID) (*slotcall.Request, error) {
	req, err := s.transition(ctx, id, func(r *slotcall.Request) error {
		return r.MarkPlayed()
	})
	if err != nil {
		return nil, err
	}
	s.notifyDecision(req, "Slot call played", fmt.Sprintf("%s was played on stream!", req.SlotName))
	return req, nil
}

func (s *SlotCallService) ToggleX250(ctx context.Context, id uuid.UUID, value bool) (*slotcall.Request, error) {
	return s.transition(ctx, id, func(r *slotcall.Request) error {
		return r.SetX250(value)
	})
}

// SubmitBonus attaches the requester's bonus call. Only the original
// requester may do this, and only once.
func (s *SlotCallService) SubmitBonus(ctx context.Context, id uuid.UUID, clerkID, name string) (*slotcall.Request, error) {
	return s.transition(ctx, id, func(r *slotcall.Request) error {
		if r.RequesterClerkID != clerkID {
			return slotcall.ErrNotRequester
		}
		return r.AttachBonus(name, time.Now().UTC())
	})
}

// Delete removes a request entirely, from any state. The double-check lives
// at the handler boundary, not here.
func (s *SlotCallService) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM slot_calls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return slotcall.ErrNotFound
	}
	return nil
}

// transition loads the request under a row lock, applies the pure state
// machine mutation, and writes the result back. The row lock serializes
// concurrent transitions to the same request; an illegal transition rolls
// back with no state change.
func (s *SlotCallService) transition(ctx context.Context, id uuid.UUID, mutate func(*slotcall.Request) error) (*slotcall.Request, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, slot_name, requester, requester_clerk_id, status, x250_hit, bonus_name, bonus_created_at, submitted_at
		FROM slot_calls
		WHERE id = $1
		FOR UPDATE
	`, id)

	req, err := scanSlotCall(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, slotcall.ErrNotFound
		}
		return nil, err
	}

	if err := mutate(req); err != nil {
		return nil, err
	}

	var bonusName *string
	var bonusCreatedAt *time.Time
	if req.BonusCall != nil {
		bonusName = &req.BonusCall.Name
		bonusCreatedAt = &req.BonusCall.CreatedAt
	}

	_, err = tx.Exec(ctx, `
		UPDATE slot_calls
		SET status = $1, x250_hit = $2, bonus_name = $3, bonus_created_at = $4
		WHERE id = $5
	`, req.Status, req.X250Hit, bonusName, bonusCreatedAt, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update slot call: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit slot call update: %w", err)
	}
	return req, nil
}

// notifyDecision is best effort: a push failure never fails the transition.
func (s *SlotCallService) notifyDecision(req *slotcall.Request, title, body string) {
	if s.notifications == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.notifications.NotifySlotCall(ctx, req.RequesterClerkID, title, body); err != nil {
		log.Printf("failed to notify %s about slot call %s: %v", req.RequesterClerkID, req.ID, err)
	}
}

// scannable covers pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanSlotCall(row scannable) (*slotcall.Request, error) {
	req := &slotcall.Request{}
	var bonusName *string
	var bonusCreatedAt *time.Time

	err := row.Scan(
		&req.ID,
		&req.SlotName,
		&req.Requester,
		&req.RequesterClerkID,
		&req.Status,
		&req.X250Hit,
		&bonusName,
		&bonusCreatedAt,
		&req.SubmittedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan slot call: %w", err)
	}

	if bonusName != nil && bonusCreatedAt != nil {
		req.BonusCall = &slotcall.BonusCall{Name: *bonusName, CreatedAt: *bonusCreatedAt}
	}
	return req, nil
}
