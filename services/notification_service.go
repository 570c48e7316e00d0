package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"likethacheeseAPI/internal/notification"
)

// PushProvider delivers a push message to a set of device tokens. The real
// implementation is the FCM service; tests inject fakes.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error
}

// NotificationService persists slot-call decision notifications and pushes
// them to the requester's registered devices.
type NotificationService struct {
	db   *pgxpool.Pool
	push PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

// SetPushProvider injects the push backend from main.go. Without one,
// notifications are persisted but not pushed.
func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.push = p
}

func (s *NotificationService) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS slot_call_notifications (
		id UUID PRIMARY KEY,
		clerk_id TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS device_tokens (
		clerk_id TEXT NOT NULL,
		token TEXT NOT NULL,
		platform TEXT NOT NULL DEFAULT '',
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (clerk_id, token)
	)
	`
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure notification schema: %w", err)
	}
	return nil
}

// RegisterDevice stores a push token for a viewer. Re-registering the same
// token is a no-op.
func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID, token, platform string) error {
	query := `
		INSERT INTO device_tokens (clerk_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (clerk_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`
	if _, err := s.db.Exec(ctx, query, clerkID, token, platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// NotifySlotCall writes the notification row and pushes it to every device
// the viewer registered.
func (s *NotificationService) NotifySlotCall(ctx context.Context, clerkID, title, body string) error {
	query := `
		INSERT INTO slot_call_notifications (id, clerk_id, title, body)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.Exec(ctx, query, uuid.New(), clerkID, title, body); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if s.push == nil {
		return nil
	}

	tokens, err := s.deviceTokens(ctx, clerkID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		log.Printf("no devices registered for %s, skipping push", clerkID)
		return nil
	}

	return s.push.SendPush(ctx, tokens, title, body, map[string]string{"type": "slot_call"})
}

func (s *NotificationService) deviceTokens(ctx context.Context, clerkID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
