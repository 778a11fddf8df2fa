package storage

import (
	"context"
	"encoding/json"

	"github.com/arman-petrosyan/slotbook/libs/db"
)

// Notification is one delivery attempt, kept for audit and replay.
type Notification struct {
	EventID string
	ChatID  string
	Payload map[string]any
	Status  string
}

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (event_id, chat_id, payload, status)
		VALUES ($1, $2, $3, $4)
	`, n.EventID, n.ChatID, payload, n.Status)
	return err
}
