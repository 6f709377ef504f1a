package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// EventPublisher announces account changes for downstream consumers (mail,
// cleanup of orphaned storage objects). Publishing is best-effort: a failure
// is logged and never fails the originating request.
type EventPublisher interface {
	PublishUserUpdated(userID uuid.UUID) error
	PublishUserDeleted(userID uuid.UUID) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (EventPublisher, error) {
	nc, err := nats.Connect(natsURL)

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

type UserUpdatedEvent struct {
	EventType string    `json:"event_type"`
	UserID    uuid.UUID `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserDeletedEvent struct {
	EventType string    `json:"event_type"`
	UserID    uuid.UUID `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (p *NatsPublisher) PublishUserUpdated(userID uuid.UUID) error {
	event := UserUpdatedEvent{
		EventType: "user.updated",
		UserID:    userID,
		UpdatedAt: time.Now(),
	}

	return p.publish("user.updated", event)
}

func (p *NatsPublisher) PublishUserDeleted(userID uuid.UUID) error {
	event := UserDeletedEvent{
		EventType: "user.deleted",
		UserID:    userID,
		DeletedAt: time.Now(),
	}

	return p.publish("user.deleted", event)
}

func (p *NatsPublisher) publish(subject string, event interface{}) error {
	eventJSON, err := json.Marshal(event)

	if err != nil {
		slog.Error("Error marshalling event JSON", "subject", subject, "error", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.Error("Error publishing to NATS", "subject", subject, "error", err)
		return err
	}

	slog.Info("Published event to NATS", "subject", subject)

	return nil
}
