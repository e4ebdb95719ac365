// Package notification carries side-effect events (mostly outbound mail)
// from committed workflow operations to an asynchronous mailer.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Type names an event kind.
type Type string

const (
	TypeOrderCreated  Type = "order.created"
	TypeOrderAssigned Type = "order.assigned"
	TypeVerifyEmail   Type = "account.verify-email"
	TypeDeleteRequest Type = "account.delete-request"
)

// Event is a notification to deliver to one or more recipients.
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	To         []string          `json:"to"`
	Data       map[string]string `json:"data"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(t Type, to []string, data map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		To:         to,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher hands events to the delivery pipeline.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler processes one delivered event.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Emit publishes ev after a committed change. A failure is logged to the
// request logger and never returned: the change it describes already stands.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if err := p.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event_id", ev.ID).Str("type", string(ev.Type)).Msg("notification not published")
	}
}
