package notification

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the in-process queue cannot take more events.
var ErrQueueFull = errors.New("notification queue full")

// ChannelPublisher queues events in process and delivers them from a single
// worker. It is used when no broker is configured.
type ChannelPublisher struct {
	events chan Event
	log    zerolog.Logger
}

func NewChannelPublisher(size int, log zerolog.Logger) *ChannelPublisher {
	return &ChannelPublisher{
		events: make(chan Event, size),
		log:    log.With().Str("component", "notification-queue").Logger(),
	}
}

// Publish never blocks: a full queue is reported as ErrQueueFull.
func (p *ChannelPublisher) Publish(ctx context.Context, ev Event) error {
	select {
	case p.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Run delivers events to h until ctx is canceled, then drains what is
// already queued.
func (p *ChannelPublisher) Run(ctx context.Context, h Handler) error {
	for {
		select {
		case ev := <-p.events:
			p.deliver(ctx, h, ev)
		case <-ctx.Done():
			p.drain(context.WithoutCancel(ctx), h)
			return nil
		}
	}
}

func (p *ChannelPublisher) drain(ctx context.Context, h Handler) {
	for {
		select {
		case ev := <-p.events:
			p.deliver(ctx, h, ev)
		default:
			return
		}
	}
}

func (p *ChannelPublisher) deliver(ctx context.Context, h Handler, ev Event) {
	if err := h.Handle(ctx, ev); err != nil {
		p.log.Error().Err(err).Str("event_id", ev.ID).Str("type", string(ev.Type)).Msg("notification not delivered")
	}
}
