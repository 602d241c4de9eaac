package chathub

import (
	"context"

	"studybuddy/backend/internal/models"
)

// Relay carries room events between the broker instances. Every event the
// hub emits goes through the relay, and the hub delivers whatever the relay
// hands back.
type Relay interface {
	Publish(ctx context.Context, env models.RoomEnvelope) error
	Subscribe(ctx context.Context) <-chan models.RoomEnvelope
}

// LocalRelay is the single-instance relay used when Redis is disabled.
type LocalRelay struct {
	ch chan models.RoomEnvelope
}

func NewLocalRelay(buffer int) *LocalRelay {
	return &LocalRelay{ch: make(chan models.RoomEnvelope, buffer)}
}

func (r *LocalRelay) Publish(ctx context.Context, env models.RoomEnvelope) error {
	select {
	case r.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *LocalRelay) Subscribe(_ context.Context) <-chan models.RoomEnvelope {
	return r.ch
}
