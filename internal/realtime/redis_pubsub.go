package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// ChangesChannel carries one message per committed write sequence.
	ChangesChannel = "ciecnow:changes"
	publishTimeout = 5 * time.Second
)

// Change is the message published after a write sequence.
type Change struct {
	Origin string    `json:"origin"`
	Scope  string    `json:"scope"`
	At     time.Time `json:"at"`
}

// RedisPubSub relays change notifications between server instances. It implements
// orchestrator.ChangeNotifier.
type RedisPubSub struct {
	client   *redis.Client
	instance string
	logger   *zap.Logger
}

// NewRedisPubSub creates a bridge with a fresh instance id.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, instance: uuid.New().String(), logger: logger}
}

// Instance returns the id stamped on this instance's messages.
func (r *RedisPubSub) Instance() string { return r.instance }

// PublishChange announces that scope changed.
func (r *RedisPubSub) PublishChange(ctx context.Context, scope string) error {
	body, err := json.Marshal(Change{Origin: r.instance, Scope: scope, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, ChangesChannel, body).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// SubscribeChanges calls handler for every change published by another instance until cancel is
// called or ctx is done.
func (r *RedisPubSub) SubscribeChanges(ctx context.Context, handler func(Change)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	pubsub := r.client.Subscribe(ctx, ChangesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.dispatch(msg.Payload, handler)
			}
		}
	}()
	return cancelCtx, nil
}

func (r *RedisPubSub) dispatch(payload string, handler func(Change)) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		r.logger.Warn("invalid change message", zap.String("raw", payload), zap.Error(err))
		return
	}
	if change.Origin == r.instance {
		return
	}
	handler(change)
}

// RefreshOnChange returns a change handler that re-reads the snapshot.
func RefreshOnChange(refresher Refresher, logger *zap.Logger) func(Change) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(change Change) {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		logger.Debug("remote change", zap.String("origin", change.Origin), zap.String("scope", change.Scope))
		if err := refresher.RefreshAll(ctx); err != nil {
			logger.Warn("refresh after remote change incomplete", zap.Error(err))
		}
	}
}
