// Package realtime delivers conversation messages exactly once per logical
// event. One multiplexed push connection is shared across every open
// conversation; per-listener seen-sets absorb the race between history fetch
// and live delivery, and redelivered events are dropped silently.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sahayakapp/sahayak-core/internal/domain"
)

// DefaultHistoryLimit is how many messages seed a new subscription.
const DefaultHistoryLimit = 50

type subscription struct {
	channel string
	seen    map[string]struct{}
	handler func(domain.Message)
}

// Bus multiplexes the push stream across per-channel listeners.
//
// Subscription lifecycle per channel: history fetch first (seeding the seen
// set), then live delivery filtered by channel. The underlying connection is
// refcounted: the first subscriber starts it, the last unsubscribe stops it.
type Bus struct {
	store        domain.MessageStore
	source       EventSource
	logger       *slog.Logger
	historyLimit int

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	cancel context.CancelFunc // non-nil while the stream is running
}

// NewBus creates a bus over the given message store and push source.
// historyLimit <= 0 selects DefaultHistoryLimit.
func NewBus(store domain.MessageStore, source EventSource, logger *slog.Logger, historyLimit int) *Bus {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Bus{
		store:        store,
		source:       source,
		logger:       logger,
		historyLimit: historyLimit,
		subs:         make(map[*subscription]struct{}),
	}
}

// History returns the most recent messages for a channel in chronological
// order. It does not register a listener.
func (b *Bus) History(ctx context.Context, channel string) ([]domain.Message, error) {
	recent, err := b.store.RecentMessages(ctx, channel, b.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", channel, err)
	}
	return chronological(recent), nil
}

// Subscribe registers onMessage as a live listener for a channel and returns
// the channel's history in chronological order plus an unsubscribe func.
//
// Every message id seen in history is recorded before live delivery starts,
// so a push that races the history fetch is dropped rather than duplicated.
// The unsubscribe func is idempotent: calling it twice, or after the bus has
// been torn down, is a no-op.
func (b *Bus) Subscribe(ctx context.Context, channel string, onMessage func(domain.Message)) ([]domain.Message, func(), error) {
	history, err := b.History(ctx, channel)
	if err != nil {
		return nil, nil, err
	}

	sub := &subscription{
		channel: channel,
		seen:    make(map[string]struct{}, len(history)),
		handler: onMessage,
	}
	for _, m := range history {
		sub.seen[m.ID] = struct{}{}
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	if b.cancel == nil {
		runCtx, cancel := context.WithCancel(context.Background())
		b.cancel = cancel
		go func() {
			if err := b.source.Run(runCtx, b.dispatch); err != nil && runCtx.Err() == nil {
				b.logger.Error("push stream exited", "error", err)
			}
		}()
	}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; !ok {
			return
		}
		delete(b.subs, sub)
		if len(b.subs) == 0 && b.cancel != nil {
			b.cancel()
			b.cancel = nil
		}
	}

	return history, unsubscribe, nil
}

// Send writes a new message to the remote store and returns it. The bus does
// not mark the message as seen: the sender's own copy arrives back through
// the push stream like anyone else's. Optimistic local append, if wanted, is
// the caller's responsibility.
func (b *Bus) Send(ctx context.Context, channel, senderID, content string) (domain.Message, error) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Channel:   channel,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := b.store.CreateMessage(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("send to %s: %w", channel, err)
	}
	return msg, nil
}

// Close tears the bus down: the stream stops and all listeners are removed.
// Unsubscribe funcs handed out earlier become no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.subs)
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

// dispatch routes one pushed message to matching listeners. It runs on the
// single stream goroutine, so seen-set updates are ordered.
func (b *Bus) dispatch(msg domain.Message) {
	b.mu.Lock()
	var handlers []func(domain.Message)
	for sub := range b.subs {
		if sub.channel != msg.Channel {
			continue
		}
		if _, dup := sub.seen[msg.ID]; dup {
			duplicatesDroppedTotal.Inc()
			continue
		}
		sub.seen[msg.ID] = struct{}{}
		handlers = append(handlers, sub.handler)
	}
	b.mu.Unlock()

	// Listener callbacks run outside the lock so a slow handler cannot
	// stall subscribe/unsubscribe.
	for _, h := range handlers {
		h(msg)
	}
}

// chronological reverses a newest-first slice into creation-time order.
func chronological(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
