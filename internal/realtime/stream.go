package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/sahayakapp/sahayak-core/internal/domain"
)

// EventSource is the underlying push connection the bus multiplexes. Run
// blocks until ctx is cancelled, invoking handler for every message-create
// event, reconnecting across transient failures.
type EventSource interface {
	Run(ctx context.Context, handler func(domain.Message)) error
}

// Stream is the websocket implementation of EventSource. One Stream carries
// events for all channels; connection lifetime is owned by the Bus.
type Stream struct {
	url    string
	logger *slog.Logger
}

// NewStream creates a stream for the push endpoint at url.
func NewStream(url string, logger *slog.Logger) *Stream {
	return &Stream{url: url, logger: logger}
}

// Run connects to the push endpoint and delivers events until ctx is
// cancelled. Transient connection errors trigger reconnection with
// exponential backoff; the backoff resets after each successful dial.
func (s *Stream) Run(ctx context.Context, handler func(domain.Message)) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // reconnect forever

	for {
		err := s.readLoop(ctx, handler, bo)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := bo.NextBackOff()
		reconnectsTotal.Inc()
		s.logger.Error("push connection error, reconnecting", "error", err, "backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, handler func(domain.Message), bo *backoff.ExponentialBackOff) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial push stream: %w", err)
	}
	defer conn.Close()

	bo.Reset()
	s.logger.Info("connected to push stream", "url", s.url)

	// ReadMessage blocks, so cancellation has to come in from the side by
	// closing the connection.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read push event: %w", err)
		}

		msg, ok, err := parseEvent(data)
		if err != nil {
			s.logger.Error("failed to parse push event", "error", err)
			continue
		}
		if !ok {
			continue
		}

		eventsTotal.Inc()
		handler(msg)
	}
}
