// Package connectivity maintains an advisory "is the network reachable" flag.
// The flag is cheap to read and always fresh enough for routing decisions; it
// is not a guarantee, and a fetch may still fail while Online reports true.
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Monitor implements domain.Connectivity with a background HTTP probe.
// Tests drive transitions deterministically through Set.
type Monitor struct {
	probeURL string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger
	online   atomic.Bool
}

// NewMonitor creates a monitor that probes probeURL every interval.
// The flag starts optimistic: online until a probe says otherwise.
func NewMonitor(probeURL string, interval time.Duration, logger *slog.Logger) *Monitor {
	m := &Monitor{
		probeURL: probeURL,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
	m.online.Store(true)
	return m
}

// Online reports the last probed reachability.
func (m *Monitor) Online() bool { return m.online.Load() }

// Set overrides the flag. Used by tests and by callers with an external
// reachability signal.
func (m *Monitor) Set(online bool) { m.online.Store(online) }

// Run probes immediately and then on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		m.logger.Error("invalid probe URL", "url", m.probeURL, "error", err)
		return
	}

	resp, err := m.client.Do(req)
	reachable := err == nil
	if resp != nil {
		_ = resp.Body.Close()
	}

	if was := m.online.Swap(reachable); was != reachable {
		m.logger.Info("connectivity changed", "online", reachable)
	}
}
