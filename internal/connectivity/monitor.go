// Package connectivity tracks whether the remote API is reachable and tells
// subscribers when it comes back.
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Probe reports whether the remote service is currently reachable.
type Probe func(ctx context.Context) bool

// HTTPProbe builds a probe that issues a HEAD request against baseURL.
func HTTPProbe(baseURL string, client *http.Client) Probe {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}
}

// Config holds monitor configuration.
type Config struct {
	// PollInterval is how often the probe runs (default: 15s).
	PollInterval time.Duration

	// ProbeTimeout bounds one probe attempt (default: 5s).
	ProbeTimeout time.Duration

	// AssumeOnline is the belief before the first probe completes.
	AssumeOnline bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval: 15 * time.Second,
		ProbeTimeout: 5 * time.Second,
		AssumeOnline: true,
	}
}

// Monitor polls a probe and notifies subscribers on the offline→online edge
// only. Staying online, staying offline and going offline produce no
// notification.
type Monitor struct {
	probe  Probe
	config Config

	mu     sync.Mutex
	online bool
	subs   []chan struct{}

	lifecycleMu sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
}

func NewMonitor(probe Probe, config Config) *Monitor {
	return &Monitor{
		probe:  probe,
		config: config,
		online: config.AssumeOnline,
	}
}

// Online returns the current belief.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe returns a channel signaled once per offline→online transition.
// The channel is buffered; a subscriber that is mid-drain simply coalesces
// edges.
func (m *Monitor) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// SetOnline records a new belief and fires subscribers when the state rises
// from offline to online. Exposed so callers observing a request result can
// feed the monitor without waiting for the next poll.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	var subs []chan struct{}
	if online && !wasOnline {
		subs = append(subs, m.subs...)
	}
	m.mu.Unlock()

	if online && !wasOnline {
		slog.Info("Connectivity restored")
		for _, ch := range subs {
			select {
			case ch <- struct{}{}:
			default: // subscriber already has a pending edge
			}
		}
	} else if !online && wasOnline {
		slog.Info("Connectivity lost")
	}
}

// Start begins polling. Returns an error if already running.
func (m *Monitor) Start(ctx context.Context) error {
	m.lifecycleMu.Lock()
	if m.running {
		m.lifecycleMu.Unlock()
		return fmt.Errorf("connectivity monitor is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.lifecycleMu.Unlock()

	go m.runLoop(ctx)

	slog.InfoContext(ctx, "Connectivity monitor started",
		"poll_interval", m.config.PollInterval)
	return nil
}

// Stop gracefully stops polling.
func (m *Monitor) Stop(ctx context.Context) error {
	m.lifecycleMu.Lock()
	if !m.running {
		m.lifecycleMu.Unlock()
		return nil
	}
	m.lifecycleMu.Unlock()

	close(m.stopCh)

	select {
	case <-m.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.lifecycleMu.Lock()
	m.running = false
	m.lifecycleMu.Unlock()
	return nil
}

func (m *Monitor) runLoop(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	// Probe immediately on startup.
	m.pollOnce(ctx)

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

func (m *Monitor) pollOnce(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
	defer cancel()
	m.SetOnline(m.probe(probeCtx))
}
