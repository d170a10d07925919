// Package connectivity polls the backend health endpoint and reports
// online/offline transitions.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultInterval = 15 * time.Second

type Checker interface {
	Health(ctx context.Context) error
}

// Monitor starts out assuming the backend is reachable. Listeners registered
// with OnChange are called from the polling goroutine on every transition.
type Monitor struct {
	checker  Checker
	interval time.Duration
	timeout  time.Duration
	log      *logrus.Entry

	mu        sync.RWMutex
	online    bool
	listeners []func(online bool)
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewMonitor(checker Checker, interval time.Duration, log *logrus.Entry) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Monitor{
		checker:  checker,
		interval: interval,
		timeout:  interval,
		log:      log,
		online:   true,
	}
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Start runs one check right away and then one per interval until Stop is
// called or ctx ends. Calling Start on a running monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}

// Stop cancels polling and waits for the goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Check performs a single health probe and returns the resulting state.
func (m *Monitor) Check(ctx context.Context) bool {
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.checker.Health(cctx)
	cancel()
	if ctx.Err() != nil {
		// shutting down; keep the last known state
		return m.Online()
	}

	online := err == nil
	m.mu.Lock()
	changed := online != m.online
	m.online = online
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	if !changed {
		return online
	}
	if online {
		m.log.Info("backend reachable again")
	} else {
		m.log.WithError(err).Warn("backend unreachable")
	}
	for _, fn := range listeners {
		fn(online)
	}
	return online
}
