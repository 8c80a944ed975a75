package core

import (
	"context"
	"sync"
	"time"
)

// Pinger sends one liveness probe and returns once the peer answers or the
// probe's context expires. A websocket ping round-trip satisfies this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor is the per-connection liveness state machine. Every interval it
// probes the peer and gives it a fixed window to answer; a missed window
// means the peer is dead: the monitor stops and fires the onDead callback,
// which is expected to force-close the transport and evict the connection
// from the registry.
//
// Each monitor owns exactly its own timers; connections are probed
// independently of one another.
type Monitor struct {
	interval time.Duration
	window   time.Duration
	pinger   Pinger
	onDead   func()

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMonitor builds a monitor for one connection. interval is the time
// between probes, window is how long the peer has to answer each one.
// onDead fires at most once.
func NewMonitor(interval, window time.Duration, pinger Pinger, onDead func()) *Monitor {
	return &Monitor{
		interval: interval,
		window:   window,
		pinger:   pinger,
		onDead:   onDead,
		stop:     make(chan struct{}),
	}
}

// Run probes until the peer dies, Stop is called, or ctx is cancelled.
// Intended to run on its own goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, m.window)
			err := m.pinger.Ping(probeCtx)
			cancel()
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				// Shutdown, not a dead peer.
				return
			}
			select {
			case <-m.stop:
				return
			default:
			}
			m.onDead()
			return
		}
	}
}

// Stop cancels future probes. Safe to call multiple times and after death.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
