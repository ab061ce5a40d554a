// Package connectivity tracks whether the remote authority is reachable.
//
// A Monitor is the single writer of the online flag. It is fed by link
// notifications, by gateway failures, and by an active HEAD probe; readers
// either poll IsOnline or Subscribe to value changes.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/logging"
)

const defaultProbeTimeout = 3 * time.Second

// Pinger performs the active liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	pinger       Pinger
	log          logging.Logger
	probeTimeout time.Duration

	mu     sync.Mutex
	online bool
	linkUp bool
	subs   map[int]chan bool
	nextID int
}

// NewMonitor returns a monitor that starts offline with the link assumed up;
// the first successful probe flips it online.
func NewMonitor(p Pinger, log logging.Logger) *Monitor {
	if log == nil {
		log = logging.Nop()
	}
	return &Monitor{
		pinger:       p,
		log:          log,
		probeTimeout: defaultProbeTimeout,
		linkUp:       true,
		subs:         make(map[int]chan bool),
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// NotifyLink records a transport-level up/down notification. Down is
// authoritative; up is optimistic until the next probe.
func (m *Monitor) NotifyLink(up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkUp = up
	m.setLocked(up)
}

// ReportUnavailable is called by gateway users after a transport failure.
func (m *Monitor) ReportUnavailable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(false)
}

// CheckConnectivity probes the remote authority and updates the signal.
// A failed probe means offline; it never returns an error.
func (m *Monitor) CheckConnectivity(ctx context.Context) bool {
	m.mu.Lock()
	linkUp := m.linkUp
	m.mu.Unlock()

	online := false
	if linkUp {
		pctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
		err := m.pinger.Ping(pctx)
		cancel()
		if err != nil {
			m.log.Debug(ctx, "connectivity probe failed", "error", err)
		}
		online = err == nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// a link-down notification that raced the probe wins
	if !m.linkUp {
		online = false
	}
	m.setLocked(online)
	return online
}

// Subscribe returns a channel receiving the new value on every change and a
// function that cancels the subscription. Slow readers only see the latest
// value.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

// Watch probes immediately and then every interval until ctx is done.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) {
	m.CheckConnectivity(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CheckConnectivity(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) setLocked(online bool) {
	if m.online == online {
		return
	}
	m.online = online
	if online {
		m.log.Info(context.Background(), "switched to online mode")
	} else {
		m.log.Info(context.Background(), "switched to offline mode")
	}

	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- online
		}
	}
}
