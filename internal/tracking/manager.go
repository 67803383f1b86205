package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/position"
)

// Refresher is told to re-poll the walk lists once a session stops.
type Refresher interface {
	RefreshActive(ctx context.Context) error
	RefreshCompleted(ctx context.Context) error
}

// Manager keeps at most one tracking session per device.
type Manager struct {
	backend   Backend
	source    position.Source
	refresher Refresher
	opts      Options
	logger    *slog.Logger

	// opMu serializes start, stop and close.
	opMu    sync.Mutex
	closed  bool
	mu      sync.Mutex
	current *Session
}

func NewManager(backend Backend, source position.Source, refresher Refresher, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		backend:   backend,
		source:    source,
		refresher: refresher,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// Start opens a new session for appointmentID.
func (m *Manager) Start(ctx context.Context, appointmentID string) (Status, error) {
	if err := m.authorize(); err != nil {
		return m.Status(), err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.closed {
		return m.Status(), fmt.Errorf("%w: shutting down", ErrInvalidState)
	}
	if cur := m.Current(); cur != nil && cur.State() == StateTracking {
		return cur.Status(), fmt.Errorf("%w: appointment %s", ErrSessionActive, cur.AppointmentID())
	}

	sess := NewSession(m.backend, m.source, m.opts)
	if err := sess.Start(ctx, appointmentID); err != nil {
		return sess.Status(), err
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	return sess.Status(), nil
}

// Stop ends the live session and refreshes the walk lists.
func (m *Manager) Stop(ctx context.Context) (Status, error) {
	if err := m.authorize(); err != nil {
		return m.Status(), err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	cur := m.Current()
	if cur == nil || cur.State() != StateTracking {
		return m.Status(), fmt.Errorf("%w: no walk is being tracked", ErrInvalidState)
	}

	stopErr := cur.Stop(ctx)
	if m.refresher != nil {
		refreshCtx := context.WithoutCancel(ctx)
		if err := m.refresher.RefreshActive(refreshCtx); err != nil {
			m.logger.Warn("refresh active walks after stop", "error", err)
		}
		if err := m.refresher.RefreshCompleted(refreshCtx); err != nil {
			m.logger.Warn("refresh completed walks after stop", "error", err)
		}
	}
	return cur.Status(), stopErr
}

func (m *Manager) authorize() error {
	if m.opts.CanTrack != nil && !m.opts.CanTrack() {
		return ErrNotWalker
	}
	return nil
}

// Current returns the latest session, tracking or not.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) Status() Status {
	if cur := m.Current(); cur != nil {
		return cur.Status()
	}
	return Status{State: StateIdle}
}

// Close releases the live session without a network call and refuses
// further starts. It waits for an in-flight start or stop to settle.
func (m *Manager) Close() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.closed = true
	if cur := m.Current(); cur != nil {
		cur.Close()
	}
}
