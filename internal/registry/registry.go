package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/logging"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

const defaultPollInterval = 10 * time.Second

type Backend interface {
	ActiveWalks(ctx context.Context) ([]walk.Summary, error)
	CompletedWalks(ctx context.Context) ([]walk.Summary, error)
	LiveTracking(ctx context.Context, appointmentID string) (walk.Detail, error)
}

// Listener is told each time the selected walk's live detail changes.
type Listener func(walk.Detail)

type Options struct {
	PollInterval time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
	Listener     Listener
}

// Registry holds the walk lists and the user's selection. Poll results are
// whole snapshots; each success replaces the previous list.
type Registry struct {
	backend  Backend
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	listener Listener

	mu        sync.RWMutex
	active    []walk.Summary
	completed []walk.Summary
	selected  *walk.Summary
	live      *walk.Detail
	closed    bool
}

func New(backend Backend, opts Options) *Registry {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Registry{
		backend:   backend,
		interval:  opts.PollInterval,
		clock:     opts.Clock,
		logger:    logging.OrDefault(opts.Logger),
		listener:  opts.Listener,
		active:    []walk.Summary{},
		completed: []walk.Summary{},
	}
}

func (r *Registry) RefreshActive(ctx context.Context) error {
	walks, err := r.backend.ActiveWalks(ctx)
	if err != nil {
		r.logger.Warn("refresh active walks failed", "error", err)
		return fmt.Errorf("%w: active walks: %w", walk.ErrPollingTransient, err)
	}
	r.replace(walks, true)
	return nil
}

func (r *Registry) RefreshCompleted(ctx context.Context) error {
	walks, err := r.backend.CompletedWalks(ctx)
	if err != nil {
		r.logger.Warn("refresh completed walks failed", "error", err)
		return fmt.Errorf("%w: completed walks: %w", walk.ErrPollingTransient, err)
	}
	r.replace(walks, false)
	return nil
}

func (r *Registry) replace(walks []walk.Summary, active bool) {
	if walks == nil {
		walks = []walk.Summary{}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if active {
		r.active = walks
	} else {
		r.completed = walks
	}

	var changed *walk.Detail
	if r.selected != nil {
		for _, w := range walks {
			if w.ID != r.selected.ID {
				continue
			}
			fresh := walk.DetailFromSummary(w)
			// List entries may omit the route; keep what the view already has.
			if r.live != nil {
				if len(fresh.GPSRoute) == 0 {
					fresh.GPSRoute = append([]walk.RoutePoint(nil), r.live.GPSRoute...)
				}
				if fresh.CurrentLocation == nil && (fresh.Status == "" || fresh.Status == walk.StatusInProgress) && r.live.CurrentLocation != nil {
					loc := *r.live.CurrentLocation
					fresh.CurrentLocation = &loc
				}
			}
			sel := w
			r.selected = &sel
			r.live = &fresh
			out := fresh.Clone()
			changed = &out
			break
		}
	}
	r.mu.Unlock()

	if changed != nil {
		r.notify(*changed)
	}
}

// SelectWalk makes s the selection. A tracked walk's detail is fetched once;
// if that fails the summary stands in and the error is returned.
func (r *Registry) SelectWalk(ctx context.Context, s walk.Summary) (walk.Detail, error) {
	fallback := walk.DetailFromSummary(s)

	r.mu.Lock()
	sel := s
	r.selected = &sel
	r.live = &fallback
	r.mu.Unlock()

	if !s.IsTracking {
		r.notify(fallback.Clone())
		return fallback.Clone(), nil
	}

	detail, err := r.backend.LiveTracking(ctx, s.ID)
	if err != nil {
		r.logger.Warn("live tracking fetch failed, using summary", "walk_id", s.ID, "error", err)
		r.notify(fallback.Clone())
		return fallback.Clone(), err
	}
	if detail.ID == "" {
		detail.ID = s.ID
	}

	r.mu.Lock()
	if r.closed || r.selected == nil || r.selected.ID != s.ID {
		// Selection moved on while the fetch was in flight.
		r.mu.Unlock()
		return detail, nil
	}
	r.live = &detail
	r.mu.Unlock()

	r.notify(detail.Clone())
	return detail.Clone(), nil
}

// FindWalk looks id up in the active list, then the completed one.
func (r *Registry) FindWalk(id string) (walk.Summary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, list := range [][]walk.Summary{r.active, r.completed} {
		for _, w := range list {
			if w.ID == id {
				return w, true
			}
		}
	}
	return walk.Summary{}, false
}

func (r *Registry) ClearSelection() {
	r.mu.Lock()
	r.selected = nil
	r.live = nil
	r.mu.Unlock()
}

func (r *Registry) Active() []walk.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSummaries(r.active)
}

func (r *Registry) Completed() []walk.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSummaries(r.completed)
}

func (r *Registry) Selected() (walk.Summary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.selected == nil {
		return walk.Summary{}, false
	}
	return cloneSummary(*r.selected), true
}

func (r *Registry) LiveDetail() (walk.Detail, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.live == nil {
		return walk.Detail{}, false
	}
	return r.live.Clone(), true
}

// Run refreshes both lists now and then on every poll tick until ctx ends.
// Refreshes are fired without waiting on earlier ones.
func (r *Registry) Run(ctx context.Context) {
	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()

	r.refreshAll(ctx)
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.closed = true
			r.mu.Unlock()
			return
		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

func (r *Registry) refreshAll(ctx context.Context) {
	go func() { _ = r.RefreshActive(ctx) }()
	go func() { _ = r.RefreshCompleted(ctx) }()
}

func (r *Registry) notify(d walk.Detail) {
	if r.listener != nil {
		r.listener(d)
	}
}

func cloneSummary(s walk.Summary) walk.Summary {
	out := s
	out.PetNames = append([]string(nil), s.PetNames...)
	out.GPSRoute = append([]walk.RoutePoint(nil), s.GPSRoute...)
	if s.CurrentLocation != nil {
		loc := *s.CurrentLocation
		out.CurrentLocation = &loc
	}
	return out
}

func cloneSummaries(in []walk.Summary) []walk.Summary {
	out := make([]walk.Summary, len(in))
	for i, s := range in {
		out[i] = cloneSummary(s)
	}
	return out
}
