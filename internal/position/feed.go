package position

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

// Sample is one fix pushed by the device.
type Sample struct {
	Lat       float64
	Lng       float64
	AccuracyM float64
	At        time.Time
}

func (s Sample) Position() walk.Position {
	return walk.Position{Lat: s.Lat, Lng: s.Lng}
}

type FeedOptions struct {
	Supported bool
	// FixTimeout bounds how long CurrentPosition waits for a fix.
	FixTimeout time.Duration
	// MaxAge lets CurrentPosition reuse a cached accurate fix this young.
	// Zero always waits for a fresh one.
	MaxAge time.Duration
	// HighAccuracyMeters rejects fixes with a worse reported accuracy for
	// CurrentPosition. Zero accepts every fix.
	HighAccuracyMeters float64
}

type watcher struct {
	onSample func(walk.Position)
	onError  func(error)
}

type fixResult struct {
	pos walk.Position
	err error
}

// Feed is a Source fed by samples the device pushes to us.
type Feed struct {
	opts FeedOptions
	now  func() time.Time

	mu        sync.Mutex
	watchers  map[Handle]watcher
	waiters   map[chan fixResult]struct{}
	latest    Sample
	hasLatest bool
}

func NewFeed(opts FeedOptions) *Feed {
	if opts.FixTimeout <= 0 {
		opts.FixTimeout = 10 * time.Second
	}
	return &Feed{
		opts:     opts,
		now:      time.Now,
		watchers: map[Handle]watcher{},
		waiters:  map[chan fixResult]struct{}{},
	}
}

func (f *Feed) Supported() bool {
	return f.opts.Supported
}

// Publish delivers a sample to every watcher and to pending fix requests.
func (f *Feed) Publish(s Sample) error {
	if !f.opts.Supported {
		return walk.ErrLocationUnsupported
	}
	if s.At.IsZero() {
		s.At = f.now()
	}
	pos := s.Position()

	f.mu.Lock()
	f.latest = s
	f.hasLatest = true
	if f.accurate(s) {
		for ch := range f.waiters {
			ch <- fixResult{pos: pos}
			delete(f.waiters, ch)
		}
	}
	watchers := f.snapshotLocked()
	f.mu.Unlock()

	for _, w := range watchers {
		if w.onSample != nil {
			w.onSample(pos)
		}
	}
	return nil
}

// PublishError reports a device-side fix failure. Pending fix requests fail;
// watchers are told but stay subscribed.
func (f *Feed) PublishError(cause error) {
	err := fmt.Errorf("%w: %w", walk.ErrLocationUnavailable, cause)

	f.mu.Lock()
	for ch := range f.waiters {
		ch <- fixResult{err: err}
		delete(f.waiters, ch)
	}
	watchers := f.snapshotLocked()
	f.mu.Unlock()

	for _, w := range watchers {
		if w.onError != nil {
			w.onError(err)
		}
	}
}

func (f *Feed) CurrentPosition(ctx context.Context) (walk.Position, error) {
	if !f.opts.Supported {
		return walk.Position{}, walk.ErrLocationUnsupported
	}

	f.mu.Lock()
	if f.hasLatest && f.opts.MaxAge > 0 && f.accurate(f.latest) && f.now().Sub(f.latest.At) <= f.opts.MaxAge {
		pos := f.latest.Position()
		f.mu.Unlock()
		return pos, nil
	}
	ch := make(chan fixResult, 1)
	f.waiters[ch] = struct{}{}
	f.mu.Unlock()

	timer := time.NewTimer(f.opts.FixTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.pos, res.err
	case <-timer.C:
		f.dropWaiter(ch)
		select {
		case res := <-ch:
			return res.pos, res.err
		default:
		}
		// No fix met the accuracy threshold in time; settle for a fresh
		// coarse one.
		if pos, ok := f.freshLatest(); ok {
			return pos, nil
		}
		return walk.Position{}, fmt.Errorf("%w: no fix within %s", walk.ErrLocationUnavailable, f.opts.FixTimeout)
	case <-ctx.Done():
		f.dropWaiter(ch)
		return walk.Position{}, fmt.Errorf("%w: %w", walk.ErrLocationUnavailable, ctx.Err())
	}
}

func (f *Feed) Watch(onSample func(walk.Position), onError func(error)) (Handle, error) {
	if !f.opts.Supported {
		return "", walk.ErrLocationUnsupported
	}
	h := Handle(uuid.NewString())
	f.mu.Lock()
	f.watchers[h] = watcher{onSample: onSample, onError: onError}
	f.mu.Unlock()
	return h, nil
}

func (f *Feed) Unwatch(h Handle) {
	f.mu.Lock()
	delete(f.watchers, h)
	f.mu.Unlock()
}

// Watching returns the number of live subscriptions.
func (f *Feed) Watching() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// Latest returns the most recent sample, accurate or not.
func (f *Feed) Latest() (Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.hasLatest
}

// freshLatest returns the latest sample, whatever its accuracy, when it is
// younger than MaxAge, or FixTimeout when no MaxAge is set.
func (f *Feed) freshLatest() (walk.Position, bool) {
	window := f.opts.MaxAge
	if window <= 0 {
		window = f.opts.FixTimeout
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasLatest || f.now().Sub(f.latest.At) > window {
		return walk.Position{}, false
	}
	return f.latest.Position(), true
}

func (f *Feed) accurate(s Sample) bool {
	return f.opts.HighAccuracyMeters <= 0 || s.AccuracyM <= 0 || s.AccuracyM <= f.opts.HighAccuracyMeters
}

func (f *Feed) snapshotLocked() []watcher {
	out := make([]watcher, 0, len(f.watchers))
	for _, w := range f.watchers {
		out = append(out, w)
	}
	return out
}

func (f *Feed) dropWaiter(ch chan fixResult) {
	f.mu.Lock()
	delete(f.waiters, ch)
	f.mu.Unlock()
}
