package tracking

import (
	"context"
	"fmt"
	"sync"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/journal"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/position"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

type fix struct {
	pos walk.Position
	err error
}

// fakeSource hands out queued fixes; an empty queue means no fix.
type fakeSource struct {
	mu           sync.Mutex
	fixes        []fix
	watchErr     error
	watches      map[position.Handle]struct{}
	watchCalls   int
	unwatchCalls int
	fixCalls     int

	// holdCall parks the numbered CurrentPosition call until release is
	// closed, ignoring its context. entered is closed once it parks.
	holdCall int
	entered  chan struct{}
	release  chan struct{}
}

func newFakeSource(fixes ...fix) *fakeSource {
	return &fakeSource{fixes: fixes, watches: map[position.Handle]struct{}{}}
}

func (f *fakeSource) push(fx fix) {
	f.mu.Lock()
	f.fixes = append(f.fixes, fx)
	f.mu.Unlock()
}

func (f *fakeSource) holdFix(call int) {
	f.mu.Lock()
	f.holdCall = call
	f.entered = make(chan struct{})
	f.release = make(chan struct{})
	f.mu.Unlock()
}

func (f *fakeSource) CurrentPosition(context.Context) (walk.Position, error) {
	f.mu.Lock()
	f.fixCalls++
	if f.holdCall != 0 && f.fixCalls == f.holdCall {
		entered, release := f.entered, f.release
		f.mu.Unlock()
		close(entered)
		<-release
		f.mu.Lock()
	}
	defer f.mu.Unlock()
	if len(f.fixes) == 0 {
		return walk.Position{}, fmt.Errorf("%w: no fix", walk.ErrLocationUnavailable)
	}
	fx := f.fixes[0]
	f.fixes = f.fixes[1:]
	return fx.pos, fx.err
}

func (f *fakeSource) Watch(func(walk.Position), func(error)) (position.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchCalls++
	if f.watchErr != nil {
		return "", f.watchErr
	}
	h := position.Handle(fmt.Sprintf("watch-%d", f.watchCalls))
	f.watches[h] = struct{}{}
	return h, nil
}

func (f *fakeSource) Unwatch(h position.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unwatchCalls++
	delete(f.watches, h)
}

func (f *fakeSource) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watches)
}

func (f *fakeSource) unwatched() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unwatchCalls
}

func (f *fakeSource) watched() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watchCalls
}

type backendCall struct {
	op  string
	id  string
	pos *walk.Position
}

type fakeBackend struct {
	mu        sync.Mutex
	calls     []backendCall
	startErr  error
	updateErr error
	stopErr   error
	updates   chan backendCall

	// holdUpdate and holdStop park the matching call until closed;
	// updateEntered and stopEntered are closed when the first one parks.
	holdUpdate    chan struct{}
	updateEntered chan struct{}
	holdStop      chan struct{}
	stopEntered   chan struct{}
	enterOnce     sync.Map
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{updates: make(chan backendCall, 16)}
}

func (b *fakeBackend) add(op, id string, pos *walk.Position) backendCall {
	c := backendCall{op: op, id: id}
	if pos != nil {
		p := *pos
		c.pos = &p
	}
	b.mu.Lock()
	b.calls = append(b.calls, c)
	b.mu.Unlock()
	return c
}

func (b *fakeBackend) StartTracking(_ context.Context, id string, pos walk.Position) error {
	b.add("start", id, &pos)
	return b.startErr
}

func (b *fakeBackend) UpdateLocation(ctx context.Context, id string, pos walk.Position) error {
	c := b.add("update", id, &pos)
	b.updates <- c
	if b.holdUpdate != nil {
		b.enter("update", b.updateEntered)
		select {
		case <-b.holdUpdate:
		case <-ctx.Done():
			b.add("update-cancelled", id, &pos)
			return ctx.Err()
		}
	}
	return b.updateErr
}

func (b *fakeBackend) StopTracking(_ context.Context, id string, pos *walk.Position) error {
	b.add("stop", id, pos)
	if b.holdStop != nil {
		b.enter("stop", b.stopEntered)
		<-b.holdStop
	}
	return b.stopErr
}

func (b *fakeBackend) enter(op string, ch chan struct{}) {
	if _, loaded := b.enterOnce.LoadOrStore(op, true); !loaded {
		close(ch)
	}
}

func (b *fakeBackend) sequence() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.calls))
	for _, c := range b.calls {
		out = append(out, c.op)
	}
	return out
}

func (b *fakeBackend) ops(op string) []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []backendCall
	for _, c := range b.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type fakeJournal struct {
	mu    sync.Mutex
	kinds []journal.Kind
	err   error
}

func (j *fakeJournal) Record(_ context.Context, ev journal.Event) (journal.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.kinds = append(j.kinds, ev.Kind)
	return ev, j.err
}

func (j *fakeJournal) recorded() []journal.Kind {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journal.Kind(nil), j.kinds...)
}

type fakeRefresher struct {
	mu        sync.Mutex
	active    int
	completed int
}

func (r *fakeRefresher) RefreshActive(context.Context) error {
	r.mu.Lock()
	r.active++
	r.mu.Unlock()
	return nil
}

func (r *fakeRefresher) RefreshCompleted(context.Context) error {
	r.mu.Lock()
	r.completed++
	r.mu.Unlock()
	return fmt.Errorf("%w: offline", walk.ErrPollingTransient)
}
