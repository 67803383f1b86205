package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/journal"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/logging"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/position"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

const (
	defaultUploadInterval  = 15 * time.Second
	defaultFinalFixTimeout = 5 * time.Second
)

type Options struct {
	UploadInterval  time.Duration
	FinalFixTimeout time.Duration
	Clock           clock.Clock
	Logger          *slog.Logger
	Journal         Journal
	// CanTrack gates Start and Stop on the local user's role. Nil allows all.
	CanTrack func() bool
}

func (o Options) withDefaults() Options {
	if o.UploadInterval <= 0 {
		o.UploadInterval = defaultUploadInterval
	}
	if o.FinalFixTimeout <= 0 {
		o.FinalFixTimeout = defaultFinalFixTimeout
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	o.Logger = logging.OrDefault(o.Logger)
	return o
}

// Session tracks one appointment. While tracking it owns exactly one watch
// subscription and one upload ticker; leaving tracking releases both.
type Session struct {
	id      string
	backend Backend
	source  position.Source
	opts    Options
	logger  *slog.Logger

	mu            sync.Mutex
	state         State
	busy          bool
	appointmentID string
	lastKnown     *walk.Position
	watch         position.Handle
	ticker        *clock.Ticker
	done          chan struct{}
	cancelUploads context.CancelFunc
	released      int

	// inflight counts uploads past the halt check; Stop and Close wait for
	// them so no location update reaches the backend after stop-tracking.
	inflight sync.WaitGroup
}

func NewSession(backend Backend, source position.Source, opts Options) *Session {
	opts = opts.withDefaults()
	id := uuid.NewString()
	return &Session{
		id:      id,
		backend: backend,
		source:  source,
		opts:    opts,
		logger:  opts.Logger.With("session_id", id),
		state:   StateIdle,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) AppointmentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appointmentID
}

// LastKnown is the latest watched sample, kept for local display only.
func (s *Session) LastKnown() (walk.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastKnown == nil {
		return walk.Position{}, false
	}
	return *s.lastKnown, true
}

// Released counts how many times the watch and ticker were released.
func (s *Session) Released() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{SessionID: s.id, AppointmentID: s.appointmentID, State: s.state}
	if s.lastKnown != nil {
		pos := *s.lastKnown
		st.LastKnown = &pos
	}
	return st
}

// Start begins tracking appointmentID. Any failure leaves the session idle
// with nothing to release.
func (s *Session) Start(ctx context.Context, appointmentID string) error {
	s.mu.Lock()
	if s.state != StateIdle || s.busy {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start while %s", ErrInvalidState, state)
	}
	s.busy = true
	s.mu.Unlock()
	defer s.clearBusy()

	pos, err := s.source.CurrentPosition(ctx)
	if err != nil {
		return fmt.Errorf("start tracking %s: %w", appointmentID, err)
	}
	if err := s.backend.StartTracking(ctx, appointmentID, pos); err != nil {
		return fmt.Errorf("start tracking %s: %w", appointmentID, err)
	}

	handle, err := s.source.Watch(s.onSample, s.onWatchError)
	if err != nil {
		// The backend already marked the walk as tracked; undo it.
		if stopErr := s.backend.StopTracking(context.WithoutCancel(ctx), appointmentID, &pos); stopErr != nil {
			s.logger.Warn("rollback stop failed", "appointment_id", appointmentID, "error", stopErr)
		}
		return fmt.Errorf("watch position for %s: %w", appointmentID, err)
	}

	s.mu.Lock()
	s.appointmentID = appointmentID
	s.lastKnown = &pos
	s.watch = handle
	s.ticker = s.opts.Clock.Ticker(s.opts.UploadInterval)
	s.done = make(chan struct{})
	uploadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelUploads = cancel
	s.state = StateTracking
	ticker, done := s.ticker, s.done
	s.mu.Unlock()

	s.logger.Info("tracking started", "appointment_id", appointmentID, "lat", pos.Lat, "lng", pos.Lng)
	s.record(ctx, journal.KindStarted, &pos, "")

	go s.uploadLoop(uploadCtx, ticker, done)
	return nil
}

// Stop ends tracking. Periodic uploads are halted and drained before the
// final fix is taken, so stop-tracking is the last call the backend sees.
// The watch and ticker are released whether or not the final fix or the stop
// call succeeds; the stop call's error is returned afterwards.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateTracking || s.busy {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot stop while %s", ErrInvalidState, state)
	}
	s.busy = true
	appointmentID := s.appointmentID
	s.haltUploadsLocked()
	s.mu.Unlock()
	s.inflight.Wait()

	defer func() {
		s.mu.Lock()
		released := s.releaseLocked()
		s.busy = false
		s.mu.Unlock()
		if released {
			s.record(context.WithoutCancel(ctx), journal.KindReleased, nil, "")
		}
	}()

	var final *walk.Position
	fixCtx, cancel := context.WithTimeout(ctx, s.opts.FinalFixTimeout)
	pos, err := s.source.CurrentPosition(fixCtx)
	cancel()
	if err != nil {
		s.logger.Warn("final fix unavailable, stopping without it", "appointment_id", appointmentID, "error", err)
	} else {
		final = &pos
		s.setLastKnown(pos)
	}

	if err := s.backend.StopTracking(ctx, appointmentID, final); err != nil {
		s.logger.Warn("stop tracking failed", "appointment_id", appointmentID, "error", err)
		s.record(ctx, journal.KindStopFailed, final, err.Error())
		return fmt.Errorf("stop tracking %s: %w", appointmentID, err)
	}
	s.logger.Info("tracking stopped", "appointment_id", appointmentID)
	s.record(ctx, journal.KindStopped, final, "")
	return nil
}

// Close releases the watch and ticker of a tracking session without telling
// the backend. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	released := s.releaseLocked()
	s.mu.Unlock()
	s.inflight.Wait()
	if released {
		s.logger.Info("tracking session closed", "appointment_id", s.AppointmentID())
		s.record(context.Background(), journal.KindReleased, nil, "closed")
	}
}

func (s *Session) releaseLocked() bool {
	if s.state != StateTracking {
		return false
	}
	s.source.Unwatch(s.watch)
	s.haltUploadsLocked()
	s.watch = ""
	s.released++
	s.state = StateStopped
	return true
}

// haltUploadsLocked stops the ticker, closes done and cancels any upload
// request still on the wire. Idempotent.
func (s *Session) haltUploadsLocked() {
	if s.done == nil {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.cancelUploads()
	s.ticker = nil
	s.done = nil
	s.cancelUploads = nil
}

func (s *Session) clearBusy() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) uploadLoop(ctx context.Context, ticker *clock.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if isClosed(done) {
				return
			}
			s.upload(ctx, done)
		}
	}
}

func (s *Session) upload(ctx context.Context, done <-chan struct{}) {
	appointmentID := s.AppointmentID()
	recordCtx := context.WithoutCancel(ctx)
	pos, err := s.source.CurrentPosition(ctx)
	if err != nil {
		if isClosed(done) {
			return
		}
		s.logger.Warn("upload skipped, no fix", "appointment_id", appointmentID, "error", err)
		s.record(recordCtx, journal.KindUploadFailed, nil, err.Error())
		return
	}

	s.mu.Lock()
	if isClosed(done) {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	s.setLastKnown(pos)
	if err := s.backend.UpdateLocation(ctx, appointmentID, pos); err != nil {
		s.logger.Warn("location upload failed", "appointment_id", appointmentID, "error", err)
		s.record(recordCtx, journal.KindUploadFailed, &pos, err.Error())
		return
	}
	s.record(recordCtx, journal.KindUploaded, &pos, "")
}

func isClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func (s *Session) onSample(pos walk.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return
	}
	s.lastKnown = &pos
}

func (s *Session) onWatchError(err error) {
	s.logger.Warn("position watch error", "error", err)
}

func (s *Session) setLastKnown(pos walk.Position) {
	s.mu.Lock()
	if s.state != StateStopped {
		s.lastKnown = &pos
	}
	s.mu.Unlock()
}

func (s *Session) record(ctx context.Context, kind journal.Kind, pos *walk.Position, detail string) {
	if s.opts.Journal == nil {
		return
	}
	ev := journal.Event{SessionID: s.id, AppointmentID: s.AppointmentID(), Kind: kind, Detail: detail}
	if pos != nil {
		lat, lng := pos.Lat, pos.Lng
		ev.Lat, ev.Lng = &lat, &lng
	}
	if _, err := s.opts.Journal.Record(ctx, ev); err != nil {
		s.logger.Warn("journal record failed", "kind", kind, "error", err)
	}
}
