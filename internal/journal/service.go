package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/db"
)

var ErrDisabled = errors.New("tracking journal disabled")

type Service struct {
	db db.Querier
}

// NewService returns a journal over q. A nil q disables it.
func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Enabled() bool {
	return s != nil && s.db != nil
}

func (s *Service) Record(ctx context.Context, ev Event) (Event, error) {
	if !s.Enabled() {
		return ev, ErrDisabled
	}
	ev.ID = uuid.NewString()
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO walk_tracking_events (id, session_id, appointment_id, kind, lat, lng, detail, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING recorded_at
	`, ev.ID, ev.SessionID, ev.AppointmentID, string(ev.Kind), ev.Lat, ev.Lng, ev.Detail, ev.RecordedAt)
	if err := row.Scan(&ev.RecordedAt); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (s *Service) Events(ctx context.Context, appointmentID string) ([]Event, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, appointment_id, kind, lat, lng, detail, recorded_at
		FROM walk_tracking_events WHERE appointment_id=$1
		ORDER BY recorded_at
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var kind string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.AppointmentID, &kind, &ev.Lat, &ev.Lng, &ev.Detail, &ev.RecordedAt); err != nil {
			return nil, err
		}
		ev.Kind = Kind(kind)
		events = append(events, ev)
	}
	return events, rows.Err()
}
