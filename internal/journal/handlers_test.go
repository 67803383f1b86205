package journal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func TestJournalHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, session_id, appointment_id, kind`).
		WithArgs("appt-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "session_id", "appointment_id", "kind", "lat", "lng", "detail", "recorded_at"}).
			AddRow("e1", "session-1", "appt-1", "started", (*float64)(nil), (*float64)(nil), "", time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), NewService(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tracking/appt-1/events", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("events status: %v", err)
	}
}

func TestJournalHandlersDisabled(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), NewService(nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tracking/appt-1/events", nil))
	if err != nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected unavailable")
	}
}

func TestJournalHandlersError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, session_id, appointment_id, kind`).
		WithArgs("appt-err").
		WillReturnError(errJournal)

	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), NewService(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tracking/appt-err/events", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected error")
	}
}
