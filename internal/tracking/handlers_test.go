package tracking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/journal"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

func newTrackingApp(mgr *Manager) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), mgr, journal.NewService(nil))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestTrackingHandlersLifecycle(t *testing.T) {
	src := newFakeSource(fix{pos: walk.Position{Lat: 40, Lng: -73}})
	mgr := newTestManager(newFakeBackend(), src, nil, nil)
	app := newTrackingApp(mgr)

	resp := postJSON(t, app, "/tracking/start", StartRequest{AppointmentID: "appt-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status %d", resp.StatusCode)
	}
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil || st.State != StateTracking || st.AppointmentID != "appt-1" {
		t.Fatalf("unexpected start body: %+v %v", st, err)
	}

	resp = postJSON(t, app, "/tracking/start", StartRequest{AppointmentID: "appt-2"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/tracking", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code %d", resp.StatusCode)
	}

	src.push(fix{pos: walk.Position{Lat: 40.002, Lng: -73.002}})
	resp = postJSON(t, app, "/tracking/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status %d", resp.StatusCode)
	}
	resp = postJSON(t, app, "/tracking/stop", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second stop should conflict, got %d", resp.StatusCode)
	}
}

func TestTrackingHandlersErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		src    *fakeSource
		be     *fakeBackend
		can    func() bool
		body   any
		status int
	}{
		{"missing appointment", newFakeSource(), newFakeBackend(), nil, map[string]string{}, http.StatusBadRequest},
		{"location unavailable", newFakeSource(), newFakeBackend(), nil, StartRequest{AppointmentID: "a"}, http.StatusUnprocessableEntity},
		{"location unsupported", newFakeSource(fix{err: walk.ErrLocationUnsupported}), newFakeBackend(), nil, StartRequest{AppointmentID: "a"}, http.StatusUnprocessableEntity},
		{"backend failure", newFakeSource(fix{pos: walk.Position{Lat: 1, Lng: 1}}), &fakeBackend{updates: make(chan backendCall, 1), startErr: fmt.Errorf("%w: 500", walk.ErrTrackingBackend)}, nil, StartRequest{AppointmentID: "a"}, http.StatusBadGateway},
		{"not a walker", newFakeSource(), newFakeBackend(), func() bool { return false }, StartRequest{AppointmentID: "a"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTrackingApp(newTestManager(tc.be, tc.src, nil, tc.can))
			resp := postJSON(t, app, "/tracking/start", tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}

func TestTrackingHandlersStopBackendFailure(t *testing.T) {
	src := newFakeSource(fix{pos: walk.Position{Lat: 1, Lng: 1}})
	be := newFakeBackend()
	be.stopErr = fmt.Errorf("%w: 503", walk.ErrTrackingBackend)
	mgr := newTestManager(be, src, nil, nil)
	app := newTrackingApp(mgr)

	if resp := postJSON(t, app, "/tracking/start", StartRequest{AppointmentID: "appt-1"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status %d", resp.StatusCode)
	}
	resp := postJSON(t, app, "/tracking/stop", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected bad gateway, got %d", resp.StatusCode)
	}
	if mgr.Current().State() != StateStopped {
		t.Fatalf("stop failure must still release the session")
	}
}

func TestTrackingEventsDisabledJournal(t *testing.T) {
	app := newTrackingApp(newTestManager(newFakeBackend(), newFakeSource(), nil, nil))
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/tracking/appt-1/events", nil))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected unavailable journal, got %d", resp.StatusCode)
	}
}
