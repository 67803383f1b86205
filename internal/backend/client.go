package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

// Client talks to the booking service REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) ActiveWalks(ctx context.Context) ([]walk.Summary, error) {
	var walks []walk.Summary
	if err := c.getJSON(ctx, "/walks/active", nil, &walks); err != nil {
		return nil, err
	}
	return walks, nil
}

func (c *Client) CompletedWalks(ctx context.Context) ([]walk.Summary, error) {
	var walks []walk.Summary
	if err := c.getJSON(ctx, "/walks/completed", nil, &walks); err != nil {
		return nil, err
	}
	return walks, nil
}

// LiveTracking fetches the full route and current location of one walk.
func (c *Client) LiveTracking(ctx context.Context, appointmentID string) (walk.Detail, error) {
	path := "/appointments/" + url.PathEscape(appointmentID) + "/live-tracking"
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return walk.Detail{}, err
	}
	d, err := walk.DecodeDetail(body)
	if err != nil {
		return walk.Detail{}, fmt.Errorf("%w: GET %s: %w", walk.ErrTrackingBackend, path, err)
	}
	if d.ID == "" {
		d.ID = appointmentID
	}
	return d, nil
}

func (c *Client) StartTracking(ctx context.Context, appointmentID string, pos walk.Position) error {
	_, err := c.do(ctx, http.MethodPost, trackingPath(appointmentID, "start-tracking"), positionQuery(&pos))
	return err
}

func (c *Client) UpdateLocation(ctx context.Context, appointmentID string, pos walk.Position) error {
	_, err := c.do(ctx, http.MethodPost, trackingPath(appointmentID, "update-location"), positionQuery(&pos))
	return err
}

// StopTracking ends tracking. A nil final position sends the call without
// lat/lng.
func (c *Client) StopTracking(ctx context.Context, appointmentID string, final *walk.Position) error {
	_, err := c.do(ctx, http.MethodPost, trackingPath(appointmentID, "stop-tracking"), positionQuery(final))
	return err
}

// Appointments lists the appointments visible to the token's role.
func (c *Client) Appointments(ctx context.Context) ([]walk.Appointment, error) {
	var appts []walk.Appointment
	if err := c.getJSON(ctx, "/appointments", nil, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// AppointmentsOn lists the appointments scheduled on date.
func (c *Client) AppointmentsOn(ctx context.Context, date time.Time) ([]walk.Appointment, error) {
	var appts []walk.Appointment
	q := url.Values{"date": {date.Format("2006-01-02")}}
	if err := c.getJSON(ctx, "/appointments", q, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: GET %s: decode: %w", walk.ErrTrackingBackend, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", walk.ErrTrackingBackend, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", walk.ErrTrackingBackend, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %w", walk.ErrTrackingBackend, method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Method: method, Path: path, Status: resp.StatusCode, Detail: errorDetail(body)}
	}
	return body, nil
}

func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		return detail
	}
	// validation errors arrive as a structured list
	return string(payload.Detail)
}

func trackingPath(appointmentID, action string) string {
	return "/appointments/" + url.PathEscape(appointmentID) + "/" + action
}

func positionQuery(pos *walk.Position) url.Values {
	if pos == nil {
		return nil
	}
	return url.Values{
		"lat": {strconv.FormatFloat(pos.Lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(pos.Lng, 'f', -1, 64)},
	}
}
