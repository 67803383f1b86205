package walk

import "time"

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Position is one device location sample.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RoutePoint is one recorded point of a walk's GPS route. Routes are
// chronological and append-only; nothing in this module reorders them.
type RoutePoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp string  `json:"timestamp"`
}

func (p RoutePoint) Position() Position {
	return Position{Lat: p.Lat, Lng: p.Lng}
}

// RecordedAt parses the ISO-8601 timestamp, returning the zero time when it
// is missing or malformed.
func (p RoutePoint) RecordedAt() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, p.Timestamp); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Summary is one entry of the active or completed walk lists.
type Summary struct {
	ID              string       `json:"id"`
	Status          Status       `json:"status,omitempty"`
	WalkerID        string       `json:"walker_id,omitempty"`
	WalkerName      string       `json:"walker_name,omitempty"`
	WalkerColor     string       `json:"walker_color,omitempty"`
	PetNames        []string     `json:"pet_names,omitempty"`
	ScheduledDate   string       `json:"scheduled_date,omitempty"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationMinutes float64      `json:"duration_minutes"`
	IsTracking      bool         `json:"is_tracking"`
	GPSRoute        []RoutePoint `json:"gps_route,omitempty"`
	CurrentLocation *Position    `json:"current_location,omitempty"`
}

// Shape tags which response variant a Detail was decoded from.
type Shape string

const (
	// ShapeSummary is the flat variant: walker_name, pet_names.
	ShapeSummary Shape = "summary"
	// ShapeDetail is the nested variant: walker.full_name, pets[].name.
	ShapeDetail Shape = "detail"
)

// Detail is the canonical live-tracking payload for one walk.
type Detail struct {
	Shape           Shape        `json:"shape"`
	ID              string       `json:"id"`
	Status          Status       `json:"status,omitempty"`
	WalkerID        string       `json:"walker_id,omitempty"`
	WalkerName      string       `json:"walker_name"`
	WalkerColor     string       `json:"walker_color,omitempty"`
	PetNames        []string     `json:"pet_names"`
	GPSRoute        []RoutePoint `json:"gps_route"`
	CurrentLocation *Position    `json:"current_location,omitempty"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationMinutes float64      `json:"duration_minutes"`
	IsTracking      bool         `json:"is_tracking"`
}

// DetailFromSummary uses list data directly as the detail payload.
func DetailFromSummary(s Summary) Detail {
	d := Detail{
		Shape:           ShapeSummary,
		ID:              s.ID,
		Status:          s.Status,
		WalkerID:        s.WalkerID,
		WalkerName:      s.WalkerName,
		WalkerColor:     s.WalkerColor,
		PetNames:        append([]string(nil), s.PetNames...),
		GPSRoute:        append([]RoutePoint(nil), s.GPSRoute...),
		DistanceMeters:  s.DistanceMeters,
		DurationMinutes: s.DurationMinutes,
		IsTracking:      s.IsTracking,
	}
	if s.CurrentLocation != nil {
		loc := *s.CurrentLocation
		d.CurrentLocation = &loc
	}
	return d
}

// Clone returns a deep copy so callers can hand details across goroutines.
func (d Detail) Clone() Detail {
	out := d
	out.PetNames = append([]string(nil), d.PetNames...)
	out.GPSRoute = append([]RoutePoint(nil), d.GPSRoute...)
	if d.CurrentLocation != nil {
		loc := *d.CurrentLocation
		out.CurrentLocation = &loc
	}
	return out
}

// Appointment is a scheduled service instance. The walk picker uses these to
// feed appointment ids into a tracking session.
type Appointment struct {
	ID            string   `json:"id"`
	Status        Status   `json:"status"`
	ServiceType   string   `json:"service_type,omitempty"`
	WalkerID      string   `json:"walker_id,omitempty"`
	ClientName    string   `json:"client_name,omitempty"`
	PetNames      []string `json:"pet_names,omitempty"`
	ScheduledDate string   `json:"scheduled_date,omitempty"`
	ScheduledTime string   `json:"scheduled_time,omitempty"`
}

// Startable reports whether a walker may begin tracking this appointment.
func (a Appointment) Startable() bool {
	return a.Status == StatusScheduled
}
