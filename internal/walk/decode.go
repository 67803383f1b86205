package walk

import (
	"encoding/json"
	"fmt"
)

type walkerWire struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Color    string `json:"color"`
}

type petWire struct {
	Name string `json:"name"`
}

type detailWire struct {
	ID              string       `json:"id"`
	AppointmentID   string       `json:"appointment_id"`
	Status          Status       `json:"status"`
	WalkerID        string       `json:"walker_id"`
	WalkerName      *string      `json:"walker_name"`
	WalkerColor     string       `json:"walker_color"`
	Walker          *walkerWire  `json:"walker"`
	PetNames        []string     `json:"pet_names"`
	Pets            []petWire    `json:"pets"`
	GPSRoute        []RoutePoint `json:"gps_route"`
	CurrentLocation *Position    `json:"current_location"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationMinutes float64      `json:"duration_minutes"`
	IsTracking      *bool        `json:"is_tracking"`
}

// DecodeDetail resolves both live-tracking response variants into one
// canonical Detail. The flat variant carries walker_name and pet_names; the
// nested one carries walker.full_name and pets[].name. When both appear the
// flat fields win.
func DecodeDetail(data []byte) (Detail, error) {
	var w detailWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Detail{}, fmt.Errorf("decode walk detail: %w", err)
	}

	d := Detail{
		Shape:           ShapeSummary,
		ID:              w.ID,
		Status:          w.Status,
		WalkerID:        w.WalkerID,
		WalkerColor:     w.WalkerColor,
		GPSRoute:        w.GPSRoute,
		CurrentLocation: w.CurrentLocation,
		DistanceMeters:  w.DistanceMeters,
		DurationMinutes: w.DurationMinutes,
	}
	if d.ID == "" {
		d.ID = w.AppointmentID
	}
	if d.GPSRoute == nil {
		d.GPSRoute = []RoutePoint{}
	}

	if (w.WalkerName == nil && w.Walker != nil) || (w.PetNames == nil && w.Pets != nil) {
		d.Shape = ShapeDetail
	}

	switch {
	case w.WalkerName != nil:
		d.WalkerName = *w.WalkerName
	case w.Walker != nil:
		d.WalkerName = w.Walker.FullName
	}
	if w.Walker != nil {
		if d.WalkerID == "" {
			d.WalkerID = w.Walker.ID
		}
		if d.WalkerColor == "" {
			d.WalkerColor = w.Walker.Color
		}
	}

	switch {
	case w.PetNames != nil:
		d.PetNames = w.PetNames
	case w.Pets != nil:
		d.PetNames = make([]string, 0, len(w.Pets))
		for _, p := range w.Pets {
			d.PetNames = append(d.PetNames, p.Name)
		}
	default:
		d.PetNames = []string{}
	}

	if w.IsTracking != nil {
		d.IsTracking = *w.IsTracking
	} else {
		d.IsTracking = d.Status == StatusInProgress && len(d.GPSRoute) > 0
	}
	if d.Status != "" && d.Status != StatusInProgress {
		d.CurrentLocation = nil
	}
	return d, nil
}
