package route

// FeatureCollection is the GeoJSON form of a Scene the dashboard map consumes.
type FeatureCollection struct {
	Type       string         `json:"type"`
	Features   []Feature      `json:"features"`
	Properties map[string]any `json:"properties"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// GeoJSON encodes the scene. Coordinates are [lng, lat] per RFC 7946.
func (s Scene) GeoJSON() FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
		Properties: map[string]any{
			"empty":      s.Empty,
			"distance_m": s.DistanceM,
			"center":     []float64{s.Viewport.Center.Lng, s.Viewport.Center.Lat},
			"zoom":       s.Viewport.Zoom,
		},
	}
	if len(s.Path) >= 2 {
		line := make([][]float64, len(s.Path))
		for i, p := range s.Path {
			line[i] = []float64{p.Lng, p.Lat}
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "LineString", Coordinates: line},
			Properties: map[string]any{"role": "path", "color": s.Color},
		})
	}
	for _, m := range []*Marker{s.Start, s.Current} {
		if m == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: []float64{m.Position.Lng, m.Position.Lat}},
			Properties: map[string]any{"role": string(m.Role), "color": m.Color},
		})
	}
	return fc
}
