package geo

import "testing"

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestPathLengthM(t *testing.T) {
	if PathLengthM(nil) != 0 || PathLengthM([][2]float64{{40, -73}}) != 0 {
		t.Fatalf("expected zero length for degenerate paths")
	}
	// 0.001 deg latitude is roughly 111 m
	d := PathLengthM([][2]float64{{40.0, -73.0}, {40.001, -73.0}, {40.002, -73.0}})
	if d < 215 || d > 230 {
		t.Fatalf("unexpected path length: %v", d)
	}
}

func TestBounds(t *testing.T) {
	rect := Bounds([][2]float64{{40.0, -73.0}, {40.002, -73.004}})
	if rect.IsEmpty() {
		t.Fatalf("expected non-empty bounds")
	}
	c := rect.Center()
	if c.Lat.Degrees() < 40.0 || c.Lat.Degrees() > 40.002 {
		t.Fatalf("unexpected center: %v", c)
	}
	if !Bounds(nil).IsEmpty() {
		t.Fatalf("expected empty bounds")
	}
}
