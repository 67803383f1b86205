package route

import (
	"math"
	"sync"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/shared/geo"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

const (
	defaultZoom = 16
	minZoom     = 3
	maxZoom     = 18
)

type Role string

const (
	RoleStart   Role = "start"
	RoleCurrent Role = "current"
	RoleEnd     Role = "end"
)

type Input struct {
	Route   []walk.RoutePoint
	Current *walk.Position
	Color   string
	Live    bool
}

// InputFromDetail builds renderer input from a walk's live detail.
func InputFromDetail(d walk.Detail, live bool) Input {
	return Input{Route: d.GPSRoute, Current: d.CurrentLocation, Color: d.WalkerColor, Live: live}
}

type Marker struct {
	Role     Role          `json:"role"`
	Position walk.Position `json:"position"`
	Color    string        `json:"color,omitempty"`
}

type Viewport struct {
	Center walk.Position `json:"center"`
	Zoom   int           `json:"zoom"`
}

// Scene is everything a map view draws for one walk.
type Scene struct {
	Empty     bool            `json:"empty"`
	Path      []walk.Position `json:"path,omitempty"`
	Start     *Marker         `json:"start,omitempty"`
	Current   *Marker         `json:"current,omitempty"`
	Viewport  Viewport        `json:"viewport"`
	Color     string          `json:"color,omitempty"`
	DistanceM float64         `json:"distance_m"`
}

// Render draws a route. Points keep their input order. No points gives an
// empty placeholder; a single point gives only the start marker.
func Render(in Input) Scene {
	scene := Scene{Color: in.Color}
	if len(in.Route) == 0 {
		scene.Empty = true
		return scene
	}

	first := in.Route[0].Position()
	scene.Start = &Marker{Role: RoleStart, Position: first, Color: in.Color}
	if len(in.Route) == 1 {
		scene.Viewport = Viewport{Center: first, Zoom: defaultZoom}
		return scene
	}

	scene.Path = make([]walk.Position, len(in.Route))
	coords := make([][2]float64, len(in.Route))
	for i, p := range in.Route {
		scene.Path[i] = p.Position()
		coords[i] = [2]float64{p.Lat, p.Lng}
	}
	scene.DistanceM = geo.PathLengthM(coords)

	if in.Current != nil {
		scene.Current = &Marker{Role: RoleCurrent, Position: *in.Current, Color: in.Color}
		coords = append(coords, [2]float64{in.Current.Lat, in.Current.Lng})
	} else {
		scene.Current = &Marker{Role: RoleEnd, Position: scene.Path[len(scene.Path)-1], Color: in.Color}
	}
	scene.Viewport = fit(coords)
	return scene
}

func fit(coords [][2]float64) Viewport {
	rect := geo.Bounds(coords)
	center := rect.Center()
	span := math.Max(rect.Size().Lat.Degrees(), rect.Size().Lng.Degrees())
	zoom := defaultZoom
	if span > 0 {
		zoom = int(math.Floor(math.Log2(360 / span)))
	}
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	return Viewport{
		Center: walk.Position{Lat: center.Lat.Degrees(), Lng: center.Lng.Degrees()},
		Zoom:   zoom,
	}
}

// Renderer keeps the viewport of one map view across re-renders.
type Renderer struct {
	mu          sync.Mutex
	viewport    Viewport
	hasViewport bool
	lastCurrent *walk.Position
}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Update re-renders the scene. The first non-empty render fits the route;
// afterwards a live view recenters on each new current location and keeps
// its zoom, while a static view keeps its viewport.
func (r *Renderer) Update(in Input) Scene {
	scene := Render(in)

	r.mu.Lock()
	defer r.mu.Unlock()

	if scene.Empty {
		return scene
	}
	switch {
	case !r.hasViewport:
		r.viewport = scene.Viewport
		r.hasViewport = true
	case in.Live && in.Current != nil && (r.lastCurrent == nil || *r.lastCurrent != *in.Current):
		r.viewport.Center = *in.Current
	}
	if in.Current != nil {
		cur := *in.Current
		r.lastCurrent = &cur
	}
	scene.Viewport = r.viewport
	return scene
}

// Set holds one Renderer per walk.
type Set struct {
	mu        sync.Mutex
	renderers map[string]*Renderer
}

func NewSet() *Set {
	return &Set{renderers: map[string]*Renderer{}}
}

func (s *Set) For(walkID string) *Renderer {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.renderers[walkID]
	if !ok {
		r = NewRenderer()
		s.renderers[walkID] = r
	}
	return r
}

func (s *Set) Forget(walkID string) {
	s.mu.Lock()
	delete(s.renderers, walkID)
	s.mu.Unlock()
}
