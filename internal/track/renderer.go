package track

import (
	"errors"
	"log"
	"math"
	"sync"

	"github.com/paulmach/orb"

	"backend-videosync/internal/shared/geo"
)

var (
	ErrNoValidPoints    = errors.New("no valid track points")
	ErrDegenerateBounds = errors.New("track bounds are degenerate")
)

const (
	SinglePointZoom = 15
	BoundsPadding   = 0.1
)

// View is the map surface a Renderer draws on.
type View interface {
	ClearTrack()
	DrawSegments(segments []Segment)
	DrawPoint(p TrackPoint)
	FitBounds(b orb.Bound)
	Center(lat, lon float64, zoom int)
}

type noopView struct{}

func (noopView) ClearTrack()                  {}
func (noopView) DrawSegments([]Segment)       {}
func (noopView) DrawPoint(TrackPoint)         {}
func (noopView) FitBounds(orb.Bound)          {}
func (noopView) Center(float64, float64, int) {}

// Renderer owns the displayed track and answers hit tests against it.
type Renderer struct {
	mu     sync.RWMutex
	view   View
	points []TrackPoint
	mode   Mode
}

func NewRenderer(view View) *Renderer {
	if view == nil {
		view = noopView{}
	}
	return &Renderer{view: view}
}

// SetTrack replaces the displayed track. Points are re-validated strictly; the
// previous rendering is always removed first, even when the new set is rejected.
func (r *Renderer) SetTrack(points []TrackPoint) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.view.ClearTrack()
	r.points = nil
	r.mode = ModeEmpty

	valid := make([]TrackPoint, 0, len(points))
	for _, p := range points {
		if err := CheckCoordinates(p.Lat, p.Lon, Strict); err != nil {
			continue
		}
		valid = append(valid, p)
	}
	res := Result{Valid: len(valid), Rejected: len(points) - len(valid)}
	if res.Rejected > 0 {
		log.Printf("track: dropped %d of %d points", res.Rejected, len(points))
	}

	switch len(valid) {
	case 0:
		return res, ErrNoValidPoints
	case 1:
		p := valid[0]
		r.view.DrawPoint(p)
		r.view.Center(p.Lat, p.Lon, SinglePointZoom)
		r.points = valid
		r.mode = ModeMarker
		res.Mode = ModeMarker
		return res, nil
	}

	bound := Bounds(valid)
	if err := CheckBounds(bound); err != nil {
		return Result{Rejected: res.Rejected}, err
	}

	segments := make([]Segment, 0, len(valid)-1)
	for i := 0; i < len(valid)-1; i++ {
		speed := SegmentSpeed(valid[i], valid[i+1])
		segments = append(segments, Segment{
			Index:    i,
			From:     valid[i],
			To:       valid[i+1],
			SpeedKmh: speed,
			Color:    SpeedColor(speed),
		})
	}
	r.view.DrawSegments(segments)
	r.view.FitBounds(PadBound(bound, BoundsPadding))

	r.points = valid
	r.mode = ModePath
	res.Mode = ModePath
	return res, nil
}

// Clear removes the displayed track.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.ClearTrack()
	r.points = nil
	r.mode = ModeEmpty
}

func (r *Renderer) Mode() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// Points returns a copy of the displayed points.
func (r *Renderer) Points() []TrackPoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TrackPoint, len(r.points))
	copy(out, r.points)
	return out
}

// FindNearest returns the displayed point closest to (lat, lon). Ties go to the
// earliest point.
func (r *Renderer) FindNearest(lat, lon float64) (TrackPoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := -1
	bestDist := math.Inf(1)
	for i, p := range r.points {
		d := geo.HaversineM(lat, lon, p.Lat, p.Lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return TrackPoint{}, false
	}
	return r.points[best], true
}

// Bounds is the bounding box of points in orb's lon/lat order.
func Bounds(points []TrackPoint) orb.Bound {
	ls := make(orb.LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, orb.Point{p.Lon, p.Lat})
	}
	return ls.Bound()
}

// CheckBounds rejects boxes spanning more than 180° of latitude or 360° of longitude.
func CheckBounds(b orb.Bound) error {
	if b.Max.Lat()-b.Min.Lat() > 180 || b.Max.Lon()-b.Min.Lon() > 360 {
		return ErrDegenerateBounds
	}
	return nil
}

// PadBound grows b on every side by ratio of its own width and height.
func PadBound(b orb.Bound, ratio float64) orb.Bound {
	dLon := (b.Max.Lon() - b.Min.Lon()) * ratio
	dLat := (b.Max.Lat() - b.Min.Lat()) * ratio
	return orb.Bound{
		Min: orb.Point{b.Min.Lon() - dLon, b.Min.Lat() - dLat},
		Max: orb.Point{b.Max.Lon() + dLon, b.Max.Lat() + dLat},
	}
}
