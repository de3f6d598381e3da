package track

import (
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

type recordingView struct {
	clears   int
	segments []Segment
	point    *TrackPoint
	bound    *orb.Bound
	zoom     int
}

func (v *recordingView) ClearTrack() {
	v.clears++
	v.segments = nil
	v.point = nil
	v.bound = nil
	v.zoom = 0
}

func (v *recordingView) DrawSegments(segments []Segment) { v.segments = segments }
func (v *recordingView) DrawPoint(p TrackPoint)          { v.point = &p }
func (v *recordingView) FitBounds(b orb.Bound)           { v.bound = &b }
func (v *recordingView) Center(lat, lon float64, zoom int) {
	v.zoom = zoom
}

func ptr(v float64) *float64 { return &v }

func TestSetTrackDerivedSpeedColour(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(30 * time.Second)
	view := &recordingView{}
	r := NewRenderer(view)

	res, err := r.SetTrack([]TrackPoint{
		{Lat: -15.7939, Lon: -47.8828, Time: &t0},
		{Lat: -15.7949, Lon: -47.8838, Time: &t1, OriginalIndex: 1},
	})
	if err != nil {
		t.Fatalf("set track: %v", err)
	}
	if res.Mode != ModePath || res.Valid != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(view.segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(view.segments))
	}
	seg := view.segments[0]
	if seg.SpeedKmh < 17 || seg.SpeedKmh > 20 {
		t.Fatalf("expected ~18.5 km/h, got %f", seg.SpeedKmh)
	}
	if seg.Color != SpeedColor(seg.SpeedKmh) || seg.Color != ColorModerate {
		t.Fatalf("unexpected colour %s for %f km/h", seg.Color, seg.SpeedKmh)
	}
	if view.bound == nil {
		t.Fatalf("expected viewport fit")
	}
	if view.bound.Min.Lat() >= -15.7949 || view.bound.Max.Lon() <= -47.8828 {
		t.Fatalf("viewport must be padded: %+v", view.bound)
	}
}

func TestSetTrackExplicitSpeedWins(t *testing.T) {
	view := &recordingView{}
	r := NewRenderer(view)
	_, err := r.SetTrack([]TrackPoint{
		{Lat: 1, Lon: 1, Speed: ptr(45)},
		{Lat: 1.001, Lon: 1.001},
		{Lat: 1.002, Lon: 1.002},
	})
	if err != nil {
		t.Fatalf("set track: %v", err)
	}
	if view.segments[0].Color != ColorMax {
		t.Fatalf("45 km/h should be red, got %s", view.segments[0].Color)
	}
	if view.segments[1].SpeedKmh != 0 || view.segments[1].Color != ColorSlow {
		t.Fatalf("missing timestamps should give zero speed")
	}
}

func TestSetTrackSinglePoint(t *testing.T) {
	view := &recordingView{}
	r := NewRenderer(view)
	res, err := r.SetTrack([]TrackPoint{{Lat: 0, Lon: 0}, {Lat: 10, Lon: 20}})
	if err != nil {
		t.Fatalf("set track: %v", err)
	}
	if res.Mode != ModeMarker || res.Rejected != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if view.point == nil || view.zoom != SinglePointZoom || view.segments != nil {
		t.Fatalf("expected marker mode rendering")
	}
}

func TestSetTrackEmptyIsIdempotent(t *testing.T) {
	view := &recordingView{}
	r := NewRenderer(view)
	if _, err := r.SetTrack([]TrackPoint{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}); err != nil {
		t.Fatalf("set track: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err := r.SetTrack([]TrackPoint{{Lat: 95, Lon: 1}, {Lat: 0, Lon: 0}})
		if !errors.Is(err, ErrNoValidPoints) {
			t.Fatalf("expected no valid points, got %v", err)
		}
		if r.Mode() != ModeEmpty || len(r.Points()) != 0 || view.segments != nil {
			t.Fatalf("previous track must be cleared")
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := r.SetTrack(nil); !errors.Is(err, ErrNoValidPoints) {
			t.Fatalf("expected no valid points for empty input, got %v", err)
		}
	}
	if view.clears != 5 {
		t.Fatalf("expected a clear per call, got %d", view.clears)
	}
}

func TestFindNearestFirstWins(t *testing.T) {
	r := NewRenderer(nil)
	if _, ok := r.FindNearest(1, 1); ok {
		t.Fatalf("expected no point on an empty renderer")
	}
	_, err := r.SetTrack([]TrackPoint{
		{Lat: 1, Lon: 1, OriginalIndex: 0},
		{Lat: 1, Lon: 3, OriginalIndex: 1},
		{Lat: 1, Lon: 1, OriginalIndex: 2},
	})
	if err != nil {
		t.Fatalf("set track: %v", err)
	}
	p, ok := r.FindNearest(1.0001, 1.0001)
	if !ok || p.OriginalIndex != 0 {
		t.Fatalf("expected first of the tied points, got %+v", p)
	}
	p, _ = r.FindNearest(1, 2.9)
	if p.OriginalIndex != 1 {
		t.Fatalf("expected second point, got %+v", p)
	}

	r.Clear()
	if _, ok := r.FindNearest(1, 1); ok {
		t.Fatalf("expected no point after clear")
	}
}

func TestCheckBounds(t *testing.T) {
	ok := orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}
	if err := CheckBounds(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := orb.Bound{Min: orb.Point{-190, -10}, Max: orb.Point{190, 10}}
	if err := CheckBounds(bad); !errors.Is(err, ErrDegenerateBounds) {
		t.Fatalf("expected degenerate bounds, got %v", err)
	}
}

func TestSpeedColorBuckets(t *testing.T) {
	cases := map[float64]string{
		0:   ColorSlow,
		9.9: ColorSlow,
		10:  ColorModerate,
		20:  ColorMedium,
		30:  ColorFast,
		40:  ColorMax,
		200: ColorMax,
	}
	for speed, want := range cases {
		if got := SpeedColor(speed); got != want {
			t.Fatalf("speed %f: expected %s, got %s", speed, want, got)
		}
	}
}
