// Package mapview keeps what the map widget should show for a session and
// exports it as GeoJSON or KML.
package mapview

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"backend-videosync/internal/syncpoint"
	"backend-videosync/internal/track"
)

// Viewport is either a padded bound or a centre with a zoom level.
type Viewport struct {
	Bound  *orb.Bound
	Center *orb.Point
	Zoom   int
}

type marker struct {
	lat   float64
	lon   float64
	popup string
}

// GeoJSONView implements track.View and syncpoint.MarkerView.
type GeoJSONView struct {
	mu       sync.RWMutex
	segments []track.Segment
	point    *track.TrackPoint
	markers  map[syncpoint.Source]marker
	viewport Viewport
}

func New() *GeoJSONView {
	return &GeoJSONView{markers: map[syncpoint.Source]marker{}}
}

func (v *GeoJSONView) ClearTrack() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.segments = nil
	v.point = nil
	v.viewport = Viewport{}
}

func (v *GeoJSONView) DrawSegments(segments []track.Segment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.segments = append([]track.Segment(nil), segments...)
}

func (v *GeoJSONView) DrawPoint(p track.TrackPoint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.point = &p
}

func (v *GeoJSONView) FitBounds(b orb.Bound) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.viewport = Viewport{Bound: &b}
}

func (v *GeoJSONView) Center(lat, lon float64, zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c := orb.Point{lon, lat}
	v.viewport = Viewport{Center: &c, Zoom: zoom}
}

func (v *GeoJSONView) PlaceMarker(source syncpoint.Source, lat, lon float64, popup string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.markers[source] = marker{lat: lat, lon: lon, popup: popup}
}

func (v *GeoJSONView) ClearMarkers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.markers = map[syncpoint.Source]marker{}
}

func (v *GeoJSONView) Viewport() Viewport {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.viewport
}

// FeatureCollection renders the current state. Segments come first, then the
// single-point marker, then the sync markers (suggested before manual).
func (v *GeoJSONView) FeatureCollection() *geojson.FeatureCollection {
	v.mu.RLock()
	defer v.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, seg := range v.segments {
		f := geojson.NewFeature(orb.LineString{
			{seg.From.Lon, seg.From.Lat},
			{seg.To.Lon, seg.To.Lat},
		})
		f.Properties["kind"] = "segment"
		f.Properties["segment"] = seg.Index
		f.Properties["speed_kmh"] = seg.SpeedKmh
		f.Properties["color"] = seg.Color
		fc.Append(f)
	}
	if v.point != nil {
		f := geojson.NewFeature(orb.Point{v.point.Lon, v.point.Lat})
		f.Properties["kind"] = "track_point"
		f.Properties["original_index"] = v.point.OriginalIndex
		fc.Append(f)
	}
	for _, source := range []syncpoint.Source{syncpoint.Suggested, syncpoint.Manual} {
		m, ok := v.markers[source]
		if !ok {
			continue
		}
		f := geojson.NewFeature(orb.Point{m.lon, m.lat})
		f.Properties["kind"] = "sync_marker"
		f.Properties["source"] = source.String()
		f.Properties["popup"] = m.popup
		fc.Append(f)
	}

	switch {
	case v.viewport.Bound != nil:
		fc.BBox = geojson.NewBBox(*v.viewport.Bound)
	case v.viewport.Center != nil:
		fc.ExtraMembers = geojson.Properties{
			"center": []float64{v.viewport.Center.Lon(), v.viewport.Center.Lat()},
			"zoom":   v.viewport.Zoom,
		}
	}
	return fc
}

// MarshalJSON encodes the current state as a GeoJSON FeatureCollection.
func (v *GeoJSONView) MarshalJSON() ([]byte, error) {
	return v.FeatureCollection().MarshalJSON()
}
