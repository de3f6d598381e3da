package syncpoint

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"backend-videosync/internal/i18n"
	"backend-videosync/internal/track"
)

var ErrInvalidCoordinates = errors.New("invalid sync point coordinates")

type Source int

const (
	Suggested Source = iota + 1
	Manual
)

func (s Source) String() string {
	switch s {
	case Suggested:
		return "suggested"
	case Manual:
		return "manual"
	default:
		return "unknown"
	}
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(text []byte) error {
	switch string(text) {
	case "suggested":
		*s = Suggested
	case "manual":
		*s = Manual
	default:
		return fmt.Errorf("unknown sync point source %q", text)
	}
	return nil
}

// Candidate is a point offered for selection, either by the server or by a map click.
type Candidate struct {
	Lat         float64
	Lon         float64
	Time        *time.Time
	DisplayTime string
	Speed       *float64
	HeartRate   *float64
}

// FromTrackPoint builds a candidate from a rendered track point.
func FromTrackPoint(p track.TrackPoint) Candidate {
	return Candidate{Lat: p.Lat, Lon: p.Lon, Time: p.Time, Speed: p.Speed, HeartRate: p.HeartRate}
}

type SyncPoint struct {
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
	Time        *time.Time `json:"time,omitempty"`
	DisplayTime string     `json:"display_time,omitempty"`
	Source      Source     `json:"source"`
	Speed       *float64   `json:"speed,omitempty"`
	HeartRate   *float64   `json:"heart_rate,omitempty"`
}

// MarkerView shows one marker per source. Placing a marker replaces only the
// marker of the same source.
type MarkerView interface {
	PlaceMarker(source Source, lat, lon float64, popup string)
	ClearMarkers()
}

type noopMarkers struct{}

func (noopMarkers) PlaceMarker(Source, float64, float64, string) {}
func (noopMarkers) ClearMarkers()                                {}

// Selector owns the single current sync point. Every successful Select overwrites it.
type Selector struct {
	mu       sync.RWMutex
	view     MarkerView
	loc      *i18n.Localizer
	current  *SyncPoint
	revision uint64
}

func NewSelector(view MarkerView, loc *i18n.Localizer) *Selector {
	if view == nil {
		view = noopMarkers{}
	}
	if loc == nil {
		loc = i18n.NewLocalizer("")
	}
	return &Selector{view: view, loc: loc}
}

// Select validates c leniently and makes it current. On rejection the previous
// point is kept. The returned string describes the selection in the session language.
func (s *Selector) Select(c Candidate, source Source) (string, error) {
	if err := track.CheckCoordinates(c.Lat, c.Lon, track.Lenient); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}

	p := SyncPoint{
		Lat:         c.Lat,
		Lon:         c.Lon,
		Time:        c.Time,
		DisplayTime: c.DisplayTime,
		Source:      source,
		Speed:       c.Speed,
		HeartRate:   c.HeartRate,
	}
	desc := s.Describe(p)
	popup := desc + "\n" + s.loc.T("sync_point_coords", map[string]string{
		"lat": strconv.FormatFloat(p.Lat, 'f', 6, 64),
		"lon": strconv.FormatFloat(p.Lon, 'f', 6, 64),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &p
	s.revision++
	s.view.PlaceMarker(source, p.Lat, p.Lon, popup)
	return desc, nil
}

// Describe renders "Point selected (<source>): <time> (UTC)" for p.
func (s *Selector) Describe(p SyncPoint) string {
	label := s.loc.T("manual_type", nil)
	if p.Source == Suggested {
		label = s.loc.T("suggestion_type", nil)
	}
	when := p.DisplayTime
	if when == "" && p.Time != nil {
		when = FormatTime(*p.Time, s.loc.Lang())
	}
	if when == "" {
		when = s.loc.T("time_unavailable", nil)
	}
	return s.loc.T("sync_point_selected", map[string]string{"type": label, "time": when})
}

// FormatTime prints t in UTC the way each supported language writes dates.
func FormatTime(t time.Time, lang string) string {
	t = t.UTC()
	if i18n.Normalize(lang) == i18n.LangEnglish {
		return t.Format("1/2/2006, 3:04:05 PM")
	}
	return t.Format("02/01/2006, 15:04:05")
}

func (s *Selector) Current() (SyncPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return SyncPoint{}, false
	}
	return *s.current, true
}

// Clear drops the current point and both markers.
func (s *Selector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.view.ClearMarkers()
}

// Revision counts successful selections.
func (s *Selector) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
