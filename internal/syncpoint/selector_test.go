package syncpoint

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"backend-videosync/internal/i18n"
)

type markerLog struct {
	placed  map[Source]string
	cleared int
}

func (m *markerLog) PlaceMarker(source Source, lat, lon float64, popup string) {
	if m.placed == nil {
		m.placed = map[Source]string{}
	}
	m.placed[source] = popup
}

func (m *markerLog) ClearMarkers() {
	m.cleared++
	m.placed = nil
}

func TestSelectLatestWins(t *testing.T) {
	markers := &markerLog{}
	s := NewSelector(markers, i18n.NewLocalizer(i18n.LangEnglish))

	if _, err := s.Select(Candidate{Lat: 1, Lon: 1}, Manual); err != nil {
		t.Fatalf("select manual: %v", err)
	}
	if _, err := s.Select(Candidate{Lat: 2, Lon: 2}, Suggested); err != nil {
		t.Fatalf("select suggested: %v", err)
	}

	cur, ok := s.Current()
	if !ok || cur.Lat != 2 || cur.Source != Suggested {
		t.Fatalf("expected suggested point B to be current, got %+v", cur)
	}
	if len(markers.placed) != 2 {
		t.Fatalf("both markers must remain placed, got %d", len(markers.placed))
	}
	if s.Revision() != 2 {
		t.Fatalf("expected revision 2, got %d", s.Revision())
	}
}

func TestSelectRejectKeepsPrevious(t *testing.T) {
	s := NewSelector(nil, nil)
	if _, err := s.Select(Candidate{Lat: 10, Lon: 10}, Manual); err != nil {
		t.Fatalf("select: %v", err)
	}
	for _, c := range []Candidate{{Lat: 100, Lon: 0}, {Lat: math.NaN(), Lon: 0}, {Lat: 0, Lon: -181}} {
		if _, err := s.Select(c, Suggested); !errors.Is(err, ErrInvalidCoordinates) {
			t.Fatalf("expected invalid coordinates, got %v", err)
		}
	}
	cur, _ := s.Current()
	if cur.Lat != 10 || cur.Source != Manual {
		t.Fatalf("prior point must survive, got %+v", cur)
	}
	if s.Revision() != 1 {
		t.Fatalf("rejections must not bump the revision")
	}
}

func TestSelectAcceptsNullIsland(t *testing.T) {
	s := NewSelector(nil, nil)
	if _, err := s.Select(Candidate{Lat: 0, Lon: 0}, Manual); err != nil {
		t.Fatalf("single points are validated leniently: %v", err)
	}
}

func TestDescribe(t *testing.T) {
	ts := time.Date(2024, 5, 1, 14, 5, 9, 0, time.UTC)

	en := NewSelector(nil, i18n.NewLocalizer(i18n.LangEnglish))
	desc, _ := en.Select(Candidate{Lat: 1, Lon: 1, Time: &ts}, Manual)
	if desc != "Point selected (manual): 5/1/2024, 2:05:09 PM (UTC)" {
		t.Fatalf("unexpected english description: %q", desc)
	}
	desc, _ = en.Select(Candidate{Lat: 1, Lon: 1, Time: &ts, DisplayTime: "14:05:09"}, Suggested)
	if desc != "Point selected (suggestion): 14:05:09 (UTC)" {
		t.Fatalf("display time must win: %q", desc)
	}

	pt := NewSelector(nil, i18n.NewLocalizer(i18n.LangPortuguese))
	desc, _ = pt.Select(Candidate{Lat: 1, Lon: 1, Time: &ts}, Manual)
	if desc != "Ponto selecionado (manual): 01/05/2024, 14:05:09 (UTC)" {
		t.Fatalf("unexpected portuguese description: %q", desc)
	}
	desc, _ = pt.Select(Candidate{Lat: 1, Lon: 1}, Manual)
	if !strings.Contains(desc, "Tempo não disponível") {
		t.Fatalf("expected placeholder, got %q", desc)
	}
}

func TestClear(t *testing.T) {
	markers := &markerLog{}
	s := NewSelector(markers, nil)
	_, _ = s.Select(Candidate{Lat: 1, Lon: 1}, Suggested)
	s.Clear()
	if _, ok := s.Current(); ok {
		t.Fatalf("expected no current point")
	}
	if markers.cleared != 1 || markers.placed != nil {
		t.Fatalf("expected markers cleared")
	}
}

func TestSourceText(t *testing.T) {
	for _, src := range []Source{Suggested, Manual} {
		raw, _ := src.MarshalText()
		var back Source
		if err := back.UnmarshalText(raw); err != nil || back != src {
			t.Fatalf("round trip of %s gave %s (%v)", src, back, err)
		}
	}
	var s Source
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}
