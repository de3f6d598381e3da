package track

import "time"

// TrackPoint is one normalized GPS sample. Speed is in km/h.
type TrackPoint struct {
	Lat           float64    `json:"lat"`
	Lon           float64    `json:"lon"`
	Time          *time.Time `json:"time,omitempty"`
	Speed         *float64   `json:"speed,omitempty"`
	HeartRate     *float64   `json:"heart_rate,omitempty"`
	Cadence       *float64   `json:"cadence,omitempty"`
	OriginalIndex int        `json:"original_index"`
}

// Segment is a coloured span between two consecutive points.
type Segment struct {
	Index    int        `json:"segment"`
	From     TrackPoint `json:"from"`
	To       TrackPoint `json:"to"`
	SpeedKmh float64    `json:"speed_kmh"`
	Color    string     `json:"color"`
}

type Mode int

const (
	ModeEmpty Mode = iota
	ModeMarker
	ModePath
)

func (m Mode) String() string {
	switch m {
	case ModeMarker:
		return "marker"
	case ModePath:
		return "path"
	default:
		return "empty"
	}
}

// Result describes what SetTrack rendered.
type Result struct {
	Mode     Mode `json:"-"`
	Valid    int  `json:"valid"`
	Rejected int  `json:"rejected"`
}
