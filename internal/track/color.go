package track

import "backend-videosync/internal/shared/geo"

// ReferenceSpeedKmh is the top of the colour scale.
const ReferenceSpeedKmh = 50.0

const (
	ColorSlow     = "#0066cc"
	ColorModerate = "#00cc66"
	ColorMedium   = "#cccc00"
	ColorFast     = "#ff6600"
	ColorMax      = "#ff0000"
)

// SpeedColor maps a speed in km/h onto the five-bucket scale.
func SpeedColor(speedKmh float64) string {
	ratio := speedKmh / ReferenceSpeedKmh
	if ratio > 1 {
		ratio = 1
	}
	switch {
	case ratio < 0.2:
		return ColorSlow
	case ratio < 0.4:
		return ColorModerate
	case ratio < 0.6:
		return ColorMedium
	case ratio < 0.8:
		return ColorFast
	default:
		return ColorMax
	}
}

// SegmentSpeed returns the speed used to colour the segment p1→p2: the explicit
// speed of p1 when present, otherwise distance over elapsed time. Zero when
// either timestamp is missing or time does not advance.
func SegmentSpeed(p1, p2 TrackPoint) float64 {
	if p1.Speed != nil {
		return *p1.Speed
	}
	if p1.Time == nil || p2.Time == nil {
		return 0
	}
	elapsed := p2.Time.Sub(*p1.Time).Seconds()
	if elapsed <= 0 {
		return 0
	}
	dist := geo.HaversineM(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	return dist / elapsed * 3.6
}
