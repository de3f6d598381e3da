package mapview

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/twpayne/go-kml/v3"

	"backend-videosync/internal/syncpoint"
	"backend-videosync/internal/track"
)

const lineWidth = 4

var bucketColors = []string{
	track.ColorSlow,
	track.ColorModerate,
	track.ColorMedium,
	track.ColorFast,
	track.ColorMax,
}

// WriteKML writes the current state as a KML document, one line style per colour bucket.
func (v *GeoJSONView) WriteKML(w io.Writer, name string) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	docElements := []kml.Element{kml.Name(name)}
	styles := make(map[string]*kml.SharedElement, len(bucketColors))
	for _, hex := range bucketColors {
		c, err := parseHexColor(hex)
		if err != nil {
			return err
		}
		style := kml.SharedStyle(styleID(hex), kml.LineStyle(kml.Color(c), kml.Width(lineWidth)))
		styles[hex] = style
		docElements = append(docElements, style)
	}

	if len(v.segments) > 0 {
		folder := []kml.Element{kml.Name("Track")}
		for _, seg := range v.segments {
			placemark := []kml.Element{
				kml.Name(fmt.Sprintf("segment-%d", seg.Index)),
				kml.Description(fmt.Sprintf("%.1f km/h", seg.SpeedKmh)),
			}
			if style, ok := styles[seg.Color]; ok {
				placemark = append(placemark, kml.StyleURL(style.URL()))
			}
			placemark = append(placemark, kml.LineString(kml.Coordinates(
				kml.Coordinate{Lon: seg.From.Lon, Lat: seg.From.Lat},
				kml.Coordinate{Lon: seg.To.Lon, Lat: seg.To.Lat},
			)))
			folder = append(folder, kml.Placemark(placemark...))
		}
		docElements = append(docElements, kml.Folder(folder...))
	}

	if v.point != nil {
		docElements = append(docElements, kml.Placemark(
			kml.Name("track-point"),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: v.point.Lon, Lat: v.point.Lat})),
		))
	}

	var markers []kml.Element
	for _, source := range []syncpoint.Source{syncpoint.Suggested, syncpoint.Manual} {
		m, ok := v.markers[source]
		if !ok {
			continue
		}
		markers = append(markers, kml.Placemark(
			kml.Name(source.String()),
			kml.Description(m.popup),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: m.lon, Lat: m.lat})),
		))
	}
	if len(markers) > 0 {
		docElements = append(docElements, kml.Folder(append([]kml.Element{kml.Name("Sync points")}, markers...)...))
	}

	doc := kml.KML(kml.Document(docElements...))
	return doc.WriteIndent(w, "", "  ")
}

func styleID(hex string) string {
	return "speed-" + strings.TrimPrefix(hex, "#")
}

func parseHexColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
