package track

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrUnknownShape   = errors.New("unknown point shape")
	ErrNotANumber     = errors.New("coordinate is not a number")
	ErrLatitudeRange  = errors.New("latitude out of range")
	ErrLongitudeRange = errors.New("longitude out of range")
	ErrNullIsland     = errors.New("suspicious (0,0) coordinate")
)

// Options controls how strict normalization is. Strict is used for track display and
// additionally rejects the exact (0,0) coordinate that broken exports emit as a sentinel.
type Options struct {
	Strict bool
}

var (
	Lenient = Options{}
	Strict  = Options{Strict: true}
)

// CheckCoordinates validates a lat/lon pair.
func CheckCoordinates(lat, lon float64, opts Options) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return ErrNotANumber
	}
	if lat < -90 || lat > 90 {
		return ErrLatitudeRange
	}
	if lon < -180 || lon > 180 {
		return ErrLongitudeRange
	}
	if opts.Strict && lat == 0 && lon == 0 {
		return ErrNullIsland
	}
	return nil
}

// Number reads a JSON value as a float. Numeric strings are accepted; every other
// type (null, bool, object, array, unparsable string) yields NaN.
func Number(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Num
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return math.NaN()
		}
		return v
	default:
		return math.NaN()
	}
}

// Normalize turns one raw point of unknown shape into a TrackPoint. Accepted shapes, in
// priority order: {lat,lon}, {latitude,longitude}, [lat,lon].
func Normalize(raw gjson.Result, index int, opts Options) (TrackPoint, error) {
	var latR, lonR gjson.Result
	switch {
	case raw.IsObject() && raw.Get("lat").Exists() && raw.Get("lon").Exists():
		latR, lonR = raw.Get("lat"), raw.Get("lon")
	case raw.IsObject() && raw.Get("latitude").Exists() && raw.Get("longitude").Exists():
		latR, lonR = raw.Get("latitude"), raw.Get("longitude")
	case raw.IsArray() && len(raw.Array()) >= 2:
		pair := raw.Array()
		latR, lonR = pair[0], pair[1]
	default:
		return TrackPoint{}, ErrUnknownShape
	}

	lat, lon := Number(latR), Number(lonR)
	if err := CheckCoordinates(lat, lon, opts); err != nil {
		return TrackPoint{}, err
	}

	p := TrackPoint{Lat: lat, Lon: lon, OriginalIndex: index}
	if raw.IsObject() {
		p.Time = ParseTime(raw.Get("time"))
		p.Speed = optionalMetric(raw.Get("speed"))
		p.HeartRate = optionalMetric(raw.Get("heart_rate"))
		p.Cadence = optionalMetric(raw.Get("cadence"))
	}
	return p, nil
}

// NormalizeAll normalizes every element of a JSON array, dropping invalid entries.
func NormalizeAll(raw gjson.Result, opts Options) ([]TrackPoint, int) {
	items := raw.Array()
	points := make([]TrackPoint, 0, len(items))
	rejected := 0
	for i, item := range items {
		p, err := Normalize(item, i, opts)
		if err != nil {
			rejected++
			continue
		}
		points = append(points, p)
	}
	return points, rejected
}

// ParseTime accepts RFC 3339 strings and epoch milliseconds. Anything else is nil.
func ParseTime(r gjson.Result) *time.Time {
	switch r.Type {
	case gjson.String:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, strings.TrimSpace(r.Str)); err == nil {
				t = t.UTC()
				return &t
			}
		}
	case gjson.Number:
		if math.IsNaN(r.Num) || math.IsInf(r.Num, 0) {
			return nil
		}
		t := time.UnixMilli(int64(r.Num)).UTC()
		return &t
	}
	return nil
}

func optionalMetric(r gjson.Result) *float64 {
	if !r.Exists() {
		return nil
	}
	v := Number(r)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}
