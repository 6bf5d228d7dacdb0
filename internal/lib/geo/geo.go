package geo

import (
	"errors"
	"math"
	"regexp"
	"strconv"
)

// coordPattern matches a strict "<float>,<float>" pair: optional sign,
// optional decimal part, optional surrounding whitespace. Free-text
// addresses never match and go to the geocoder instead.
var coordPattern = regexp.MustCompile(`^\s*([+-]?\d+(?:\.\d+)?)\s*,\s*([+-]?\d+(?:\.\d+)?)\s*$`)

// ParsePoint parses a "lat,lon" string into a Point. The second return
// value reports whether the input matched the coordinate pattern at all;
// a match with out-of-range values returns an error.
func ParsePoint(s string) (Point, bool, error) {
	m := coordPattern.FindStringSubmatch(s)
	if m == nil {
		return Point{}, false, nil
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Point{}, true, err
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Point{}, true, err
	}

	point := Point{Latitude: lat, Longitude: lon}
	if !IsValidCoordinate(point) {
		return Point{}, true, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	return point, true, nil
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !IsValidCoordinate(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// BoundingBoxAround builds an axis-aligned bounding box containing both
// points, padded by paddingDegrees on every side (~0.05 degrees is roughly
// 3-5 miles at mid latitudes).
func BoundingBoxAround(p1, p2 Point, paddingDegrees float64) BoundingBox {
	return BoundingBox{
		MinLat: math.Min(p1.Latitude, p2.Latitude) - paddingDegrees,
		MinLon: math.Min(p1.Longitude, p2.Longitude) - paddingDegrees,
		MaxLat: math.Max(p1.Latitude, p2.Latitude) + paddingDegrees,
		MaxLon: math.Max(p1.Longitude, p2.Longitude) + paddingDegrees,
	}
}

// IsValidCoordinate validates latitude and longitude values
func IsValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
