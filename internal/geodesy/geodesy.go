// Package geodesy provides the spherical-geometry primitives used by the
// boundary resolver and the risk classifier: great-circle distance,
// point-to-polyline distance, and point-in-polygon containment.
package geodesy

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusKM is the fixed Earth radius used for all great-circle math.
const EarthRadiusKM = 6371.0

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// Haversine returns the great-circle distance in kilometers between two
// WGS84 coordinates. Symmetric, and zero for identical points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}

// DistanceToPolyline returns the minimum distance in kilometers from a point
// to a polyline given as GeoJSON-ordered (lon, lat) coordinates.
//
// Policy: the per-segment distance is the distance to the nearer segment
// endpoint, not the perpendicular projection onto the segment. This matches
// the historical behavior the risk tiers were calibrated against; switching
// to true point-to-segment projection would shift tier boundaries near
// polyline vertices. ok is false when the polyline has fewer than two points.
func DistanceToPolyline(lat, lon float64, coords []geom.Coord) (km float64, ok bool) {
	if len(coords) < 2 {
		return 0, false
	}
	min := math.Inf(1)
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		d := Haversine(lat, lon, c[1], c[0])
		if d < min {
			min = d
		}
	}
	if math.IsInf(min, 1) {
		return 0, false
	}
	return min, true
}

// PointInPolygon reports whether the point lies inside the polygon or
// multipolygon geometry, using ray casting over the outer ring and excluding
// holes. Geometries other than Polygon/MultiPolygon never contain a point.
func PointInPolygon(lat, lon float64, g geom.T) bool {
	switch p := g.(type) {
	case *geom.Polygon:
		return pointInPolygon(lon, lat, p)
	case *geom.MultiPolygon:
		for i := 0; i < p.NumPolygons(); i++ {
			if pointInPolygon(lon, lat, p.Polygon(i)) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func pointInPolygon(x, y float64, p *geom.Polygon) bool {
	if p == nil || p.NumLinearRings() == 0 {
		return false
	}
	if !pointInRing(x, y, p.LinearRing(0).Coords()) {
		return false
	}
	// Remaining rings are holes.
	for i := 1; i < p.NumLinearRings(); i++ {
		if pointInRing(x, y, p.LinearRing(i).Coords()) {
			return false
		}
	}
	return true
}

// pointInRing is the standard even-odd ray cast in planar lon/lat space.
func pointInRing(x, y float64, ring []geom.Coord) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Destination returns the coordinate reached by traveling distanceKM from
// (lat, lon) along the given initial bearing in degrees.
func Destination(lat, lon, bearingDeg, distanceKM float64) (destLat, destLon float64) {
	latR := toRadians(lat)
	lonR := toRadians(lon)
	brg := toRadians(bearingDeg)
	ang := distanceKM / EarthRadiusKM

	destLatR := math.Asin(math.Sin(latR)*math.Cos(ang) +
		math.Cos(latR)*math.Sin(ang)*math.Cos(brg))
	destLonR := lonR + math.Atan2(
		math.Sin(brg)*math.Sin(ang)*math.Cos(latR),
		math.Cos(ang)-math.Sin(latR)*math.Sin(destLatR),
	)

	return destLatR * (180 / math.Pi), destLonR * (180 / math.Pi)
}
