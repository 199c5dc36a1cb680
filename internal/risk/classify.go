// Package risk classifies cell sites into proximity-to-fault risk tiers.
package risk

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/gridsight/siterisk-cli/internal/geodesy"
	"github.com/gridsight/siterisk-cli/internal/model"
)

// Tier thresholds in kilometers. Lower bounds are closed, upper bounds open:
// exactly 5.0 km is medium and exactly 15.0 km is low.
const (
	HighRiskKM   = 5.0
	MediumRiskKM = 15.0
)

// Classify buckets a fault distance into a risk tier.
func Classify(distanceKM float64) model.RiskLevel {
	switch {
	case distanceKM < HighRiskKM:
		return model.RiskHigh
	case distanceKM < MediumRiskKM:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// ClassifyAll computes each record's distance to the fault polyline, attaches
// it, and assigns the corresponding tier. The input slice is not mutated.
// When the fault geometry is nil or carries no usable polyline the operation
// is a no-op and the input is returned unchanged.
func ClassifyAll(sites []model.SiteRecord, fault geom.T) []model.SiteRecord {
	lines := PolylineCoords(fault)
	if len(lines) == 0 {
		return sites
	}

	out := make([]model.SiteRecord, len(sites))
	for i, site := range sites {
		out[i] = site
		d, ok := distanceToFault(site.Latitude, site.Longitude, lines)
		if !ok {
			continue
		}
		dist := d
		out[i].DistanceToFault = &dist
		out[i].RiskLevel = Classify(d)
	}
	return out
}

// distanceToFault takes the minimum over every linestring of the fault.
func distanceToFault(lat, lon float64, lines [][]geom.Coord) (float64, bool) {
	min := math.Inf(1)
	found := false
	for _, coords := range lines {
		d, ok := geodesy.DistanceToPolyline(lat, lon, coords)
		if !ok {
			continue
		}
		found = true
		if d < min {
			min = d
		}
	}
	return min, found
}

// PolylineCoords extracts the coordinate sequences of a fault geometry.
// LineString and MultiLineString are supported; sequences with fewer than two
// points are discarded. Anything else yields nil, which callers treat as
// absent fault data.
func PolylineCoords(fault geom.T) [][]geom.Coord {
	var lines [][]geom.Coord
	switch g := fault.(type) {
	case *geom.LineString:
		if g.NumCoords() >= 2 {
			lines = append(lines, g.Coords())
		}
	case *geom.MultiLineString:
		for i := 0; i < g.NumLineStrings(); i++ {
			ls := g.LineString(i)
			if ls.NumCoords() >= 2 {
				lines = append(lines, ls.Coords())
			}
		}
	}
	return lines
}
