package risk

import (
	"sync"

	"github.com/twpayne/go-geom"

	"github.com/gridsight/siterisk-cli/internal/geodesy"
	"github.com/gridsight/siterisk-cli/internal/model"
)

// Zone is a shaded buffer around the fault representing one risk tier, for
// map presentation. It is a derivative of the per-site classification, not an
// input to it.
type Zone struct {
	Tier     model.RiskLevel
	RadiusKM float64
	Geometry *geom.MultiPolygon
}

// discSegments controls how many points approximate each buffer disc.
const discSegments = 24

// ZoneCache memoizes the buffer zones for one fault geometry, keyed on the
// geometry's identity. Rebuilt only when a different fault value is swapped
// in.
type ZoneCache struct {
	mu    sync.Mutex
	fault geom.T
	zones []Zone
}

// Zones returns the tier buffers for the given fault, computing them on first
// use and on fault identity change. Returns nil for absent fault data.
func (c *ZoneCache) Zones(fault geom.T) []Zone {
	if fault == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fault == fault && c.zones != nil {
		return c.zones
	}

	c.fault = fault
	c.zones = buildZones(fault)
	return c.zones
}

// buildZones buffers the fault polyline outward by each tier radius. The
// buffer is approximated as one disc per polyline vertex; this is a shading
// aid and deliberately coarser than the per-site distance computation.
func buildZones(fault geom.T) []Zone {
	lines := PolylineCoords(fault)
	if len(lines) == 0 {
		return nil
	}

	tiers := []struct {
		tier   model.RiskLevel
		radius float64
	}{
		{model.RiskHigh, HighRiskKM},
		{model.RiskMedium, MediumRiskKM},
	}

	zones := make([]Zone, 0, len(tiers))
	for _, t := range tiers {
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
		for _, coords := range lines {
			for _, c := range coords {
				if len(c) < 2 {
					continue
				}
				disc := discAround(c[1], c[0], t.radius)
				if err := mp.Push(disc); err != nil {
					continue
				}
			}
		}
		if mp.NumPolygons() == 0 {
			continue
		}
		zones = append(zones, Zone{Tier: t.tier, RadiusKM: t.radius, Geometry: mp})
	}
	return zones
}

// discAround returns a closed polygon approximating a circle of the given
// radius around a coordinate.
func discAround(lat, lon, radiusKM float64) *geom.Polygon {
	flat := make([]float64, 0, 2*(discSegments+1))
	for i := 0; i <= discSegments; i++ {
		bearing := float64(i) * (360.0 / discSegments)
		dLat, dLon := geodesy.Destination(lat, lon, bearing, radiusKM)
		flat = append(flat, dLon, dLat)
	}
	ring := geom.NewLinearRingFlat(geom.XY, flat)
	poly := geom.NewPolygon(geom.XY)
	_ = poly.Push(ring)
	return poly
}
