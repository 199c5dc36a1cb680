package boundary

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Attribute field names probed for the region code and label when importing
// administrative boundary shapefiles. PSA/HDX exports disagree on naming.
var (
	shpCodeFields = []string{"PSGC", "ADM3_PCODE", "CODE", "REGION_COD"}
	shpNameFields = []string{"NAME", "ADM3_EN", "CITY", "MUNICIPALI"}
)

// ImportShapefile reads administrative polygons from a shapefile and returns
// them as a boundary collection. Records without a usable polygon or label
// are skipped with a warning.
func ImportShapefile(path, name string) (Collection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return Collection{}, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	codeIdx := firstFieldIndex(reader, shpCodeFields)
	nameIdx := firstFieldIndex(reader, shpNameFields)
	if nameIdx < 0 {
		return Collection{}, eris.Errorf("boundary: no label field found in %s (tried %v)", path, shpNameFields)
	}

	col := Collection{Name: name}
	record := -1
	for reader.Next() {
		record++
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			logSkippedFeature(name, record, "shape is not a polygon")
			continue
		}

		g := polygonToMultiPolygon(poly)
		if g == nil {
			logSkippedFeature(name, record, "empty polygon")
			continue
		}

		label := strings.TrimSpace(reader.Attribute(nameIdx))
		if label == "" {
			logSkippedFeature(name, record, "empty label attribute")
			continue
		}

		var code string
		if codeIdx >= 0 {
			code = strings.TrimSpace(reader.Attribute(codeIdx))
		}

		col.Features = append(col.Features, Feature{
			Code:     code,
			Name:     label,
			Geometry: g,
		})
	}

	zap.L().Info("boundary: imported shapefile",
		zap.String("collection", name),
		zap.String("path", path),
		zap.Int("features", len(col.Features)),
	)
	return col, nil
}

// firstFieldIndex returns the index of the first matching field name, or -1.
func firstFieldIndex(reader *shp.Reader, names []string) int {
	for _, want := range names {
		for i, f := range reader.Fields() {
			if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), want) {
				return i
			}
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Each part becomes a single-ring polygon; malformed parts are dropped.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		if len(flat) < 8 { // a closed ring needs at least four points
			continue
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
