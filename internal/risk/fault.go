package risk

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// LoadFault reads a fault-line geometry from a GeoJSON file. Accepted shapes:
// a bare LineString/MultiLineString geometry, a Feature wrapping one, or a
// FeatureCollection whose first line feature is taken. Callers downgrade a
// load failure to "no fault data" so classification degrades instead of
// failing the batch.
func LoadFault(path string) (geom.T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: read fault file %s", path)
	}
	return ParseFault(data)
}

// ParseFault parses fault GeoJSON from raw bytes.
func ParseFault(data []byte) (geom.T, error) {
	var f geojson.Feature
	if err := json.Unmarshal(data, &f); err == nil && isLine(f.Geometry) {
		return f.Geometry, nil
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err == nil {
		for _, feat := range fc.Features {
			if feat != nil && isLine(feat.Geometry) {
				return feat.Geometry, nil
			}
		}
	}

	var g geom.T
	if err := geojson.Unmarshal(data, &g); err == nil && isLine(g) {
		return g, nil
	}

	return nil, eris.New("risk: no line geometry found in fault GeoJSON")
}

func isLine(g geom.T) bool {
	switch g.(type) {
	case *geom.LineString, *geom.MultiLineString:
		return g != nil
	default:
		return false
	}
}
