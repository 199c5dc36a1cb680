package boundary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Property keys accepted for the region code and display label, in lookup
// order. Boundary files from different publishers disagree on naming.
var (
	codeKeys = []string{"psgc", "adm3_psgc", "region_code", "code"}
	nameKeys = []string{"name", "adm3_en", "city", "label"}
)

// LoadCollectionFile parses one GeoJSON FeatureCollection into a named
// boundary collection. Features with missing or non-areal geometry are
// skipped with a warning; only an unreadable or structurally invalid file is
// an error.
func LoadCollectionFile(path, name string) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Collection{}, eris.Wrapf(err, "boundary: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return Collection{}, eris.Wrapf(err, "boundary: parse %s", path)
	}

	col := Collection{Name: name}
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			logSkippedFeature(name, i, "missing geometry")
			continue
		}
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			logSkippedFeature(name, i, "geometry is not areal")
			continue
		}

		label := propString(f.Properties, nameKeys)
		if label == "" {
			logSkippedFeature(name, i, "missing label property")
			continue
		}

		col.Features = append(col.Features, Feature{
			Code:     propString(f.Properties, codeKeys),
			Name:     label,
			Geometry: f.Geometry,
		})
	}

	return col, nil
}

// LoadDir loads the named collections from dir in the given priority order,
// expecting one <name>.geojson file per collection. A missing or broken
// collection file is logged and skipped so that the remaining collections
// still resolve.
func LoadDir(dir string, names []string) ([]Collection, error) {
	if len(names) == 0 {
		return nil, eris.New("boundary: no collections configured")
	}

	var cols []Collection
	for _, name := range names {
		path := filepath.Join(dir, name+".geojson")
		col, err := LoadCollectionFile(path, name)
		if err != nil {
			zap.L().Warn("boundary: collection unavailable",
				zap.String("collection", name),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("boundary: loaded collection",
			zap.String("collection", name),
			zap.Int("features", len(col.Features)),
		)
		cols = append(cols, col)
	}

	if len(cols) == 0 {
		return nil, eris.Errorf("boundary: none of %d configured collections could be loaded", len(names))
	}
	return cols, nil
}

// WriteCollectionFile serializes a collection back to the GeoJSON layout
// LoadCollectionFile reads, for shapefile imports and fixture generation.
func WriteCollectionFile(col Collection, path string) error {
	fc := geojson.FeatureCollection{}
	for i, f := range col.Features {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("%s-%d", col.Name, i),
			Geometry: f.Geometry,
			Properties: map[string]any{
				"psgc": f.Code,
				"name": f.Name,
			},
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrapf(err, "boundary: marshal collection %s", col.Name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "boundary: write %s", path)
	}
	return nil
}

func propString(props map[string]any, keys []string) string {
	for _, k := range keys {
		for pk, pv := range props {
			if !strings.EqualFold(pk, k) {
				continue
			}
			if s, ok := pv.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
