package ingest

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/siterisk-cli/internal/boundary"
	"github.com/gridsight/siterisk-cli/internal/model"
)

// StagingResult is the outcome of a staging-area parse.
type StagingResult struct {
	Areas   []model.StagingAreaRecord
	Dropped []Diagnostic
}

// Staging header aliases, applied on top of the shared rewrite map.
var stagingHeaderRewrite = map[string]string{
	"area_name":    "name",
	"facility":     "name",
	"role":         "function",
	"purpose":      "function",
	"description":  "location",
	"location_txt": "location",
}

// ParseStagingAreasFile parses a staging-area file from disk.
func ParseStagingAreasFile(path string, resolver LocationResolver) (*StagingResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ParseStagingAreas(f, resolver)
}

// ParseStagingAreas parses disaster-staging rows. The source data uses 0,0
// coordinates as a blank placeholder, so rows at exactly 0,0 are dropped as
// missing. Rows without a name are dropped. Diagnostics follow the same
// skip-and-continue policy as the site parser.
func ParseStagingAreas(r io.Reader, resolver LocationResolver) (*StagingResult, error) {
	header, rows, err := readDelimited(r)
	if err != nil {
		return nil, err
	}

	cols := normalizeHeader(header)
	for i, h := range header {
		key := normalizeKey(h)
		if rewritten, ok := stagingHeaderRewrite[key]; ok {
			if _, exists := cols[rewritten]; !exists {
				cols[rewritten] = i
			}
		}
	}
	if _, ok := cols["latitude"]; !ok {
		return nil, eris.New("ingest: staging header has no latitude column")
	}
	if _, ok := cols["longitude"]; !ok {
		return nil, eris.New("ingest: staging header has no longitude column")
	}

	res := &StagingResult{}
	for n, row := range rows {
		rowNum := n + 1

		lat, okLat := parseCoordinate(getCol(row, cols, "latitude"))
		lon, okLon := parseCoordinate(getCol(row, cols, "longitude"))
		if !okLat || !okLon {
			res.drop(rowNum, "invalid coordinates", row)
			continue
		}
		if lat == 0 && lon == 0 {
			res.drop(rowNum, "placeholder 0,0 coordinates", row)
			continue
		}

		name := getCol(row, cols, "name")
		if name == "" {
			res.drop(rowNum, "missing name", row)
			continue
		}

		city, province := boundary.Unknown, boundary.Unknown
		if resolver != nil {
			loc := resolver.Resolve(lat, lon)
			city, province = loc.City, loc.Province
		}

		id := getCol(row, cols, "siteid")
		if id == "" {
			id = fmt.Sprintf("STAGING-%d", rowNum)
		}

		location := getCol(row, cols, "location")
		if location == "" {
			location = fmt.Sprintf("%g, %g", lat, lon)
		}

		res.Areas = append(res.Areas, model.StagingAreaRecord{
			ID:        id,
			Name:      name,
			Function:  getCol(row, cols, "function"),
			Location:  location,
			City:      city,
			Province:  province,
			Latitude:  lat,
			Longitude: lon,
		})
	}

	return res, nil
}

func (r *StagingResult) drop(row int, reason string, raw []string) {
	zap.L().Warn("ingest: dropping staging row",
		zap.Int("row", row),
		zap.String("reason", reason),
	)
	r.Dropped = append(r.Dropped, Diagnostic{Row: row, Reason: reason, Raw: raw})
}
