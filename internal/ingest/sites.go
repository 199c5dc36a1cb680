// Package ingest parses raw tabular cell-site and staging-area records,
// enriching them with resolved administrative locations. Row-level problems
// are recovered by dropping the row with a diagnostic; only wholesale
// unreadable input fails a parse.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/siterisk-cli/internal/boundary"
	"github.com/gridsight/siterisk-cli/internal/model"
)

// Convention selects which historical column-naming and validation scheme a
// file is parsed under. The two schemes have deliberately different
// strictness and are not unified.
type Convention string

const (
	// ConventionCanonical expects siteid, provider, city, latitude,
	// longitude, status, address, risklevel. Provider and city are required.
	ConventionCanonical Convention = "canonical"
	// ConventionAlternate expects Site_Name, Telco, Status, Latitude,
	// Longitude. A missing provider defaults to Unknown and the city is
	// always derived from coordinates.
	ConventionAlternate Convention = "alternate"
)

// ParseConvention validates a convention name from config or flags.
func ParseConvention(s string) (Convention, error) {
	switch Convention(strings.ToLower(strings.TrimSpace(s))) {
	case ConventionCanonical:
		return ConventionCanonical, nil
	case ConventionAlternate:
		return ConventionAlternate, nil
	default:
		return "", eris.Errorf("ingest: unknown parse convention %q", s)
	}
}

// LocationResolver fills in city/province from coordinates. Satisfied by
// *boundary.Resolver and boundary.ResolveFunc.
type LocationResolver interface {
	Resolve(lat, lon float64) boundary.Location
}

// Diagnostic records one dropped row.
type Diagnostic struct {
	Row    int      `json:"row"`
	Reason string   `json:"reason"`
	Raw    []string `json:"raw"`
}

// SiteResult is the outcome of a site parse: the ordered valid records plus
// the dropped-row diagnostics side channel.
type SiteResult struct {
	Sites   []model.SiteRecord
	Dropped []Diagnostic
}

// Options configures a parse.
type Options struct {
	Convention Convention
	Resolver   LocationResolver // nil disables location enrichment
}

// Header rewrite map applied after lowercasing and trimming. Both naming
// conventions funnel into the canonical keys.
var headerRewrite = map[string]string{
	"site_name":  "siteid",
	"sitename":   "siteid",
	"site_id":    "siteid",
	"telco":      "provider",
	"operator":   "provider",
	"lat":        "latitude",
	"lng":        "longitude",
	"lon":        "longitude",
	"risk":       "risklevel",
	"risk_level": "risklevel",
}

func normalizeKey(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func normalizeHeader(raw []string) map[string]int {
	cols := make(map[string]int, len(raw))
	for i, h := range raw {
		key := normalizeKey(h)
		if rewritten, ok := headerRewrite[key]; ok {
			key = rewritten
		}
		if key == "" {
			continue
		}
		if _, exists := cols[key]; !exists {
			cols[key] = i
		}
	}
	return cols
}

func getCol(row []string, cols map[string]int, key string) string {
	idx, ok := cols[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseCoordinate parses a finite float, rejecting NaN and infinities.
func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseSitesFile parses a delimited site file from disk.
func ParseSitesFile(path string, opts Options) (*SiteResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ParseSites(f, opts)
}

// ParseSites parses delimited site rows from r. The first row must be a
// header in one of the two known conventions; a file without a parseable
// header is a hard error. Individual invalid rows are dropped with a
// diagnostic and row order is otherwise preserved.
func ParseSites(r io.Reader, opts Options) (*SiteResult, error) {
	header, rows, err := readDelimited(r)
	if err != nil {
		return nil, err
	}
	return parseSiteRows(header, rows, opts)
}

// parseSiteRows is the shared row pipeline behind the CSV and XLSX entry
// points.
func parseSiteRows(header []string, rows [][]string, opts Options) (*SiteResult, error) {
	if opts.Convention == "" {
		opts.Convention = ConventionCanonical
	}

	cols := normalizeHeader(header)
	if _, ok := cols["latitude"]; !ok {
		return nil, eris.New("ingest: header has no latitude column")
	}
	if _, ok := cols["longitude"]; !ok {
		return nil, eris.New("ingest: header has no longitude column")
	}

	res := &SiteResult{}
	for n, row := range rows {
		rowNum := n + 1 // 1-based data-row number, matching synthesized ids

		lat, okLat := parseCoordinate(getCol(row, cols, "latitude"))
		lon, okLon := parseCoordinate(getCol(row, cols, "longitude"))
		if !okLat || !okLon {
			res.drop(rowNum, "invalid coordinates", row)
			continue
		}

		provider := getCol(row, cols, "provider")
		if provider == "" {
			if opts.Convention == ConventionCanonical {
				res.drop(rowNum, "missing provider", row)
				continue
			}
			provider = boundary.Unknown
		}

		city := ""
		province := boundary.Unknown
		if opts.Convention == ConventionCanonical {
			city = getCol(row, cols, "city")
		}
		if opts.Resolver != nil {
			loc := opts.Resolver.Resolve(lat, lon)
			if city == "" {
				city = loc.City
			}
			province = loc.Province
		}
		if city == "" {
			res.drop(rowNum, "missing city", row)
			continue
		}

		id := getCol(row, cols, "siteid")
		if id == "" {
			id = fmt.Sprintf("SITE-%d", rowNum)
		}

		riskLevel := model.RiskUnknown
		if tag, ok := model.ParseRiskLevel(getCol(row, cols, "risklevel")); ok {
			riskLevel = tag
		}

		address := getCol(row, cols, "address")
		if address == "" {
			address = fmt.Sprintf("%g, %g", lat, lon)
		}

		res.Sites = append(res.Sites, model.SiteRecord{
			ID:        id,
			Provider:  provider,
			City:      city,
			Province:  province,
			Latitude:  lat,
			Longitude: lon,
			Status:    model.NormalizeStatus(getCol(row, cols, "status")),
			RiskLevel: riskLevel,
			Address:   address,
		})
	}

	return res, nil
}

func (r *SiteResult) drop(row int, reason string, raw []string) {
	zap.L().Warn("ingest: dropping row",
		zap.Int("row", row),
		zap.String("reason", reason),
	)
	r.Dropped = append(r.Dropped, Diagnostic{Row: row, Reason: reason, Raw: raw})
}

// readDelimited reads a header row plus data rows. Empty input or input
// without a header is the only hard failure.
func readDelimited(r io.Reader) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: read delimited input")
	}
	if len(records) == 0 {
		return nil, nil, eris.New("ingest: empty input")
	}
	return records[0], records[1:], nil
}
