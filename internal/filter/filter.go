// Package filter applies equality criteria over classified site records.
package filter

import "github.com/gridsight/siterisk-cli/internal/model"

// All is the sentinel meaning "no constraint" for a criterion.
const All = "all"

// Criteria holds one exact-match constraint per filterable field. An empty
// value is equivalent to All.
type Criteria struct {
	City      string `json:"city"`
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	RiskLevel string `json:"riskLevel"`
}

// Apply returns the records matching every non-All criterion, in input order.
// It never mutates the input and never fails: a criterion value that matches
// no record simply yields an empty result.
func Apply(sites []model.SiteRecord, c Criteria) []model.SiteRecord {
	out := make([]model.SiteRecord, 0, len(sites))
	for _, s := range sites {
		if !match(c.City, s.City) {
			continue
		}
		if !match(c.Status, string(s.Status)) {
			continue
		}
		if !match(c.Provider, s.Provider) {
			continue
		}
		if !match(c.RiskLevel, string(s.RiskLevel)) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func match(want, got string) bool {
	return want == "" || want == All || want == got
}
