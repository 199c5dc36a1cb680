package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"operational", StatusOperational},
		{"online", StatusOperational},
		{"ACTIVE", StatusOperational},
		{" up ", StatusOperational},
		{"offline", StatusNonOperational},
		{"non-operational", StatusNonOperational},
		{"non_operational", StatusNonOperational},
		{"DOWN", StatusNonOperational},
		{"inactive", StatusNonOperational},
		{"", StatusOperational},
		{"garbled", StatusOperational},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.in), "input %q", tt.in)
	}
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   RiskLevel
		wantOK bool
	}{
		{"high", RiskHigh, true},
		{"MEDIUM", RiskMedium, true},
		{" low ", RiskLow, true},
		{"unknown", RiskUnknown, false},
		{"severe", RiskUnknown, false},
		{"", RiskUnknown, false},
	}
	for _, tt := range tests {
		got, ok := ParseRiskLevel(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestSiteRecord_JSONShape(t *testing.T) {
	d := 3.25
	rec := SiteRecord{
		ID:              "GLO-001",
		Provider:        "Globe",
		City:            "Quezon City",
		Province:        "Metro Manila",
		Latitude:        14.676,
		Longitude:       121.0437,
		Status:          StatusOperational,
		RiskLevel:       RiskHigh,
		DistanceToFault: &d,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "high", m["riskLevel"])
	assert.Equal(t, 3.25, m["distanceToFault"])
	// Empty address is omitted.
	assert.NotContains(t, m, "address")
}

func TestSiteRecord_OmitsNilDistance(t *testing.T) {
	data, err := json.Marshal(SiteRecord{ID: "a"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "distanceToFault")
}
