package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/siterisk-cli/internal/model"
)

func sampleSites() []model.SiteRecord {
	return []model.SiteRecord{
		{ID: "1", City: "Quezon City", Provider: "Globe", Status: model.StatusOperational, RiskLevel: model.RiskHigh},
		{ID: "2", City: "Quezon City", Provider: "DITO", Status: model.StatusNonOperational, RiskLevel: model.RiskMedium},
		{ID: "3", City: "Makati", Provider: "Globe", Status: model.StatusOperational, RiskLevel: model.RiskLow},
		{ID: "4", City: "Antipolo", Provider: "Converge", Status: model.StatusOperational, RiskLevel: model.RiskHigh},
	}
}

func ids(sites []model.SiteRecord) []string {
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = s.ID
	}
	return out
}

func TestApply_AllSentinelPassesEverything(t *testing.T) {
	got := Apply(sampleSites(), Criteria{City: All, Status: All, Provider: All, RiskLevel: All})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
}

func TestApply_EmptyCriteriaEqualsAll(t *testing.T) {
	got := Apply(sampleSites(), Criteria{})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
}

func TestApply_SingleCriterion(t *testing.T) {
	got := Apply(sampleSites(), Criteria{City: "Quezon City"})
	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestApply_ConjunctionNarrows(t *testing.T) {
	got := Apply(sampleSites(), Criteria{City: "Quezon City", Provider: "Globe"})
	assert.Equal(t, []string{"1"}, ids(got))

	got = Apply(sampleSites(), Criteria{Provider: "Globe", RiskLevel: "high", Status: "operational"})
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestApply_NoMatchYieldsEmpty(t *testing.T) {
	got := Apply(sampleSites(), Criteria{City: "Davao"})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestApply_MixedAllAndConstraint(t *testing.T) {
	got := Apply(sampleSites(), Criteria{City: All, RiskLevel: "high"})
	assert.Equal(t, []string{"1", "4"}, ids(got))
}

func TestApply_PreservesInputOrder(t *testing.T) {
	got := Apply(sampleSites(), Criteria{Provider: "Globe"})
	assert.Equal(t, []string{"1", "3"}, ids(got))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := sampleSites()
	_ = Apply(in, Criteria{City: "Makati"})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(in))
}

func TestApply_EmptyInput(t *testing.T) {
	assert.Empty(t, Apply(nil, Criteria{City: "Quezon City"}))
}
