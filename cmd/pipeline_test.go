//go:build !integration

package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/siterisk-cli/internal/boundary"
	"github.com/gridsight/siterisk-cli/internal/config"
	"github.com/gridsight/siterisk-cli/internal/ingest"
)

func TestNewLocationResolver_MissingBoundaryDirDegradesToUnknown(t *testing.T) {
	cfg = &config.Config{
		Boundaries: config.BoundariesConfig{
			Driver:      "file",
			Dir:         filepath.Join(t.TempDir(), "nope"),
			Collections: []string{"metro-manila", "rizal"},
		},
	}

	resolver, cleanup, err := newLocationResolver(context.Background())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.NotNil(t, resolver)

	loc := resolver.Resolve(14.676, 121.0437)
	assert.Equal(t, boundary.Unknown, loc.City)
	assert.Equal(t, boundary.Unknown, loc.Province)

	// Rows without a city column still parse; their location is Unknown
	// rather than the whole batch being rejected.
	input := `Site_Name,Telco,Latitude,Longitude
Tower A,Globe,14.676,121.0437
Tower B,DITO,14.5547,121.0244
`
	res, err := ingest.ParseSites(strings.NewReader(input), ingest.Options{
		Convention: ingest.ConventionAlternate,
		Resolver:   resolver,
	})
	require.NoError(t, err)
	require.Len(t, res.Sites, 2)
	assert.Empty(t, res.Dropped)
	for _, s := range res.Sites {
		assert.Equal(t, boundary.Unknown, s.City)
		assert.Equal(t, boundary.Unknown, s.Province)
	}
}
