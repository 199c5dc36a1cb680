package boundary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// boxPolygon builds a closed rectangle in (lon, lat) order.
func boxPolygon(t *testing.T, minLon, minLat, maxLon, maxLat float64) *geom.Polygon {
	t.Helper()
	poly := geom.NewPolygon(geom.XY)
	_, err := poly.SetCoords([][]geom.Coord{{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}})
	require.NoError(t, err)
	return poly
}

func TestResolver_UnloadedReturnsUnknown(t *testing.T) {
	r := NewResolver()

	assert.False(t, r.Loaded())
	assert.True(t, r.LoadedAt().IsZero())
	assert.Nil(t, r.Collections())

	loc := r.Resolve(14.6, 121.0)
	assert.Equal(t, Unknown, loc.City)
	assert.Equal(t, Unknown, loc.Province)
}

func TestResolver_ResolveHit(t *testing.T) {
	r := NewResolver()
	r.Swap([]Collection{{
		Name: "metro-manila",
		Features: []Feature{{
			Code:     "1374001",
			Name:     "Quezon City",
			Geometry: boxPolygon(t, 120.9, 14.5, 121.2, 14.8),
		}},
	}})

	require.True(t, r.Loaded())
	assert.WithinDuration(t, time.Now(), r.LoadedAt(), time.Minute)

	loc := r.Resolve(14.65, 121.0)
	assert.Equal(t, "Quezon City", loc.City)
	assert.Equal(t, "Metro Manila", loc.Province)
}

func TestResolver_Miss(t *testing.T) {
	r := NewResolver()
	r.Swap([]Collection{{
		Name: "metro-manila",
		Features: []Feature{{
			Code:     "1374001",
			Name:     "Quezon City",
			Geometry: boxPolygon(t, 120.9, 14.5, 121.2, 14.8),
		}},
	}})

	loc := r.Resolve(10.0, 124.0)
	assert.Equal(t, Unknown, loc.City)
	assert.Equal(t, Unknown, loc.Province)
}

func TestResolver_CollectionPriorityOrder(t *testing.T) {
	// Both collections contain the point; the first-loaded one must win.
	overlap := func() *geom.Polygon { return boxPolygon(t, 120.9, 14.5, 121.2, 14.8) }

	r := NewResolver()
	r.Swap([]Collection{
		{
			Name:     "metro-manila",
			Features: []Feature{{Code: "1374001", Name: "Quezon City", Geometry: overlap()}},
		},
		{
			Name:     "rizal",
			Features: []Feature{{Code: "0458001", Name: "Antipolo", Geometry: overlap()}},
		},
	})

	loc := r.Resolve(14.65, 121.0)
	assert.Equal(t, "Quezon City", loc.City)
	assert.Equal(t, "Metro Manila", loc.Province)
}

func TestResolver_SkipsNilGeometry(t *testing.T) {
	r := NewResolver()
	r.Swap([]Collection{{
		Name: "metro-manila",
		Features: []Feature{
			{Code: "1374001", Name: "Broken", Geometry: nil},
			{Code: "1374002", Name: "Makati", Geometry: boxPolygon(t, 120.9, 14.5, 121.2, 14.8)},
		},
	}})

	loc := r.Resolve(14.65, 121.0)
	assert.Equal(t, "Makati", loc.City)
}

func TestResolver_SwapReplacesSnapshot(t *testing.T) {
	r := NewResolver()
	r.Swap([]Collection{{
		Name:     "metro-manila",
		Features: []Feature{{Code: "1374001", Name: "Quezon City", Geometry: boxPolygon(t, 120.9, 14.5, 121.2, 14.8)}},
	}})
	require.Equal(t, "Quezon City", r.Resolve(14.65, 121.0).City)

	r.Swap([]Collection{{
		Name:     "metro-manila",
		Features: []Feature{{Code: "1374002", Name: "Caloocan", Geometry: boxPolygon(t, 120.9, 14.5, 121.2, 14.8)}},
	}})
	assert.Equal(t, "Caloocan", r.Resolve(14.65, 121.0).City)
	assert.Len(t, r.Collections(), 1)
}

func TestResolveFunc_Adapts(t *testing.T) {
	f := ResolveFunc(func(lat, lon float64) Location {
		return Location{City: "Pasig", Province: "Metro Manila"}
	})
	assert.Equal(t, "Pasig", f.Resolve(14.57, 121.08).City)
}

func TestProvinceForCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"full city code metro manila", "1374001", "Metro Manila"},
		{"exact prefix", "0458", "Rizal"},
		{"full city code bulacan", "0314025", "Bulacan"},
		{"whitespace trimmed", " 0421003 ", "Cavite"},
		{"unknown prefix", "9901001", Unknown},
		{"too short", "13", Unknown},
		{"empty", "", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProvinceForCode(tt.code))
		})
	}
}
