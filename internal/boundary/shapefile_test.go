package boundary

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestPolygonToMultiPolygon_SinglePart(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: 120.9, Y: 14.5},
			{X: 121.2, Y: 14.5},
			{X: 121.2, Y: 14.8},
			{X: 120.9, Y: 14.8},
			{X: 120.9, Y: 14.5},
		},
	}

	g := polygonToMultiPolygon(poly)
	require.NotNil(t, g)

	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 4326, mp.SRID())
}

func TestPolygonToMultiPolygon_MultiPart(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			{X: 120.0, Y: 14.0},
			{X: 121.0, Y: 14.0},
			{X: 121.0, Y: 15.0},
			{X: 120.0, Y: 15.0},
			{X: 120.0, Y: 14.0},

			{X: 122.0, Y: 14.0},
			{X: 123.0, Y: 14.0},
			{X: 123.0, Y: 15.0},
			{X: 122.0, Y: 15.0},
			{X: 122.0, Y: 14.0},
		},
	}

	g := polygonToMultiPolygon(poly)
	require.NotNil(t, g)

	mp := g.(*geom.MultiPolygon)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestPolygonToMultiPolygon_DropsDegeneratePart(t *testing.T) {
	// The second part has only two points and cannot form a ring.
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			{X: 120.0, Y: 14.0},
			{X: 121.0, Y: 14.0},
			{X: 121.0, Y: 15.0},
			{X: 120.0, Y: 15.0},
			{X: 120.0, Y: 14.0},

			{X: 122.0, Y: 14.0},
			{X: 123.0, Y: 14.0},
		},
	}

	g := polygonToMultiPolygon(poly)
	require.NotNil(t, g)
	assert.Equal(t, 1, g.(*geom.MultiPolygon).NumPolygons())
}

func TestPolygonToMultiPolygon_Empty(t *testing.T) {
	assert.Nil(t, polygonToMultiPolygon(nil))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points:   []shp.Point{{X: 120.0, Y: 14.0}, {X: 121.0, Y: 14.0}},
	}))
}

func TestPolygonToMultiPolygon_ResolvesAfterConversion(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: 120.9, Y: 14.5},
			{X: 121.2, Y: 14.5},
			{X: 121.2, Y: 14.8},
			{X: 120.9, Y: 14.8},
			{X: 120.9, Y: 14.5},
		},
	}

	r := NewResolver()
	r.Swap([]Collection{{
		Name:     "metro-manila",
		Features: []Feature{{Code: "1374001", Name: "Quezon City", Geometry: polygonToMultiPolygon(poly)}},
	}})

	loc := r.Resolve(14.65, 121.0)
	assert.Equal(t, "Quezon City", loc.City)
	assert.Equal(t, "Metro Manila", loc.Province)
}

func TestImportShapefile_MissingFile(t *testing.T) {
	_, err := ImportShapefile(filepath.Join(t.TempDir(), "absent.shp"), "absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open shapefile")
}
