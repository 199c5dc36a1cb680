// Package boundary resolves WGS84 coordinates to administrative city and
// province labels via point-in-polygon lookup over named collections of
// boundary features.
package boundary

import (
	"sync/atomic"
	"time"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/gridsight/siterisk-cli/internal/geodesy"
)

// Unknown is the label returned when no boundary feature contains a point.
const Unknown = "Unknown"

// Feature is one administrative polygon tagged with its region code and
// display label.
type Feature struct {
	Code     string
	Name     string
	Geometry geom.T
}

// Collection is a named, ordered group of boundary features. Collections are
// checked in the order they were loaded, so higher-priority regions (e.g. the
// metro collection) must come first.
type Collection struct {
	Name     string
	Features []Feature
}

// Location is the resolved administrative placement of a coordinate.
type Location struct {
	City     string `json:"city"`
	Province string `json:"province"`
}

// unknownLocation is what resolution returns before load and on miss.
func unknownLocation() Location {
	return Location{City: Unknown, Province: Unknown}
}

type snapshot struct {
	collections []Collection
	loadedAt    time.Time
}

// Resolver maps coordinates to locations against an immutable snapshot of
// boundary collections. Swap replaces the whole snapshot atomically, so
// in-flight resolutions never observe a partial reload.
type Resolver struct {
	snap atomic.Pointer[snapshot]
}

// NewResolver returns an empty resolver. Resolve returns Unknown until the
// first Swap.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Swap replaces the resolver's boundary collections with a new snapshot.
func (r *Resolver) Swap(collections []Collection) {
	r.snap.Store(&snapshot{collections: collections, loadedAt: time.Now()})
}

// Loaded reports whether a snapshot has been installed.
func (r *Resolver) Loaded() bool {
	return r.snap.Load() != nil
}

// LoadedAt returns the install time of the current snapshot, or the zero time.
func (r *Resolver) LoadedAt() time.Time {
	if s := r.snap.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// Collections returns the current snapshot's collections for inspection.
func (r *Resolver) Collections() []Collection {
	if s := r.snap.Load(); s != nil {
		return s.collections
	}
	return nil
}

// Resolve returns the city and province for a coordinate. Collections are
// tested in priority order and the first containing feature wins. A feature
// with a nil or non-areal geometry is skipped. Misses resolve to Unknown.
func (r *Resolver) Resolve(lat, lon float64) Location {
	s := r.snap.Load()
	if s == nil {
		return unknownLocation()
	}
	for _, col := range s.collections {
		for _, f := range col.Features {
			if f.Geometry == nil {
				continue
			}
			if geodesy.PointInPolygon(lat, lon, f.Geometry) {
				return Location{
					City:     f.Name,
					Province: ProvinceForCode(f.Code),
				}
			}
		}
	}
	return unknownLocation()
}

// ResolveFunc adapts a plain function to the resolver shape the parser
// consumes. Used to bind context-carrying resolvers (e.g. the PostGIS one)
// into the synchronous parse path.
type ResolveFunc func(lat, lon float64) Location

// Resolve calls f.
func (f ResolveFunc) Resolve(lat, lon float64) Location { return f(lat, lon) }

// logSkippedFeature records a malformed feature without failing the load.
func logSkippedFeature(collection string, index int, reason string) {
	zap.L().Warn("boundary: skipping malformed feature",
		zap.String("collection", collection),
		zap.Int("feature", index),
		zap.String("reason", reason),
	)
}
