package boundary

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/gridsight/siterisk-cli/internal/db"
)

// StoreResolver resolves locations with an ST_Contains query against
// PostGIS-backed boundary tables instead of the in-memory snapshot. Collection
// priority is carried by the numeric priority column populated at import time.
type StoreResolver struct {
	pool db.Pool
}

// NewStoreResolver creates a resolver backed by the given pool.
func NewStoreResolver(pool db.Pool) *StoreResolver {
	return &StoreResolver{pool: pool}
}

// EnsureSchema creates the boundary table and its spatial index.
func (s *StoreResolver) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS geo.admin_boundaries (
			id         BIGSERIAL PRIMARY KEY,
			collection TEXT NOT NULL,
			priority   INT NOT NULL,
			code       TEXT NOT NULL DEFAULT '',
			name       TEXT NOT NULL,
			geom       geometry(MultiPolygon, 4326)
		)`)
	if err != nil {
		return eris.Wrap(err, "boundary: create admin_boundaries table")
	}
	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_admin_boundaries_geom
		ON geo.admin_boundaries USING gist (geom)`)
	if err != nil {
		return eris.Wrap(err, "boundary: create spatial index")
	}
	return nil
}

// ImportCollections replaces the stored boundaries with the given snapshot.
// Collection order determines priority. Features that fail to insert are
// logged and skipped.
func (s *StoreResolver) ImportCollections(ctx context.Context, collections []Collection) (int, error) {
	if _, err := s.pool.Exec(ctx, `TRUNCATE geo.admin_boundaries`); err != nil {
		return 0, eris.Wrap(err, "boundary: truncate admin_boundaries")
	}

	var loaded int
	for prio, col := range collections {
		for i, f := range col.Features {
			gj, err := geojson.Marshal(f.Geometry)
			if err != nil {
				logSkippedFeature(col.Name, i, "geometry not encodable")
				continue
			}
			_, err = s.pool.Exec(ctx, `
				INSERT INTO geo.admin_boundaries (collection, priority, code, name, geom)
				VALUES ($1, $2, $3, $4, ST_Multi(ST_SetSRID(ST_GeomFromGeoJSON($5), 4326)))`,
				col.Name, prio, f.Code, f.Name, string(gj))
			if err != nil {
				zap.L().Warn("boundary: failed to insert feature",
					zap.String("collection", col.Name),
					zap.String("name", f.Name),
					zap.Error(err),
				)
				continue
			}
			loaded++
		}
	}
	return loaded, nil
}

// Resolve returns the location of a coordinate, or Unknown when no stored
// polygon contains it.
func (s *StoreResolver) Resolve(ctx context.Context, lat, lon float64) (Location, error) {
	var code, name string
	err := s.pool.QueryRow(ctx, `
		SELECT code, name
		FROM geo.admin_boundaries
		WHERE ST_Contains(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY priority, id
		LIMIT 1`,
		lon, lat,
	).Scan(&code, &name)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return unknownLocation(), nil
		}
		return unknownLocation(), eris.Wrap(err, "boundary: resolve query")
	}
	return Location{City: name, Province: ProvinceForCode(code)}, nil
}

// Bind adapts the store resolver to the synchronous resolver shape used by
// the parser. Query failures degrade to Unknown with a warning, matching the
// reference-data-unavailable policy.
func (s *StoreResolver) Bind(ctx context.Context) ResolveFunc {
	return func(lat, lon float64) Location {
		loc, err := s.Resolve(ctx, lat, lon)
		if err != nil {
			zap.L().Warn("boundary: store resolve failed",
				zap.Float64("lat", lat),
				zap.Float64("lon", lon),
				zap.Error(err),
			)
			return unknownLocation()
		}
		return loc
	}
}
