package boundary

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockResolver(t *testing.T) (*StoreResolver, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStoreResolver(mock), mock
}

func TestStoreResolver_EnsureSchema(t *testing.T) {
	s, mock := newMockResolver(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS geo.admin_boundaries").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_admin_boundaries_geom").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreResolver_ImportCollections(t *testing.T) {
	s, mock := newMockResolver(t)

	poly := boxPolygon(t, 120.9, 14.5, 121.2, 14.8)
	collections := []Collection{
		{Name: "metro-manila", Features: []Feature{{Code: "1374001", Name: "Quezon City", Geometry: poly}}},
		{Name: "rizal", Features: []Feature{{Code: "0458001", Name: "Antipolo", Geometry: poly}}},
	}

	mock.ExpectExec("TRUNCATE geo.admin_boundaries").
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectExec("INSERT INTO geo.admin_boundaries").
		WithArgs("metro-manila", 0, "1374001", "Quezon City", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO geo.admin_boundaries").
		WithArgs("rizal", 1, "0458001", "Antipolo", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := s.ImportCollections(context.Background(), collections)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreResolver_ImportCollections_SkipsFailedInsert(t *testing.T) {
	s, mock := newMockResolver(t)

	poly := boxPolygon(t, 120.9, 14.5, 121.2, 14.8)
	collections := []Collection{{
		Name: "metro-manila",
		Features: []Feature{
			{Code: "1374001", Name: "Quezon City", Geometry: poly},
			{Code: "1374002", Name: "Makati", Geometry: poly},
		},
	}}

	mock.ExpectExec("TRUNCATE geo.admin_boundaries").
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectExec("INSERT INTO geo.admin_boundaries").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectExec("INSERT INTO geo.admin_boundaries").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := s.ImportCollections(context.Background(), collections)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreResolver_ResolveHit(t *testing.T) {
	s, mock := newMockResolver(t)

	mock.ExpectQuery("SELECT code, name").
		WithArgs(121.05, 14.65).
		WillReturnRows(pgxmock.NewRows([]string{"code", "name"}).AddRow("1374001", "Quezon City"))

	loc, err := s.Resolve(context.Background(), 14.65, 121.05)
	require.NoError(t, err)
	assert.Equal(t, "Quezon City", loc.City)
	assert.Equal(t, "Metro Manila", loc.Province)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreResolver_ResolveMiss(t *testing.T) {
	s, mock := newMockResolver(t)

	mock.ExpectQuery("SELECT code, name").
		WithArgs(124.0, 10.0).
		WillReturnError(pgx.ErrNoRows)

	loc, err := s.Resolve(context.Background(), 10.0, 124.0)
	require.NoError(t, err)
	assert.Equal(t, Unknown, loc.City)
	assert.Equal(t, Unknown, loc.Province)
}

func TestStoreResolver_BindDegradesToUnknown(t *testing.T) {
	s, mock := newMockResolver(t)

	mock.ExpectQuery("SELECT code, name").
		WillReturnError(assert.AnError)

	resolve := s.Bind(context.Background())
	loc := resolve(14.65, 121.05)
	assert.Equal(t, Unknown, loc.City)
	assert.Equal(t, Unknown, loc.Province)
}
