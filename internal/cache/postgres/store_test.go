package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
)

func TestPutUpsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)
	now := time.Unix(1700000000, 0).UTC()
	store.now = func() time.Time { return now }

	payload := []byte(`[{"round":"1"}]`)
	mock.ExpectExec("INSERT INTO f1_cache").
		WithArgs("ergast_2024", payload, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Put(context.Background(), cache.NewKey("ergast", 2024), payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReturnsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "schedule_cache")
	require.NoError(t, err)

	storedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT payload, stored_at FROM schedule_cache").
		WithArgs("results_2024_last").
		WillReturnRows(pgxmock.NewRows([]string{"payload", "stored_at"}).AddRow([]byte(`{"round":"2"}`), storedAt))

	rec, err := store.Get(context.Background(), cache.NewKey("results", 2024).WithDiscriminator("last"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":"2"}`, string(rec.Payload))
	assert.Equal(t, storedAt, rec.StoredAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingRowIsMiss(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload, stored_at FROM f1_cache").
		WithArgs("ergast_1900").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.Get(context.Background(), cache.NewKey("ergast", 1900))
	require.ErrorIs(t, err, cache.ErrMiss)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearAndSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS f1_cache").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("DELETE FROM f1_cache").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearWrapsError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM f1_cache").WillReturnError(errors.New("boom"))
	assert.Error(t, store.Clear(context.Background()))
}

func TestNewWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil, "")
	assert.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewWithPool(mock, "bad;table")
	assert.Error(t, err)
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
