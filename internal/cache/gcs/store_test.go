package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
)

func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(client, Config{Bucket: "f1-cache", Prefix: "/schedule/"})
	require.NoError(t, err)
	return store
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil, Config{Bucket: "b"})
	assert.Error(t, err)

	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = New(client, Config{})
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	store := &Store{prefix: "schedule"}
	assert.Equal(t, "schedule/ergast_2024.json", store.ObjectName(cache.NewKey("ergast", 2024)))

	bare := &Store{}
	assert.Equal(t, "driver_standings_2023_current.json",
		bare.ObjectName(cache.NewKey("driver_standings", 2023).WithDiscriminator("current")))
}

func TestPutUploadsObject(t *testing.T) {
	payload := []byte(`[{"round":"1"}]`)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/upload/storage/v1/b/f1-cache/o")
		assert.Equal(t, "schedule/formula1_com_2024.json", r.URL.Query().Get("name"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), string(payload))

		fmt.Fprintln(w, `{ "name": "schedule/formula1_com_2024.json" }`)
	})

	store := newTestStore(t, handler)
	err := store.Put(context.Background(), cache.NewKey("formula1_com", 2024), payload)
	assert.NoError(t, err)
}

func TestPutSurfacesServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	store := newTestStore(t, handler)
	err := store.Put(context.Background(), cache.NewKey("ergast", 2024), []byte("[]"))
	assert.Error(t, err)
}
