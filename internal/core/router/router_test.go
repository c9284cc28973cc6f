package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geopreview/internal/basemap"
	"github.com/mohammed-shakir/geopreview/internal/cache"
	"github.com/mohammed-shakir/geopreview/internal/core/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		MaxRows:          100,
		MaxBodyBytes:     1 << 20,
		HexbinDefaultRes: 6,
		HexbinTarget:     20,
		PreviewTimeout:   5 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	store, err := basemap.NewStore(basemap.NewMemoryStorage(), basemap.WithLogger(log))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	r := chi.NewRouter()
	Mount(r, Deps{
		Logger:   log,
		Config:   cfg,
		Cache:    cache.NewPreview(cache.Config{Size: 16, TTL: time.Minute}, nil, log),
		Basemaps: store,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: body is not JSON: %s", method, path, raw)
		}
	}
	return resp, out
}

func featureList(t *testing.T, body map[string]any) []any {
	t.Helper()
	fc, ok := body["featureCollection"].(map[string]any)
	if !ok {
		t.Fatalf("missing featureCollection: %v", body)
	}
	fs, ok := fc["features"].([]any)
	if !ok {
		t.Fatalf("features is not an array: %v", fc)
	}
	return fs
}
