// Package router wires the HTTP API onto a chi router.
package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geopreview/internal/basemap"
	"github.com/mohammed-shakir/geopreview/internal/cache"
	"github.com/mohammed-shakir/geopreview/internal/core/config"
	"github.com/mohammed-shakir/geopreview/internal/core/observability"
	"github.com/mohammed-shakir/geopreview/internal/geometry/features"
)

type Deps struct {
	Logger   *slog.Logger
	Config   config.Config
	Builder  *features.Builder
	Cache    cache.Interface
	Basemaps *basemap.Store
}

// Mount registers the /v1 API on r.
func Mount(r chi.Router, d Deps) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Builder == nil {
		d.Builder = features.NewBuilder(d.Logger)
	}
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/preview", instrument("/v1/preview", handlePreview(d)))
		r.Post("/classify", instrument("/v1/classify", handleClassify(d)))

		if d.Basemaps != nil {
			b := basemapHandlers{store: d.Basemaps, log: d.Logger}
			r.Route("/basemaps", func(r chi.Router) {
				r.Get("/", instrument("/v1/basemaps", b.list))
				r.Post("/", instrument("/v1/basemaps", b.add))
				r.Put("/order", instrument("/v1/basemaps/order", b.reorder))
				r.Put("/default", instrument("/v1/basemaps/default", b.setDefault))
				r.Post("/reset", instrument("/v1/basemaps/reset", b.reset))
				r.Put("/{id}", instrument("/v1/basemaps/{id}", b.update))
				r.Delete("/{id}", instrument("/v1/basemaps/{id}", b.remove))
			})
		}
	})
}

// instrument records request count and latency under a fixed route label.
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode response")
		return
	}
	writeRaw(w, code, b)
}

func writeRaw(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	b, _ := json.Marshal(errorBody{Error: msg})
	writeRaw(w, code, b)
}
