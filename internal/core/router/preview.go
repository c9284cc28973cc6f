package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/geopreview/internal/cache/keys"
	"github.com/mohammed-shakir/geopreview/internal/core/model"
	"github.com/mohammed-shakir/geopreview/internal/geometry/classify"
	"github.com/mohammed-shakir/geopreview/internal/geometry/features"
	"github.com/mohammed-shakir/geopreview/internal/geometry/wkt"
	"github.com/mohammed-shakir/geopreview/internal/hexbin"
)

const (
	formatGeoJSON = "geojson"
	formatWKT     = "wkt"
)

type previewParams struct {
	Format string
	Hexbin bool
	Auto   bool
	Res    int
}

func parsePreviewParams(r *http.Request, defaultRes int) (previewParams, error) {
	q := r.URL.Query()
	p := previewParams{Format: strings.ToLower(strings.TrimSpace(q.Get("format")))}
	switch p.Format {
	case "":
		p.Format = formatGeoJSON
	case formatGeoJSON, formatWKT:
	default:
		return p, fmt.Errorf("unsupported format %q (want geojson or wkt)", p.Format)
	}

	raw := strings.ToLower(strings.TrimSpace(q.Get("hexbin")))
	switch raw {
	case "", "false", "0", "off":
	case "true", "on", "default":
		p.Hexbin, p.Res = true, defaultRes
	case "auto":
		p.Hexbin, p.Auto, p.Res = true, true, defaultRes
	default:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("invalid hexbin %q", raw)
		}
		if err := hexbin.ValidateRes(n); err != nil {
			return p, err
		}
		p.Hexbin, p.Res = true, n
	}
	return p, nil
}

func (p previewParams) cacheOptions() keys.PreviewOptions {
	o := keys.PreviewOptions{Format: p.Format}
	switch {
	case p.Auto:
		o.Hexbin = -1
	case p.Hexbin:
		o.Hexbin = p.Res + 1
	}
	return o
}

type previewResponse struct {
	features.Result
	Hexbin *int     `json:"hexbin,omitempty"`
	WKT    []string `json:"wkt,omitempty"`
}

func decodeRowSet(r *http.Request) (model.RowSet, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var rs model.RowSet
	if err := dec.Decode(&rs); err != nil {
		return model.RowSet{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	return rs, nil
}

func handlePreview(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parsePreviewParams(r, d.Config.HexbinDefaultRes)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if d.Config.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, d.Config.MaxBodyBytes)
		}
		rs, err := decodeRowSet(r)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if d.Config.MaxRows > 0 && len(rs.Data) > d.Config.MaxRows {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("%d rows exceed the limit of %d", len(rs.Data), d.Config.MaxRows))
			return
		}

		canonical, err := json.Marshal(rs)
		if err != nil {
			writeError(w, http.StatusBadRequest, "row set is not serialisable")
			return
		}
		key := keys.PreviewKey(canonical, p.cacheOptions())
		if b, ok := d.Cache.Get(r.Context(), key); ok {
			w.Header().Set("X-Cache", "hit")
			writeRaw(w, http.StatusOK, b)
			return
		}

		ctx := r.Context()
		if d.Config.PreviewTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.Config.PreviewTimeout)
			defer cancel()
		}
		res, err := d.Builder.Build(ctx, rs)
		if err != nil {
			d.Logger.WarnContext(r.Context(), "preview aborted", "rows", len(rs.Data), "err", err)
			code := http.StatusServiceUnavailable
			if errors.Is(err, context.DeadlineExceeded) {
				code = http.StatusGatewayTimeout
			}
			writeError(w, code, "preview aborted")
			return
		}

		out := previewResponse{Result: res}
		if p.Hexbin && res.Mode != classify.ModeNone {
			rez := p.Res
			if p.Auto {
				rez = hexbin.ResolutionFor(res.Bounds, d.Config.HexbinTarget, p.Res)
			}
			agg, err := hexbin.Aggregate(res.Collection, rez)
			if err != nil {
				d.Logger.WarnContext(r.Context(), "hexbin failed; serving raw features", "res", rez, "err", err)
			} else {
				out.Collection = agg
				out.Hexbin = &rez
			}
		}
		if p.Format == formatWKT {
			out.WKT = encodeWKT(out.Collection)
		}

		b, err := json.Marshal(out)
		if err != nil {
			d.Logger.ErrorContext(r.Context(), "encode preview", "err", err)
			writeError(w, http.StatusInternalServerError, "encode response")
			return
		}
		d.Cache.Set(r.Context(), key, b)
		w.Header().Set("X-Cache", "miss")
		writeRaw(w, http.StatusOK, b)
	}
}

// encodeWKT is positionally aligned with fc.Features; unsupported geometries
// yield an empty string.
func encodeWKT(fc model.FeatureCollection) []string {
	out := make([]string, len(fc.Features))
	for i, f := range fc.Features {
		if s, err := wkt.Encode(f.Geometry); err == nil {
			out[i] = s
		}
	}
	return out
}

type classifyRequest struct {
	Columns []model.Column `json:"columns"`
}

type classifyResponse struct {
	classify.Result
	Mode  classify.Mode `json:"mode"`
	Types []string      `json:"normalizedTypes"`
}

func handleClassify(_ Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
			return
		}
		res := classify.Classify(req.Columns)
		types := make([]string, len(req.Columns))
		for i, c := range req.Columns {
			types[i] = classify.NormalizeType(c.Type)
		}
		writeJSON(w, http.StatusOK, classifyResponse{Result: res, Mode: res.Mode(), Types: types})
	}
}
