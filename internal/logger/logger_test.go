package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestBuild_FieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn", Service: "geopreview", Component: "test"}, &buf)

	zl.Info().Msg("hidden")
	zl.Warn().Msg("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines want 1: %s", len(lines), buf.String())
	}
	l := lines[0]
	if l["msg"] != "shown" || l["level"] != "warn" {
		t.Fatalf("unexpected line: %v", l)
	}
	if l["service"] != "geopreview" || l["component"] != "test" {
		t.Fatalf("missing static fields: %v", l)
	}
	if _, ok := l["timestamp"]; !ok {
		t.Fatalf("missing timestamp: %v", l)
	}
}

func TestSlogBridge_ContextFieldsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug"}, &buf)
	log := NewSlog(&zl).With("route", "/v1/preview")

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithComponent(ctx, "preview")
	ctx = WithQueryID(ctx, "q-42")

	log.WarnContext(ctx, "row dropped",
		"row", 3,
		"err", errors.New("bad wkt"),
		slog.Group("coords", "lat", 200.0, "lng", 40.0),
	)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines: %s", len(lines), buf.String())
	}
	l := lines[0]
	checks := map[string]any{
		"level":      "warn",
		"request_id": "req-1",
		"component":  "preview",
		"query_id":   "q-42",
		"route":      "/v1/preview",
		"row":        3.0,
		"err":        "bad wkt",
		"coords.lat": 200.0,
		"coords.lng": 40.0,
	}
	for k, want := range checks {
		if l[k] != want {
			t.Fatalf("%s=%v want %v (line %v)", k, l[k], want, l)
		}
	}
}

func TestSlogBridge_EnabledFollowsLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "error"}, &buf)
	log := NewSlog(&zl)
	if log.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn must be disabled at error level")
	}
	log.Warn("nope")
	log.Error("yes")
	if lines := decodeLines(t, &buf); len(lines) != 1 {
		t.Fatalf("got %d lines want 1", len(lines))
	}
}

func TestSlogBridge_Groups(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info"}, &buf)
	NewSlog(&zl).WithGroup("cache").Info("miss", "tier", "redis")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["cache.tier"] != "redis" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestFromContext_NilParent(t *testing.T) {
	l := FromContext(WithRequestID(context.Background(), ""), nil)
	if l == nil {
		t.Fatal("nil logger")
	}
	l.Info().Msg("discarded")
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 16 || a == b {
		t.Fatalf("ids %q %q", a, b)
	}
}
