package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProvider_StandardCollectorsAndBuildInfo(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test", Revision: "r", Branch: "b", BuildDate: "now"}})

	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "smoke"})
	p.Register(g)
	g.Set(42)
	if n := testutil.CollectAndCount(g); n == 0 {
		t.Fatalf("expected a sample from test_gauge, got %d", n)
	}

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"go_goroutines", "test_gauge 42", `app_build_info{branch="b",build_date="now",revision="r",version="test"} 1`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in payload; got:\n%s", want, body)
		}
	}
}

func TestInit_Defaults(t *testing.T) {
	p := Init(Config{})
	if p.cfg.Addr != ":9090" || p.cfg.Path != "/metrics" {
		t.Fatalf("defaults: %+v", p.cfg)
	}
}

func TestBuildFromEnv(t *testing.T) {
	t.Setenv("BUILD_REVISION", "abc123")
	t.Setenv("BUILD_BRANCH", "main")
	b := BuildFromEnv("1.2.0")
	if b.Version != "1.2.0" || b.Revision != "abc123" || b.Branch != "main" {
		t.Fatalf("build=%+v", b)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	p := Init(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
