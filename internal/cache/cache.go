// Package cache holds rendered preview payloads in an in-process LRU with an
// optional shared Redis tier behind it.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/geopreview/internal/core/observability"
)

const (
	tierLRU   = "lru"
	tierRedis = "redis"
)

// Remote is the shared tier; *redisstore.Client satisfies it.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Interface interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

type Config struct {
	Size int
	TTL  time.Duration
	// PromoteAfter is the decayed request count a key needs before it is
	// written to the shared tier. Zero writes every entry.
	PromoteAfter float64
	HalfLife     time.Duration
}

// Preview never fails a caller: tier errors are logged and treated as misses.
type Preview struct {
	local   *expirable.LRU[string, []byte]
	remote  Remote
	ttl     time.Duration
	log     *slog.Logger
	hot     *hotness
	promote float64
}

func NewPreview(cfg Config, remote Remote, log *slog.Logger) *Preview {
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Preview{
		local:   expirable.NewLRU[string, []byte](cfg.Size, nil, cfg.TTL),
		remote:  remote,
		ttl:     cfg.TTL,
		log:     log,
		promote: cfg.PromoteAfter,
	}
	if remote != nil && cfg.PromoteAfter > 0 {
		p.hot = newHotness(cfg.HalfLife)
	}
	return p
}

func (p *Preview) Get(ctx context.Context, key string) ([]byte, bool) {
	if p.hot != nil {
		p.hot.touch(key)
	}
	if v, ok := p.local.Get(key); ok {
		observability.IncCacheHit(tierLRU)
		return v, true
	}
	observability.IncCacheMiss(tierLRU)

	if p.remote == nil {
		return nil, false
	}
	v, ok, err := p.remote.Get(ctx, key)
	if err != nil {
		p.log.WarnContext(ctx, "preview cache read failed", "tier", tierRedis, "key", key, "err", err)
		return nil, false
	}
	if !ok {
		observability.IncCacheMiss(tierRedis)
		return nil, false
	}
	observability.IncCacheHit(tierRedis)
	p.local.Add(key, v)
	return v, true
}

func (p *Preview) Set(ctx context.Context, key string, val []byte) {
	p.local.Add(key, val)
	if p.remote == nil {
		return
	}
	if p.hot != nil && p.hot.score(key) < p.promote {
		return
	}
	if err := p.remote.Set(ctx, key, val, p.ttl); err != nil {
		p.log.WarnContext(ctx, "preview cache write failed", "tier", tierRedis, "key", key, "err", err)
	}
}

func (p *Preview) Len() int { return p.local.Len() }

// Sweep forgets request counts that decayed below a tenth of the promotion
// threshold. Run it periodically when promotion is enabled.
func (p *Preview) Sweep() int {
	if p.hot == nil {
		return 0
	}
	return p.hot.sweep(p.promote / 10)
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, []byte)        {}
