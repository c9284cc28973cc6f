package cache

import (
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const hotShards = 64

// hotness counts requests per preview key with exponential decay, so a key
// that was popular an hour ago scores close to zero now.
type hotness struct {
	halfLife float64
	now      func() time.Time
	shards   [hotShards]hotShard
}

type hotShard struct {
	mu sync.Mutex
	m  map[string]*hit
}

type hit struct {
	score float64
	last  time.Time
}

func newHotness(halfLife time.Duration) *hotness {
	if halfLife <= 0 {
		halfLife = time.Minute
	}
	h := &hotness{halfLife: halfLife.Seconds(), now: time.Now}
	for i := range h.shards {
		h.shards[i].m = make(map[string]*hit)
	}
	return h
}

// touch records one request for key and returns the decayed score including it.
func (h *hotness) touch(key string) float64 {
	s := h.shard(key)
	n := h.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.m[key]
	if c == nil {
		s.m[key] = &hit{score: 1, last: n}
		return 1
	}
	c.score = decay(c.score, n.Sub(c.last).Seconds(), h.halfLife) + 1
	c.last = n
	return c.score
}

func (h *hotness) score(key string) float64 {
	s := h.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.m[key]
	if c == nil {
		return 0
	}
	return decay(c.score, h.now().Sub(c.last).Seconds(), h.halfLife)
}

// sweep drops keys whose score decayed below floor.
func (h *hotness) sweep(floor float64) int {
	n := h.now()
	removed := 0
	for i := range h.shards {
		s := &h.shards[i]
		s.mu.Lock()
		for k, c := range s.m {
			if decay(c.score, n.Sub(c.last).Seconds(), h.halfLife) < floor {
				delete(s.m, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func (h *hotness) size() int {
	total := 0
	for i := range h.shards {
		h.shards[i].mu.Lock()
		total += len(h.shards[i].m)
		h.shards[i].mu.Unlock()
	}
	return total
}

func decay(score, dt, halfLife float64) float64 {
	if score == 0 || dt <= 0 || halfLife <= 0 {
		return score
	}
	return score * math.Exp(-math.Ln2/halfLife*dt)
}

func (h *hotness) shard(key string) *hotShard {
	return &h.shards[xxhash.Sum64String(key)&(hotShards-1)]
}
