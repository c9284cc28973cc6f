package basemap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/geopreview/internal/cache/keys"
)

const (
	OpAdd        = "add"
	OpUpdate     = "update"
	OpRemove     = "remove"
	OpReorder    = "reorder"
	OpSetDefault = "set_default"
	OpReset      = "reset"
)

// Change describes a committed write.
type Change struct {
	Op      string
	Key     string
	Version uint64
}

// Notifier is told about every committed write so other replicas can drop
// their cached copy.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

type Option func(*Store)

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notify = n } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

func WithCacheSize(n int) Option { return func(s *Store) { s.cacheSize = n } }

// Store serialises writes per process; across replicas the last write wins.
type Store struct {
	storage   Storage
	notify    Notifier
	log       *slog.Logger
	cacheSize int
	cache     *lru.Cache[string, Settings]

	mu sync.Mutex
}

func NewStore(storage Storage, opts ...Option) (*Store, error) {
	s := &Store{storage: storage, cacheSize: 64}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	c, err := lru.New[string, Settings](s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("settings cache: %w", err)
	}
	s.cache = c
	return s, nil
}

// Settings returns the settings of namespace ns, or the defaults when none
// were stored yet.
func (s *Store) Settings(ctx context.Context, ns string) (Settings, error) {
	key := keys.SettingsKey(ns)
	if cur, ok := s.cache.Get(key); ok {
		return cur.clone(), nil
	}
	cur, err := s.load(ctx, key)
	if err != nil {
		return Settings{}, err
	}

	// a write may have committed while we were reading
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache.Peek(key); ok && cached.Version >= cur.Version {
		return cached.clone(), nil
	}
	s.cache.Add(key, cur)
	return cur.clone(), nil
}

func (s *Store) load(ctx context.Context, key string) (Settings, error) {
	b, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return Defaults(), nil
	}
	var cur Settings
	if err := json.Unmarshal(b, &cur); err != nil {
		return Settings{}, fmt.Errorf("decode settings %s: %w", key, err)
	}
	cur.normalize()
	return cur, nil
}

// mutate applies fn to a fresh copy read from storage, bumps the version and
// writes it back.
func (s *Store) mutate(ctx context.Context, ns, op string, fn func(*Settings) error) (Settings, error) {
	key := keys.SettingsKey(ns)

	s.mu.Lock()
	cur, err := s.load(ctx, key)
	if err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	next := cur.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	next.normalize()
	next.Version = cur.Version + 1

	b, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.storage.Put(ctx, key, b); err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	s.cache.Add(key, next)
	s.mu.Unlock()

	if s.notify != nil {
		if err := s.notify.Notify(ctx, Change{Op: op, Key: key, Version: next.Version}); err != nil {
			s.log.WarnContext(ctx, "settings change not published", "op", op, "key", key, "version", next.Version, "err", err)
		}
	}
	return next.clone(), nil
}

// Add stores b, generating an ID when b has none. The first basemap added to
// an empty list becomes the default.
func (s *Store) Add(ctx context.Context, ns string, b Basemap) (Basemap, error) {
	if b.ID == "" {
		id, err := newID()
		if err != nil {
			return Basemap{}, err
		}
		b.ID = id
	}
	if err := b.Validate(); err != nil {
		return Basemap{}, err
	}
	_, err := s.mutate(ctx, ns, OpAdd, func(st *Settings) error {
		if st.index(b.ID) >= 0 {
			return fmt.Errorf("%w: %s", ErrConflict, b.ID)
		}
		st.Basemaps = append(st.Basemaps, b)
		st.Order = append(st.Order, b.ID)
		return nil
	})
	if err != nil {
		return Basemap{}, err
	}
	return b, nil
}

func (s *Store) Update(ctx context.Context, ns, id string, b Basemap) (Basemap, error) {
	b.ID = id
	if err := b.Validate(); err != nil {
		return Basemap{}, err
	}
	_, err := s.mutate(ctx, ns, OpUpdate, func(st *Settings) error {
		i := st.index(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		st.Basemaps[i] = b
		return nil
	})
	if err != nil {
		return Basemap{}, err
	}
	return b, nil
}

// Remove deletes id; removing the default moves it to the first basemap in
// order.
func (s *Store) Remove(ctx context.Context, ns, id string) (Settings, error) {
	return s.mutate(ctx, ns, OpRemove, func(st *Settings) error {
		i := st.index(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if len(st.Basemaps) == 1 {
			return ErrLastBasemap
		}
		st.Basemaps = slices.Delete(st.Basemaps, i, i+1)
		st.Order = slices.DeleteFunc(st.Order, func(o string) bool { return o == id })
		return nil
	})
}

// Reorder replaces the display order; ids must be a permutation of the
// stored basemap IDs.
func (s *Store) Reorder(ctx context.Context, ns string, ids []string) (Settings, error) {
	return s.mutate(ctx, ns, OpReorder, func(st *Settings) error {
		if len(ids) != len(st.Basemaps) {
			return ErrInvalidOrder
		}
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] || st.index(id) < 0 {
				return fmt.Errorf("%w: %q", ErrInvalidOrder, id)
			}
			seen[id] = true
		}
		st.Order = slices.Clone(ids)
		return nil
	})
}

func (s *Store) SetDefault(ctx context.Context, ns, id string) (Settings, error) {
	return s.mutate(ctx, ns, OpSetDefault, func(st *Settings) error {
		if st.index(id) < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		st.DefaultID = id
		return nil
	})
}

// Reset restores the built-in defaults. The version keeps increasing so
// replicas still see the reset as newer.
func (s *Store) Reset(ctx context.Context, ns string) (Settings, error) {
	return s.mutate(ctx, ns, OpReset, func(st *Settings) error {
		d := Defaults()
		st.Basemaps, st.Order, st.DefaultID = d.Basemaps, d.Order, d.DefaultID
		return nil
	})
}

// Invalidate drops the cached settings under key unless the cached copy is
// already at version or newer. It reports whether an entry was dropped.
func (s *Store) Invalidate(key string, version uint64) bool {
	cur, ok := s.cache.Peek(key)
	if !ok || cur.Version >= version {
		return false
	}
	return s.cache.Remove(key)
}
