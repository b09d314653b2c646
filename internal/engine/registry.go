package engine

import (
	"sort"
	"sync"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// TableStore loads each fluid table once and hands the same read-only
// *Table to every caller until the entry is invalidated.
type TableStore struct {
	resolver Resolver
	opts     LoadOptions

	// OnLoad, if set, is called after every load attempt.
	OnLoad func(fluid string, t *Table, err error)

	group singleflight.Group

	mu     sync.RWMutex
	tables map[string]*Table
	gen    map[string]uint64
}

func NewTableStore(r Resolver, opts LoadOptions) *TableStore {
	return &TableStore{
		resolver: r,
		opts:     opts,
		tables:   make(map[string]*Table),
		gen:      make(map[string]uint64),
	}
}

// Get returns the cached table for fluid, loading it on first use.
func (s *TableStore) Get(fluid string) (*Table, error) {
	s.mu.RLock()
	t, ok := s.tables[fluid]
	gen := s.gen[fluid]
	s.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, _ := s.group.Do(fluid, func() (any, error) {
		s.mu.RLock()
		cached, ok := s.tables[fluid]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		t, err := Load(s.resolver, fluid, s.opts)
		if s.OnLoad != nil {
			s.OnLoad(fluid, t, err)
		}
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		// an Invalidate during the load means the bytes may already be stale
		if s.gen[fluid] == gen {
			s.tables[fluid] = t
		}
		s.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Invalidate drops the cached table so the next Get reloads it.
// Tables already handed out stay valid.
func (s *TableStore) Invalidate(fluid string) {
	s.mu.Lock()
	_, had := s.tables[fluid]
	delete(s.tables, fluid)
	s.gen[fluid]++
	s.mu.Unlock()
	s.group.Forget(fluid)
	if had {
		log.Infof("fluid table %q invalidated", fluid)
	}
}

// Loaded returns the identities currently cached, sorted.
func (s *TableStore) Loaded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables))
	for k := range s.tables {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fluids lists the identities the resolver can serve, falling back to the
// loaded set when the resolver cannot enumerate.
func (s *TableStore) Fluids() ([]string, error) {
	if l, ok := s.resolver.(Lister); ok {
		return l.List()
	}
	return s.Loaded(), nil
}

// Preload loads the given fluids in parallel and returns the first error.
func (s *TableStore) Preload(fluids ...string) error {
	var g errgroup.Group
	for _, f := range fluids {
		f := f
		g.Go(func() error {
			_, err := s.Get(f)
			return err
		})
	}
	return g.Wait()
}
