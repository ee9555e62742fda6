package draft

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/matt-dz/recipebox/internal/recipe"
)

const DefaultTTL = 30 * time.Minute

// Store keeps the drafts of open create forms. A draft that has not been
// used for longer than the TTL is discarded. Drafts that were submitted
// are remembered for a TTL so a resent form can be recognized.
type Store struct {
	mu        sync.Mutex
	drafts    map[ulid.ULID]*entry
	completed map[ulid.ULID]time.Time
	ttl       time.Duration
	now       func() time.Time
}

type entry struct {
	draft   *Draft
	touched time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		drafts:    make(map[ulid.ULID]*entry),
		completed: make(map[ulid.ULID]time.Time),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Start creates and stores a new draft.
func (s *Store) Start(categories []recipe.Category, categoriesErr error) *Draft {
	now := s.now()
	d := New(ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()), categories, categoriesErr)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID()] = &entry{draft: d, touched: now}
	return d
}

// Get returns a live draft and refreshes its expiry.
func (s *Store) Get(id ulid.ULID) (*Draft, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.drafts[id]
	if !ok {
		return nil, false
	}
	if now.Sub(e.touched) > s.ttl {
		delete(s.drafts, id)
		return nil, false
	}
	e.touched = now
	return e.draft, true
}

func (s *Store) Delete(id ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
}

// Complete removes a submitted draft and remembers its id.
func (s *Store) Complete(id ulid.ULID) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	s.completed[id] = now
}

// Completed reports whether the draft was submitted within the last TTL.
func (s *Store) Completed(id ulid.ULID) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.completed[id]
	if !ok {
		return false
	}
	if now.Sub(at) > s.ttl {
		delete(s.completed, id)
		return false
	}
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// Sweep removes expired drafts and reports how many were removed. Expired
// records of submitted drafts are dropped as well.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.drafts {
		if now.Sub(e.touched) > s.ttl {
			delete(s.drafts, id)
			removed++
		}
	}
	for id, at := range s.completed {
		if now.Sub(at) > s.ttl {
			delete(s.completed, id)
		}
	}
	return removed
}

// Run sweeps the store every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.DebugContext(ctx, "expired drafts", slog.Int("count", n), slog.Int("open", s.Len()))
			}
		}
	}
}
