package memory

import (
	"hash/maphash"
	"sync"
	"time"

	"github.com/nkiryanov/delivery/internal/models"
	"github.com/nkiryanov/delivery/internal/repository"
)

const shardCount = 32

// Stored token with its own lock
// Once removed is set the entry is dead: it is going to be unlinked from the shard
// and whoever sees it has to look the id up again
type entry struct {
	mu      sync.Mutex
	token   models.RefreshToken
	removed bool
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func (s *shard) load(id string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

// Drop the dead entry from the map unless it was replaced already
func (s *shard) unlink(id string, e *entry) {
	s.mu.Lock()
	if s.entries[id] == e {
		delete(s.entries, id)
	}
	s.mu.Unlock()
}

// In memory refresh token storage
//
// Tokens are spread over shards, each shard has a map of entries and every entry has a lock.
// The shard lock is held only to find, insert or delete an entry, and never together with an entry lock.
// So operations on different ids do not wait on each other, operations on the same id are serialized.
type RefreshTokenRepo struct {
	seed   maphash.Seed
	shards [shardCount]*shard
}

var _ repository.RefreshTokenRepo = (*RefreshTokenRepo)(nil)

func NewRefreshTokenRepo() *RefreshTokenRepo {
	r := &RefreshTokenRepo{seed: maphash.MakeSeed()}
	for i := range r.shards {
		r.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return r
}

func (r *RefreshTokenRepo) shard(id string) *shard {
	return r.shards[maphash.String(r.seed, id)%shardCount]
}

func (r *RefreshTokenRepo) Put(token models.RefreshToken) (models.RefreshToken, bool) {
	s := r.shard(token.ID)

	for {
		e := s.load(token.ID)
		if e == nil {
			s.mu.Lock()
			if _, ok := s.entries[token.ID]; ok {
				s.mu.Unlock()
				continue
			}
			s.entries[token.ID] = &entry{token: token}
			s.mu.Unlock()
			return models.RefreshToken{}, false
		}

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			s.unlink(token.ID, e)
			continue
		}
		previous := e.token
		e.token = token
		e.mu.Unlock()

		return previous, true
	}
}

func (r *RefreshTokenRepo) Get(id string) (models.RefreshToken, bool) {
	s := r.shard(id)

	for {
		e := s.load(id)
		if e == nil {
			return models.RefreshToken{}, false
		}

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			s.unlink(id, e)
			continue
		}
		token := e.token
		e.mu.Unlock()

		return token, true
	}
}

func (r *RefreshTokenRepo) Remove(id string) (models.RefreshToken, bool) {
	s := r.shard(id)

	for {
		e := s.load(id)
		if e == nil {
			return models.RefreshToken{}, false
		}

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			s.unlink(id, e)
			continue
		}
		e.removed = true
		token := e.token
		e.mu.Unlock()

		s.unlink(id, e)
		return token, true
	}
}

// Compute calls fn with the stored token while holding the token lock
// If there is no token fn is called under the shard lock, so a concurrent Put for the same id waits
func (r *RefreshTokenRepo) Compute(id string, fn repository.ComputeFunc) error {
	s := r.shard(id)

	for {
		e := s.load(id)
		if e == nil {
			s.mu.Lock()
			if _, ok := s.entries[id]; ok {
				s.mu.Unlock()
				continue
			}
			next, keep, err := fn(models.RefreshToken{}, false)
			if keep {
				s.entries[id] = &entry{token: next}
			}
			s.mu.Unlock()
			return err
		}

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			s.unlink(id, e)
			continue
		}

		next, keep, err := fn(e.token, true)
		if keep {
			e.token = next
			e.mu.Unlock()
			return err
		}
		e.removed = true
		e.mu.Unlock()

		s.unlink(id, e)
		return err
	}
}

func (r *RefreshTokenRepo) DeleteExpired(now time.Time) int {
	type candidate struct {
		id string
		e  *entry
	}

	deleted := 0
	for _, s := range r.shards {
		s.mu.RLock()
		candidates := make([]candidate, 0, len(s.entries))
		for id, e := range s.entries {
			candidates = append(candidates, candidate{id: id, e: e})
		}
		s.mu.RUnlock()

		for _, c := range candidates {
			c.e.mu.Lock()
			if c.e.removed || !c.e.token.Expired(now) {
				c.e.mu.Unlock()
				continue
			}
			c.e.removed = true
			c.e.mu.Unlock()

			s.unlink(c.id, c.e)
			deleted++
		}
	}

	return deleted
}

// Number of stored tokens
// Tokens being removed right now may be counted
func (r *RefreshTokenRepo) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
