package store

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/go-pkgz/lgr"
)

// Backend defines persistence of the whole ordered postings list
type Backend interface {
	Load() ([]Posting, error)
	Save(postings []Posting) error
	String() string
	Close() error
}

// Store keeps postings in memory and persists them with Backend on each mutation.
// Writes are serialized, reads don't touch the backend.
type Store struct {
	backend  Backend
	mu       sync.RWMutex
	postings []Posting
}

// New makes Store for the given backend. Call Load before use.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load reads all postings from the backend, replacing the in-memory list.
// Missing storage results in an empty store, malformed storage is an error wrapping ErrMalformed.
func (s *Store) Load() ([]Posting, error) {
	postings, err := s.backend.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load postings from %s: %w", s.backend, err)
	}
	s.mu.Lock()
	s.postings = postings
	s.mu.Unlock()
	log.Printf("[INFO] loaded %d postings from %s", len(postings), s.backend)
	return clone(postings), nil
}

// Search returns postings with title containing keyword, case-insensitive and in original order.
// Empty keyword returns all postings.
func (s *Store) Search(keyword string) []Posting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if keyword == "" {
		return clone(s.postings)
	}

	kw := strings.ToLower(keyword)
	res := []Posting{}
	for _, p := range s.postings {
		if strings.Contains(strings.ToLower(p.Title), kw) {
			res = append(res, p)
		}
	}
	return res
}

// Append adds posting to the end and persists the full list. The new posting gets the next ID,
// CR LF line breaks in its fields are stored as LF.
// On persistence failure the in-memory list stays unchanged. Returns the updated list.
func (s *Store) Append(p Posting) ([]Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.normalized()
	p.ID = 1
	if n := len(s.postings); n > 0 {
		p.ID = s.postings[n-1].ID + 1
	}

	updated := make([]Posting, len(s.postings), len(s.postings)+1)
	copy(updated, s.postings)
	updated = append(updated, p)

	if err := s.backend.Save(updated); err != nil {
		return nil, fmt.Errorf("failed to save posting %q to %s: %w", p.Title, s.backend, err)
	}
	s.postings = updated
	log.Printf("[DEBUG] posting %d added, %q at %q", p.ID, p.Title, p.Company)
	return clone(updated), nil
}

// Get returns posting by ID
func (s *Store) Get(id int64) (Posting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.postings {
		if p.ID == id {
			return p, true
		}
	}
	return Posting{}, false
}

// Len returns number of postings
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.postings)
}

// Close closes the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

func clone(postings []Posting) []Posting {
	res := make([]Posting, len(postings))
	copy(res, postings)
	return res
}
