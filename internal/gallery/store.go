// Package gallery keeps enrolled face encodings in memory and serves
// the parallel-slice snapshots the matcher consumes. An HNSW index
// rides along for nearest-neighbor diagnostics; match decisions never
// depend on it.
package gallery

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/17hemanthkumar/pm/internal/facematch"
)

// ErrNotFound is returned when a person id has no enrolled encodings.
var ErrNotFound = errors.New("person not found")

type entry struct {
	key      int64
	personID string
	encoding facematch.Encoding
}

// Person summarizes one enrolled identity.
type Person struct {
	ID        string `json:"id"`
	Encodings int    `json:"encodings"`
}

// Neighbor is one approximate-nearest-neighbor hit with its exact
// recomputed distance.
type Neighbor struct {
	PersonID string  `json:"person_id"`
	Distance float64 `json:"distance"`
}

// Store is an in-memory gallery. A person may be enrolled under several
// encodings; enrollment order is preserved and defines snapshot order.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	byKey   map[int64]int // key -> position in entries
	nextKey int64
	index   *vectorIndex
}

// NewStore creates an empty gallery.
func NewStore() *Store {
	return &Store{
		byKey: make(map[int64]int),
		index: newVectorIndex(),
	}
}

// Enroll adds one encoding for personID and returns the id. An empty
// personID gets a generated UUID.
func (s *Store) Enroll(personID string, enc facematch.Encoding) (string, error) {
	if len(enc) == 0 {
		return "", fmt.Errorf("empty encoding for person %q", personID)
	}
	if personID == "" {
		personID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.nextKey
	s.nextKey++
	s.entries = append(s.entries, entry{key: key, personID: personID, encoding: cloneEncoding(enc)})
	s.byKey[key] = len(s.entries) - 1
	s.index.add(key, enc)
	return personID, nil
}

// EnrollPerson adds several encodings for one person and returns the
// id. Nothing is enrolled if any encoding is empty.
func (s *Store) EnrollPerson(personID string, encs []facematch.Encoding) (string, error) {
	if len(encs) == 0 {
		return "", fmt.Errorf("no encodings for person %q", personID)
	}
	for i, enc := range encs {
		if len(enc) == 0 {
			return "", fmt.Errorf("empty encoding at position %d for person %q", i, personID)
		}
	}
	if personID == "" {
		personID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, enc := range encs {
		key := s.nextKey
		s.nextKey++
		s.entries = append(s.entries, entry{key: key, personID: personID, encoding: cloneEncoding(enc)})
		s.byKey[key] = len(s.entries) - 1
		s.index.add(key, enc)
	}
	return personID, nil
}

// Remove deletes every encoding enrolled for personID.
func (s *Store) Remove(personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.personID == personID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, personID)
	}

	s.entries = kept
	s.byKey = make(map[int64]int, len(kept))
	for i, e := range kept {
		s.byKey[e.key] = i
	}
	s.index.rebuild(kept)
	return nil
}

// Len returns the number of enrolled encodings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// People lists enrolled identities in first-enrollment order, with the
// number of encodings each carries.
func (s *Store) People() []Person {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := []string{}
	counts := make(map[string]int)
	for _, e := range s.entries {
		if counts[e.personID] == 0 {
			order = append(order, e.personID)
		}
		counts[e.personID]++
	}

	people := make([]Person, len(order))
	for i, id := range order {
		people[i] = Person{ID: id, Encodings: counts[id]}
	}
	return people
}

// Snapshot returns parallel encoding and id slices in enrollment
// order. Both slices and the vectors inside them are copies, so the
// caller can hold them across later mutations.
func (s *Store) Snapshot() ([]facematch.Encoding, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	encodings := make([]facematch.Encoding, len(s.entries))
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		encodings[i] = cloneEncoding(e.encoding)
		ids[i] = e.personID
	}
	return encodings, ids
}

// Nearest returns up to k neighbors of enc ordered by exact distance.
// The candidate set comes from the HNSW graph, so this is approximate
// and serves diagnostics, not match decisions.
func (s *Store) Nearest(enc facematch.Encoding, k int) []Neighbor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.index.search(enc, k)
	neighbors := make([]Neighbor, 0, len(keys))
	for _, key := range keys {
		pos, ok := s.byKey[key]
		if !ok {
			continue
		}
		e := s.entries[pos]
		neighbors = append(neighbors, Neighbor{
			PersonID: e.personID,
			Distance: facematch.EuclideanDistance(enc, e.encoding),
		})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	return neighbors
}

func cloneEncoding(enc facematch.Encoding) facematch.Encoding {
	clone := make(facematch.Encoding, len(enc))
	copy(clone, enc)
	return clone
}
