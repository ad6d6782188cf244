package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrNotFound is returned when a study id is unknown.
var ErrNotFound = errors.New("study: not found")

// Store keeps study sessions keyed by id.
//
// NextID does not reserve the id: callers creating studies concurrently must
// serialise NextID and the first Save.
type Store interface {
	NextID() (string, error)
	Get(id string) (*Session, error)
	Save(s *Session) error
	List() ([]*Session, error)
}

// FormatID builds a study id such as ST-2025-0001.
func FormatID(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// idSeq extracts the trailing sequence number of an id, or 0.
func idSeq(id string) int {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// MemoryStore is a process-local Store. Sessions are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu     sync.Mutex
	prefix string
	year   int
	seq    int
	items  map[string][]byte
}

// NewMemoryStore creates an empty store issuing ids with the given prefix
// and year.
func NewMemoryStore(prefix string, year int) *MemoryStore {
	return &MemoryStore{prefix: prefix, year: year, items: make(map[string][]byte)}
}

// NextID returns the id following the highest sequence saved so far.
func (m *MemoryStore) NextID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FormatID(m.prefix, m.year, m.seq+1), nil
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.Lock()
	data, ok := m.items[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return decode(data)
}

// Save stores a copy of the session.
func (m *MemoryStore) Save(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("study: save %s: %w", s.ID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = data
	if n := idSeq(s.ID); n > m.seq {
		m.seq = n
	}
	return nil
}

// List returns every session ordered by id.
func (m *MemoryStore) List() ([]*Session, error) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Strings(ids)

	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		s, err := m.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("study: decode: %w", err)
	}
	return &s, nil
}
