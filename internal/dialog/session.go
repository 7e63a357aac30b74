// ABOUTME: In-progress dialogue sessions and the store that owns them
// ABOUTME: In-memory map with a size cap; oldest session evicted when full

package dialog

import (
	"container/list"
	"sync"
	"time"

	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
)

// Session is one in-progress guided query. Collected holds submitted
// values in field order; its length is the index of the next field to
// ask for. Sessions live only in process memory.
type Session struct {
	ID        string
	Kind      reddit.Kind
	Collected []string
	CreatedAt time.Time
}

// Store holds at most one session per id. Implementations must be safe
// for concurrent use; the engine relies on the caller to serialize
// events for the same id.
type Store interface {
	Get(id string) (*Session, bool)
	Put(s *Session)
	Delete(id string)
	Len() int
}

const defaultMaxSessions = 1024

// MemoryStore is a size-capped in-memory Store. When the cap is reached
// the session started longest ago is evicted. There is no time-based
// expiry: abandoned sessions persist until overwritten, completed,
// cancelled, or evicted.
type MemoryStore struct {
	mu    sync.Mutex
	max   int
	items map[string]*list.Element
	order *list.List // front = most recently started
}

// NewMemoryStore creates a store holding at most max sessions. A
// non-positive max selects a default cap.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = defaultMaxSessions
	}
	return &MemoryStore{
		max:   max,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.items[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*Session), true
}

// Put stores the session, replacing any existing session for the same
// id. Starting a new dialogue is last-write-wins.
func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[s.ID]; ok {
		el.Value = s
		m.order.MoveToFront(el)
		return
	}
	m.items[s.ID] = m.order.PushFront(s)
	for m.order.Len() > m.max {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*Session).ID)
	}
}

func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[id]; ok {
		m.order.Remove(el)
		delete(m.items, id)
	}
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
