package converter

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore keeps sessions in memory, keyed by a random id. Sessions
// idle for longer than maxIdle are dropped when new ones are created.
type SessionStore struct {
	newSession func() *Session
	maxIdle    time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// NewSessionStore returns an empty store that builds sessions with factory.
// A zero maxIdle keeps sessions forever.
func NewSessionStore(factory func() *Session, maxIdle time.Duration) *SessionStore {
	return &SessionStore{
		newSession: factory,
		maxIdle:    maxIdle,
		sessions:   make(map[string]*entry),
		now:        time.Now,
	}
}

// Get returns the session for id and marks it used.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = st.now()
	return e.session, true
}

// Create stores a new session and returns it with its id.
func (st *SessionStore) Create() (string, *Session) {
	id := uuid.NewString()
	s := st.newSession()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.maxIdle > 0 {
		st.prune(st.maxIdle)
	}
	st.sessions[id] = &entry{session: s, lastSeen: st.now()}
	return id, s
}

// Prune drops sessions idle for longer than maxIdle and returns how many.
func (st *SessionStore) Prune(maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.prune(maxIdle)
}

func (st *SessionStore) prune(maxIdle time.Duration) int {
	cutoff := st.now().Add(-maxIdle)
	n := 0
	for id, e := range st.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
