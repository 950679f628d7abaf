package browse

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// SessionStore keeps browsing sessions by id. It holds a bounded number of
// sessions and evicts the least recently used one.
type SessionStore struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
	fetcher  Fetcher
	opts     Options
	logger   *zap.Logger
}

// NewSessionStore creates a store holding up to maxSessions sessions.
func NewSessionStore(fetcher Fetcher, opts Options, maxSessions int, logger *zap.Logger) *SessionStore {
	metrics := defaultSessionMetrics()
	sessions, err := lru.NewWithEvict[string, *Session](max(maxSessions, 1), func(string, *Session) {
		metrics.sessionDelta(-1)
	})
	if err != nil {
		panic(err)
	}
	return &SessionStore{
		sessions: sessions,
		fetcher:  fetcher,
		opts:     opts,
		logger:   logger.Named("browse"),
	}
}

// Get returns the session for id, if it is still held.
func (st *SessionStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return st.sessions.Get(id)
}

// GetOrCreate returns the session for id. Unknown or empty ids get a new
// session under a freshly generated id; created reports that case.
func (st *SessionStore) GetOrCreate(id string) (sess *Session, sessionID string, created bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.Get(id); ok {
		return sess, id, false
	}

	sessionID = uuid.NewString()
	sess = NewSession(st.fetcher, st.opts, st.logger.With(zap.String("session", sessionID)))
	st.sessions.Add(sessionID, sess)
	defaultSessionMetrics().sessionDelta(1)
	return sess, sessionID, true
}

// Len is the number of sessions held.
func (st *SessionStore) Len() int {
	return st.sessions.Len()
}
