package sessions

import "sync"

// Session is the authentication state visible to the rest of the application.
// It is created empty at process start, mutated by the token manager on token
// issue/refresh, and reset to empty on logout or irrecoverable refresh failure.
type Session struct {
	AccessToken     string // Current bearer credential, empty when logged out
	IsAuthenticated bool   // True iff a token has been set and not yet cleared
}

// Subscriber receives the new session state after every mutation.
type Subscriber func(Session)

// Store holds the current session and notifies subscribers on change. It is
// the only place the access token lives; UI layers treat it as read-only
// observed state and only the token manager and auth use-cases write to it.
type Store struct {
	mu          sync.RWMutex
	session     Session
	subscribers map[int]Subscriber
	nextID      int
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]Subscriber),
	}
}

// Read returns the current session state.
func (s *Store) Read() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Write replaces the stored access token. An empty token marks the session
// unauthenticated.
func (s *Store) Write(accessToken string) {
	s.mu.Lock()
	s.session = Session{
		AccessToken:     accessToken,
		IsAuthenticated: accessToken != "",
	}
	session := s.session
	subscribers := s.snapshotLocked()
	s.mu.Unlock()

	notify(subscribers, session)
}

// Clear resets the session to empty.
func (s *Store) Clear() {
	s.mu.Lock()
	s.session = Session{}
	session := s.session
	subscribers := s.snapshotLocked()
	s.mu.Unlock()

	notify(subscribers, session)
}

// Subscribe registers fn to be called after every session mutation. Callbacks
// run synchronously on the writer's goroutine and must not mutate the session
// or call back into the token manager. The returned function removes the
// subscription.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// snapshotLocked copies the subscriber list so callbacks run outside the lock.
func (s *Store) snapshotLocked() []Subscriber {
	subscribers := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	return subscribers
}

func notify(subscribers []Subscriber, session Session) {
	for _, fn := range subscribers {
		fn(session)
	}
}
