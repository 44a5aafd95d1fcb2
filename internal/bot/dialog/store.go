package dialog

import "sync"

// Store keeps at most one active Session per chat, in memory only. State is
// lost on restart; an interrupted dialog is simply restarted by the user.
//
// The map is guarded for cross-chat access. Mutation of an individual
// session is left to its owning chat, which the dispatcher serializes.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
	}
}

// Begin creates a fresh session for the chat in the given state, replacing
// any session already active for it. Re-entering a workflow mid-flow thereby
// resets and restarts.
func (s *Store) Begin(chatID int64, state State) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newSession(chatID, state)
	s.sessions[chatID] = sess
	return sess
}

// Get returns the chat's active session, or nil when the chat is idle.
func (s *Store) Get(chatID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions[chatID]
}

// Clear destroys the chat's session. Safe to call when none is active.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
}

// Active returns the number of chats with a session in flight.
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
