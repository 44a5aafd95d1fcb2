package dialog

// State names the step a conversation is at. The zero value means no
// workflow is active for the chat.
type State string

const (
	StateIdle          State = ""
	StateSpawnRegion   State = "spawn/region"
	StateSpawnConfirm  State = "spawn/confirm"
	StateDeleteSelect  State = "delete/select"
	StateDeleteConfirm State = "delete/confirm"
)

// Data keys written by the workflows.
const (
	KeyRegion   = "region"
	KeyInstance = "instance"
)

// Session holds the dialog state of one chat: the current step and the
// selections collected so far. A session belongs to exactly one workflow
// run; starting a new run replaces it wholesale, so a handler can only ever
// see data written by earlier steps of the same run.
type Session struct {
	ChatID int64
	State  State
	data   map[string]string
}

func newSession(chatID int64, state State) *Session {
	return &Session{
		ChatID: chatID,
		State:  state,
		data:   make(map[string]string),
	}
}

// Set stores a collected value.
func (s *Session) Set(key, value string) {
	s.data[key] = value
}

// Lookup returns a collected value and whether it was present.
func (s *Session) Lookup(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Delete removes a collected value.
func (s *Session) Delete(key string) {
	delete(s.data, key)
}
