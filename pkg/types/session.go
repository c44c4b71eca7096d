package types

import "time"

// ChatMessage is one turn of the conversation as stored inside the
// session record.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Category  string `json:"category,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// VectorEntry is a single embedded snippet of session-scoped knowledge,
// searched by cosine similarity.
type VectorEntry struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Source string    `json:"source,omitempty"`
	Vector []float64 `json:"vector"`
}

// Session is the whole per-conversation record. It is serialized as one
// JSON blob under a single key so reads and writes stay atomic. One
// session belongs to one (user, channel, credential) triple; the same
// user on a second device gets a second session.
type Session struct {
	ID             string `json:"id"`
	AppName        string `json:"app_name"`
	UserID         string `json:"user_id"`
	Channel        string `json:"channel,omitempty"`
	CredentialHash string `json:"credential_hash,omitempty"`
	Language       string `json:"language,omitempty"`

	// Context carries arbitrary per-session state shared across turns,
	// keyed by feature namespace.
	Context map[string]any `json:"context,omitempty"`

	Messages []ChatMessage `json:"messages"`

	// Workflows holds at most one in-flight guarded workflow per kind.
	// Merges happen at namespace granularity, last write wins.
	Workflows map[string]WorkflowState `json:"workflows,omitempty"`

	VectorIndex []VectorEntry `json:"vector_index,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

func (s *Session) Touch() {
	s.UpdatedAt = time.Now().Unix()
}

// ActiveWorkflow returns the single in-flight workflow state, if any.
// The engine keeps at most one non-terminal workflow per session.
func (s *Session) ActiveWorkflow() (WorkflowState, bool) {
	for _, st := range s.Workflows {
		if !st.Terminal() {
			return st, true
		}
	}
	return WorkflowState{}, false
}

// RecentMessages returns up to n of the newest messages in order.
func (s *Session) RecentMessages(n int) []ChatMessage {
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
