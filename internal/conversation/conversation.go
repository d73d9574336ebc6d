package conversation

import (
	"errors"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotFound means an operation referenced a conversation that was
// never initialized. Appending to a missing conversation is a contract
// violation, never a silent create.
var ErrNotFound = errors.New("conversation not found")

// Message is one ledger entry. Messages are immutable once appended;
// MessageID is the optional dedup key (the upstream event id).
type Message struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	MessageID string    `bson:"message_id,omitempty" json:"message_id,omitempty"`
	UserID    string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Timestamp time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// Conversation is the unit of ledger state. Messages keep append order;
// callers never reorder them.
type Conversation struct {
	ID              string     `bson:"conversation_id" json:"conversation_id"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
	Active          bool       `bson:"active,omitempty" json:"active,omitempty"`
	Messages        []Message  `bson:"messages" json:"messages"`
	LastGitHubCheck *time.Time `bson:"last_github_check,omitempty" json:"last_github_check,omitempty"`
}

// AppendResult is the two-variant outcome of AddMessage: either the
// full post-append message list, or Duplicate when the message_id was
// already recorded and nothing was written.
type AppendResult struct {
	Messages  []Message
	Duplicate bool
}
