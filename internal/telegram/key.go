package telegram

import "strings"

// Prefix namespaces conversation ids so the ledger can tell transports
// apart. A chat's conversation id is stable across restarts.
const Prefix = "tg-"

// ConversationID derives the ledger key for a channel.
func ConversationID(channel string) string {
	return Prefix + channel
}

// Channel recovers the transport channel from a conversation id.
func Channel(conversationID string) string {
	return strings.TrimPrefix(conversationID, Prefix)
}
