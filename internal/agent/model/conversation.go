package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository persists conversation history. It lives on the
// caller side of the orchestrator: the engine reads history from TurnInput and
// returns the updated sequence, it never writes here itself.
type ConversationRepository interface {
	// AddMessages appends messages to the conversation history
	AddMessages(ctx context.Context, conversationID string, messages ...*schema.Message) error

	// LoadHistory retrieves the conversation history for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
