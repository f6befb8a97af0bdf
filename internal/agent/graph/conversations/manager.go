package conversations

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
)

// MessagesManager sits on the caller side of the orchestrator: it seeds a turn
// with stored history and persists what the turn appended.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
}

func NewMessagesManager(conversationRepo model.ConversationRepository) *MessagesManager {
	return &MessagesManager{conversationRepo: conversationRepo}
}

// PrepareTurn loads the stored history of a conversation into a TurnInput.
func (cm *MessagesManager) PrepareTurn(ctx context.Context, conversationID, message string) (model.TurnInput, error) {
	if conversationID == "" {
		return model.TurnInput{}, fmt.Errorf("conversation id is empty")
	}
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return model.TurnInput{}, err
	}
	return model.TurnInput{
		ConversationID: conversationID,
		Message:        message,
		History:        history.Messages,
	}, nil
}

// SaveTurn persists the messages a turn appended after its seeded history.
func (cm *MessagesManager) SaveTurn(ctx context.Context, in model.TurnInput, result model.TurnResult) error {
	if len(result.Messages) <= len(in.History) {
		return nil
	}
	return cm.conversationRepo.AddMessages(ctx, in.ConversationID, result.Messages[len(in.History):]...)
}

// MessageCount reports how many messages are stored for a conversation.
func (cm *MessagesManager) MessageCount(ctx context.Context, conversationID string) (int, error) {
	return cm.conversationRepo.GetMessageCount(ctx, conversationID)
}

// Reset drops the stored history of a conversation.
func (cm *MessagesManager) Reset(ctx context.Context, conversationID string) error {
	return cm.conversationRepo.ClearHistory(ctx, conversationID)
}

// ====================== Helper function ======================

// TrimTail returns a copy of the last maxTurns messages. A non-positive
// maxTurns yields an empty window.
func TrimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 {
		return []*schema.Message{}
	}
	if len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}

// Conversational keeps only user and final assistant messages, dropping system
// prompts, tool results and tool-call stubs.
func Conversational(messages []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		if m == nil || m.Content == "" {
			continue
		}
		if m.Role == schema.User || (m.Role == schema.Assistant && len(m.ToolCalls) == 0) {
			out = append(out, m)
		}
	}
	return out
}
