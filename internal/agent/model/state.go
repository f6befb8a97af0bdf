package model

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
)

// TurnState is the mutable state of one in-flight turn. It is created per
// user message, threaded through every graph node of that turn and dropped
// once the turn returns; it is never shared across turns.
type TurnState struct {
	TurnID         string
	ConversationID string

	Messages    []*schema.Message // seeded from history, append-only within the turn
	HistoryLen  int               // number of prior messages the turn was seeded with
	UserMessage string
	TrustLevel  int

	// ReasoningAgent / tool call
	ToolCall   *schema.ToolCall
	ToolOutput string

	// ResponseValidator
	CanAnswer  bool
	Reasoning  string
	NextStep   string
	DataSource string

	// QueryPlanner / QueryGenerator
	Problem              string
	ProblemSolving       string
	QueryHint            string // plan or refinement hint consumed by the next round
	LastQuery            string
	QueryAgain           bool
	NextQueryDescription string
	Rounds               int
	AccumulatedResult    string

	TotalTokens  int
	TotalCostUSD float64

	Response string
	Category errx.Category
	done     bool
}

// AddTokens adds a non-negative token delta to the running total.
func (s *TurnState) AddTokens(n int) {
	if n > 0 {
		s.TotalTokens += n
	}
}

// AppendResult appends one query result to the accumulated buffer.
func (s *TurnState) AppendResult(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if s.AccumulatedResult != "" {
		s.AccumulatedResult += "\n\n"
	}
	s.AccumulatedResult += text
}

// Finish sets the final response exactly once and appends it to the
// conversation as an assistant message. Later calls are ignored.
func (s *TurnState) Finish(response string) {
	if s.done {
		return
	}
	s.done = true
	s.Response = response
	s.Messages = append(s.Messages, schema.AssistantMessage(response, nil))
}

// Fail finishes the turn with the fixed message of a failure category.
func (s *TurnState) Fail(category errx.Category) {
	if s.done {
		return
	}
	s.Category = category
	s.Finish(errx.UserMessage(category))
}

// Done reports whether a terminal response has been set.
func (s *TurnState) Done() bool {
	return s.done
}

// TurnInput is the public input of one turn.
type TurnInput struct {
	ConversationID string            `json:"conversation_id"`
	Message        string            `json:"message"`
	History        []*schema.Message `json:"history,omitempty"`
}

// TurnResult is what the orchestrator hands back to the caller, which owns
// persisting Messages and the token/cost totals.
type TurnResult struct {
	TurnID       string            `json:"turn_id"`
	Response     string            `json:"response"`
	TotalTokens  int               `json:"total_tokens"`
	TotalCostUSD float64           `json:"total_cost_usd"`
	TrustLevel   int               `json:"trust_level"` // 0 when the graph failed before a result existed
	Rounds       int               `json:"rounds"`
	Category     errx.Category     `json:"category,omitempty"`
	Messages     []*schema.Message `json:"messages"`
}

// Result snapshots the terminal state.
func (s *TurnState) Result() TurnResult {
	return TurnResult{
		TurnID:       s.TurnID,
		Response:     s.Response,
		TotalTokens:  s.TotalTokens,
		TotalCostUSD: s.TotalCostUSD,
		TrustLevel:   s.TrustLevel,
		Rounds:       s.Rounds,
		Category:     s.Category,
		Messages:     s.Messages,
	}
}
