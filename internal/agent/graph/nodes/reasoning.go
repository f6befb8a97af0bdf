package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
)

// buildReasoningMessages assembles system prompt, long memory, the short-memory
// window and the user message.
func (d *Deps) buildReasoningMessages(ctx context.Context, s *model.TurnState) ([]*schema.Message, error) {
	var longMemory string
	if d.longMemoryEnabled() {
		mem, err := d.Memory.GetContext(ctx, s.UserMessage, d.Agent.Memory.Namespace)
		if err != nil {
			l := d.logger(s, NodeMainAgent)
			l.Warn().Err(err).Msg("long-term memory lookup failed")
		}
		longMemory = mem
	}

	system, err := prompts.RenderReasoningSystem(ctx, prompts.ReasoningVars{
		Agent:      d.Agent,
		LongMemory: longMemory,
		ToolName:   tools.ToolRetrieveDocument,
	})
	if err != nil {
		return nil, err
	}

	msgs := []*schema.Message{schema.SystemMessage(system)}
	if d.Agent.Memory.ShortTerm {
		window := conversations.TrimTail(conversations.Conversational(s.Messages[:s.HistoryLen]), d.ShortMemoryTurns)
		msgs = append(msgs, window...)
	}
	return append(msgs, schema.UserMessage(s.UserMessage)), nil
}

// NewMainAgentNode validates the user message and runs the tool-calling model.
// A reply without a tool call ends the turn.
func NewMainAgentNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, s *model.TurnState) (*model.TurnState, error) {
		l := d.logger(s, NodeMainAgent)
		if reason, ok := ValidateUserMessage(s.UserMessage, d.Limits.MaxMessageLength); !ok {
			l.Info().Str("reason", reason).Msg("user message rejected")
			s.Fail(errx.CategoryValidation)
			return s, nil
		}

		msgs, err := d.buildReasoningMessages(ctx, s)
		if err != nil {
			l.Error().Err(err).Msg("failed to build reasoning prompt")
			s.Fail(errx.CategoryGeneral)
			return s, nil
		}

		out, err := d.generate(ctx, s, NodeMainAgent, d.Models.Reasoning, d.Models.ReasoningModelName, msgs)
		if err != nil {
			l.Error().Err(err).Msg("reasoning model failed")
			s.Fail(errx.Classify(err, errx.CategoryAIService))
			return s, nil
		}

		if len(out.ToolCalls) == 0 {
			s.Finish(out.Content)
			d.persistMemory(ctx, s, NodeMainAgent)
			return s, nil
		}

		tc := out.ToolCalls[0]
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("call_%s_%d", s.TurnID, len(s.Messages))
		}
		s.ToolCall = &tc
		s.Messages = append(s.Messages, schema.AssistantMessage(out.Content, []schema.ToolCall{tc}))
		l.Debug().Str("tool_name", tc.Function.Name).Msg("tool call requested")
		return s, nil
	})
}
