package nodes

import (
	"context"

	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
	"github.com/Chative-core-poc-v1/csagent/internal/core/retry"
)

// NewToolCallNode executes the requested document retrieval and records the
// result as a tool message.
func NewToolCallNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, s *model.TurnState) (*model.TurnState, error) {
		l := d.logger(s, NodeToolCall)
		if s.ToolCall == nil {
			l.Error().Msg("tool node reached without a tool call")
			s.Fail(errx.CategoryGeneral)
			return s, nil
		}

		info, err := d.Tool.Info(ctx)
		if err != nil {
			l.Error().Err(err).Msg("tool info failed")
			s.Fail(errx.CategoryGeneral)
			return s, nil
		}

		var output string
		if s.ToolCall.Function.Name != info.Name {
			l.Warn().Str("tool_name", s.ToolCall.Function.Name).Msg("unknown tool requested")
			output = tools.NoDocumentMessage
		} else {
			toolCtx := asComponent(ctx, info.Name, components.ComponentOfTool)
			output, err = retry.Do(toolCtx, d.policy(NodeToolCall, retry.Default(d.Limits.RetryBase)), func(ctx context.Context) (string, error) {
				if _, perr := tools.ParseRetrieveArguments(s.ToolCall.Function.Arguments); perr != nil {
					return "", retry.Permanent(perr)
				}
				return d.Tool.InvokableRun(ctx, s.ToolCall.Function.Arguments)
			})
			if err != nil {
				l.Warn().Err(err).Msg("tool execution failed")
				output = tools.RetrievalFailedMessage
			}
		}

		s.ToolOutput = output
		s.Messages = append(s.Messages, schema.ToolMessage(output, s.ToolCall.ID))
		return s, nil
	})
}
