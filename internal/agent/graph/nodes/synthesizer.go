package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
)

// NewAnswerSynthesizeNode turns the accumulated query results into the final
// answer. It refuses to call the model without results.
func NewAnswerSynthesizeNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, s *model.TurnState) (*model.TurnState, error) {
		l := d.logger(s, NodeAnswerSynthesize)
		if strings.TrimSpace(s.AccumulatedResult) == "" {
			l.Warn().Msg("nothing to synthesize")
			s.Fail(errx.CategoryValidation)
			return s, nil
		}

		system, err := prompts.RenderSynthesizer(ctx, d.Agent, s.Problem, s.AccumulatedResult)
		if err != nil {
			l.Error().Err(err).Msg("failed to build synthesizer prompt")
			s.Fail(errx.CategoryGeneral)
			return s, nil
		}
		msgs := []*schema.Message{schema.SystemMessage(system), schema.UserMessage(s.UserMessage)}

		out, err := d.generate(ctx, s, NodeAnswerSynthesize, d.Models.Answer, d.Models.ReasoningModelName, msgs)
		if err != nil {
			l.Error().Err(err).Msg("answer synthesis failed")
			s.Fail(errx.Classify(err, errx.CategoryAIService))
			return s, nil
		}

		s.Finish(out.Content)
		d.persistMemory(ctx, s, NodeAnswerSynthesize)
		return s, nil
	})
}
