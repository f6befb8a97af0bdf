package nodes

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
	"github.com/Chative-core-poc-v1/csagent/internal/core/retry"
)

// Validate asks the structured model whether the tool output answers the
// question. A next_step outside the allowed set fails the attempt.
func (d *Deps) Validate(ctx context.Context, s *model.TurnState) (model.Validation, error) {
	system, err := prompts.RenderValidator(ctx, d.Agent, s.UserMessage, s.ToolOutput, d.allowedSteps)
	if err != nil {
		return model.Validation{}, err
	}
	return structured(ctx, d, s, NodeValidator, retry.Query(d.Limits.RetryBase), validatorFormat(d.allowedSteps),
		[]*schema.Message{schema.SystemMessage(system)},
		func(v model.Validation) error {
			if v.CanAnswer && v.NextStep == "" {
				return nil
			}
			if !slices.Contains(d.allowedSteps, v.NextStep) {
				return fmt.Errorf("next_step %q is not one of %s", v.NextStep, strings.Join(d.allowedSteps, ", "))
			}
			return nil
		})
}

// NewValidatorNode ends the turn with the tool output when it suffices,
// otherwise selects the data source to escalate to.
func NewValidatorNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, s *model.TurnState) (*model.TurnState, error) {
		l := d.logger(s, NodeValidator)
		v, err := d.Validate(ctx, s)
		if err != nil {
			l.Error().Err(err).Msg("response validation failed")
			s.CanAnswer = false
			s.NextStep = model.StepEnd
			s.Fail(errx.CategoryDatabase)
			return s, nil
		}

		s.CanAnswer = v.CanAnswer
		s.Reasoning = v.Reasoning
		s.NextStep = v.NextStep
		if v.CanAnswer || v.NextStep == model.StepEnd || v.NextStep == "" {
			s.NextStep = model.StepEnd
			s.Finish(s.ToolOutput)
			return s, nil
		}

		s.DataSource = strings.TrimPrefix(v.NextStep, model.RoutePrefix)
		l.Info().Str("data_source", s.DataSource).Str("reasoning", v.Reasoning).Msg("escalating to dataset query")
		return s, nil
	})
}
