package nodes

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/metrics"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	"github.com/Chative-core-poc-v1/csagent/internal/core/retry"
)

// NewTurnState seeds the per-turn state from the public input.
func NewTurnState(in model.TurnInput) *model.TurnState {
	msgs := make([]*schema.Message, 0, len(in.History)+4)
	msgs = append(msgs, in.History...)
	return &model.TurnState{
		TurnID:         uuid.NewString(),
		ConversationID: in.ConversationID,
		Messages:       append(msgs, schema.UserMessage(in.Message)),
		HistoryLen:     len(in.History),
		UserMessage:    in.Message,
		TrustLevel:     model.DefaultTrustLevel,
	}
}

// EvaluateTrust scores the conversation history. Short histories are not
// evaluated. Classifier failures fail open to the default trust level.
func (d *Deps) EvaluateTrust(ctx context.Context, s *model.TurnState) model.TrustAssessment {
	l := d.logger(s, NodeTrustCheck)
	if s.HistoryLen <= d.Limits.TrustHistoryThreshold {
		l.Debug().Int("history", s.HistoryLen).Msg("short history, trust evaluation skipped")
		return trusted()
	}

	system, err := prompts.RenderTrust(ctx, s.Messages[:s.HistoryLen])
	if err != nil {
		l.Warn().Err(err).Msg("trust prompt failed, assuming trustworthy")
		return trusted()
	}

	single := retry.Policy{Attempts: 1}
	res, err := structured(ctx, d, s, NodeTrustCheck, single, trustFormat,
		[]*schema.Message{schema.SystemMessage(system)},
		func(a model.TrustAssessment) error {
			if a.TrustLevel == nil {
				return errors.New("trust_level missing")
			}
			return nil
		})
	if err != nil {
		l.Warn().Err(err).Msg("trust evaluation failed, assuming trustworthy")
		return trusted()
	}
	level := clampTrust(*res.TrustLevel)
	res.TrustLevel = &level
	return res
}

func trusted() model.TrustAssessment {
	level := model.DefaultTrustLevel
	return model.TrustAssessment{TrustLevel: &level}
}

// NewTrustCheckNode creates the turn state and runs the trust gate.
func NewTrustCheckNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (*model.TurnState, error) {
		s := NewTurnState(in)
		res := d.EvaluateTrust(ctx, s)
		s.TrustLevel = res.Level()

		if s.TrustLevel < d.Limits.TrustCutoff {
			msg := strings.TrimSpace(res.Message)
			if msg == "" {
				msg = LowTrustMessage
			}
			metrics.TrustShortCircuits.Inc()
			l := d.logger(s, NodeTrustCheck)
			l.Info().Int("trust_level", s.TrustLevel).Str("problem", res.Problem).Msg("turn stopped by trust gate")
			s.Finish(msg)
		}
		return s, nil
	})
}
