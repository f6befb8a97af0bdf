package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/metrics"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	"github.com/Chative-core-poc-v1/csagent/internal/core/retry"
	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
)

// Deps carries the read-only collaborators every node of the turn graph uses.
// One Deps is shared by all concurrent turns of an orchestrator.
type Deps struct {
	Models           *ChatModels
	Agent            model.AgentConfiguration
	Limits           model.EngineConfig
	ShortMemoryTurns int
	Tool             tool.InvokableTool
	Datasets         model.DatasetQueryRunner
	Memory           model.MemoryStore // nil disables long-term memory
	Estimator        model.TokenEstimator

	allowedSteps []string
}

// Init validates the collaborators and freezes the allowed validator steps.
func (d *Deps) Init() error {
	if d.Models == nil || d.Models.Reasoning == nil || d.Models.Structured == nil {
		return fmt.Errorf("chat models are not properly initialized")
	}
	if d.Models.Answer == nil {
		d.Models.Answer = d.Models.Reasoning
	}
	if d.Tool == nil {
		return fmt.Errorf("document tool is nil")
	}
	if d.Datasets == nil && len(d.Agent.DataSources) > 0 {
		return fmt.Errorf("dataset runner is nil but %d data sources are registered", len(d.Agent.DataSources))
	}
	if d.Estimator == nil {
		return fmt.Errorf("token estimator is nil")
	}
	if err := d.Agent.Validate(); err != nil {
		return fmt.Errorf("agent configuration: %w", err)
	}
	d.Limits = d.Limits.Normalize()
	d.allowedSteps = d.Agent.AllowedSteps()
	return nil
}

// AllowedSteps is the validator output set the route table was built from.
func (d *Deps) AllowedSteps() []string {
	return d.allowedSteps
}

func (d *Deps) longMemoryEnabled() bool {
	return d.Agent.Memory.LongTerm && d.Memory != nil
}

func (d *Deps) logger(s *model.TurnState, node string) zerolog.Logger {
	l := logx.WithTurn(s.ConversationID, s.TurnID)
	return l.With().Str("node", node).Logger()
}

func (d *Deps) policy(node string, p retry.Policy) retry.Policy {
	p.OnRetry = func(attempt int, err error) {
		metrics.NodeRetries.WithLabelValues(node).Inc()
		logx.Warn().Err(err).Str("node", node).Int("attempt", attempt).Msg("retrying external call")
	}
	return p
}

// generate performs a free-form (optionally tool-calling) model call under the
// default retry policy and charges its usage to the turn.
func (d *Deps) generate(ctx context.Context, s *model.TurnState, node string, cm einomodel.BaseChatModel, modelName string, msgs []*schema.Message) (*schema.Message, error) {
	ctx = asComponent(ctx, node, components.ComponentOfChatModel)
	out, err := retry.Do(ctx, d.policy(node, retry.Default(d.Limits.RetryBase)), func(ctx context.Context) (*schema.Message, error) {
		m, err := cm.Generate(ctx, msgs)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("%s: empty model response", node)
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	usage := model.UsageOf(out)
	if usage == nil || usage.TotalTokens == 0 {
		usage = d.estimateUsage(promptText(msgs), out.Content)
	}
	d.charge(s, node, modelName, usage)
	return out, nil
}

// structured performs a schema-constrained model call. validate, when set, runs
// on the decoded value and a failure counts as a failed attempt.
func structured[T any](ctx context.Context, d *Deps, s *model.TurnState, node string, p retry.Policy, format responseFormat, msgs []*schema.Message, validate func(T) error) (T, error) {
	prompt := promptText(msgs)
	opts := format.options()
	ctx = asComponent(ctx, node, components.ComponentOfChatModel)
	return retry.Do(ctx, d.policy(node, p), func(ctx context.Context) (T, error) {
		var zero T
		m, err := d.Models.Structured.Generate(ctx, msgs, opts...)
		if err != nil {
			return zero, err
		}
		if m == nil {
			return zero, fmt.Errorf("%s: empty model response", node)
		}
		// every completed call is paid for, parseable or not
		d.charge(s, node, d.Models.StructuredModelName, d.estimateUsage(prompt, m.Content))

		v, err := parsers.ParseStructured[T](m.Content)
		if err != nil {
			return zero, err
		}
		if validate != nil {
			if err := validate(v); err != nil {
				return zero, err
			}
		}
		return v, nil
	})
}

func (d *Deps) estimateUsage(prompt, response string) *schema.TokenUsage {
	in := d.Estimator.Estimate(prompt, "")
	out := d.Estimator.Estimate("", response)
	return &schema.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}
}

// charge adds a call's tokens and USD cost to the turn totals.
func (d *Deps) charge(s *model.TurnState, node, modelName string, usage *schema.TokenUsage) {
	if usage == nil {
		return
	}
	_, _, cost := model.ComputeCost(usage, model.ResolvePricing(modelName))
	s.AddTokens(usage.TotalTokens)
	s.TotalCostUSD += cost

	l := d.logger(s, node)
	l.Debug().
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", s.TotalTokens).
		Float64("total_cost_usd", s.TotalCostUSD).
		Msg("LLM usage")
}

// persistMemory stores the (user, assistant) pair when long-term memory is on.
// Failures are logged and never affect the turn.
func (d *Deps) persistMemory(ctx context.Context, s *model.TurnState, node string) {
	if !d.longMemoryEnabled() || strings.TrimSpace(s.Response) == "" {
		return
	}
	pair := []*schema.Message{
		schema.UserMessage(s.UserMessage),
		schema.AssistantMessage(s.Response, nil),
	}
	if err := d.Memory.AddContext(ctx, pair, d.Agent.Memory.Namespace); err != nil {
		l := d.logger(s, node)
		l.Warn().Err(err).Msg("failed to persist long-term memory")
	}
}
