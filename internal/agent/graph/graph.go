package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/observers"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/metrics"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
)

const graphName = "customer_service_turn"

// Runner executes one turn end to end.
type Runner interface {
	Run(ctx context.Context, in model.TurnInput) (model.TurnResult, error)
}

// Config holds everything needed to build the turn orchestrator end-to-end.
// This is a convenience layer over nodes.Deps that also constructs the Gemini
// chat models and the document tool.
type Config struct {
	APIKey       string
	BaseURL      string
	Reasoning    model.ReasoningModelConfig
	Structured   model.StructuredModelConfig
	Conversation model.ConversationConfig
	Engine       model.EngineConfig
	Agent        model.AgentConfiguration

	Retriever model.DocumentRetriever
	Datasets  model.DatasetQueryRunner
	Memory    model.MemoryStore // optional
	Estimator model.TokenEstimator
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	deps   *nodes.Deps
	routes nodes.RouteTable
	graph  *compose.Graph[model.TurnInput, *model.TurnState]
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *model.TurnState]
}

// Run executes the graph. Component failures come back as a categorized
// response; only configuration defects are returned as errors.
func (r *graphRunner) Run(ctx context.Context, in model.TurnInput) (model.TurnResult, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		if errors.Is(err, errx.ErrUnknownRoute) {
			return model.TurnResult{}, err
		}
		logx.Error().Err(err).Str("conversation_id", in.ConversationID).Msg("turn graph failed")
		result := fallbackResult(in, errx.Classify(err, errx.CategoryGeneral))
		metrics.ObserveTurn(string(result.Category), 0, 0)
		return result, nil
	}
	if out == nil || !out.Done() {
		logx.Error().Str("conversation_id", in.ConversationID).Msg("turn graph ended without a response")
		result := fallbackResult(in, errx.CategoryGeneral)
		metrics.ObserveTurn(string(result.Category), 0, 0)
		return result, nil
	}

	result := out.Result()
	metrics.ObserveTurn(string(result.Category), result.TotalTokens, result.Rounds)

	l := logx.WithTurn(in.ConversationID, result.TurnID)
	l.Info().
		Int("total_tokens", result.TotalTokens).
		Float64("total_cost_usd", result.TotalCostUSD).
		Int("rounds", result.Rounds).
		Str("category", string(result.Category)).
		Msg("turn finished")
	return result, nil
}

// fallbackResult is the general-error turn used when the graph itself failed.
// TrustLevel stays zero: no assessment survives a failed graph.
func fallbackResult(in model.TurnInput, category errx.Category) model.TurnResult {
	msg := errx.UserMessage(category)
	msgs := make([]*schema.Message, 0, len(in.History)+2)
	msgs = append(msgs, in.History...)
	msgs = append(msgs, schema.UserMessage(in.Message), schema.AssistantMessage(msg, nil))
	return model.TurnResult{
		TurnID:   uuid.NewString(),
		Response: msg,
		Category: category,
		Messages: msgs,
	}
}

// BuildTurnGraph creates the Gemini chat models and the document tool, then
// compiles the turn graph.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("document retriever is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ReasoningConfig:  &cfg.Reasoning,
		StructuredConfig: &cfg.Structured,
	})
	if err != nil {
		return nil, err
	}

	runner, err := NewRunner(ctx, &nodes.Deps{
		Models:           cms,
		Agent:            cfg.Agent,
		Limits:           cfg.Engine,
		ShortMemoryTurns: cfg.Conversation.ShortMemoryTurns,
		Tool:             tools.NewRetrieveDocumentTool(cfg.Retriever),
		Datasets:         cfg.Datasets,
		Memory:           cfg.Memory,
		Estimator:        cfg.Estimator,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("agent_id", cfg.Agent.AgentID).Msg("Turn graph built successfully")
	return runner, nil
}

// NewRunner compiles the turn graph over already constructed collaborators.
func NewRunner(ctx context.Context, deps *nodes.Deps) (Runner, error) {
	runnable, err := BuildGraph(ctx, deps)
	if err != nil {
		return nil, err
	}
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled turn graph
func BuildGraph(ctx context.Context, deps *nodes.Deps) (compose.Runnable[model.TurnInput, *model.TurnState], error) {
	if deps == nil {
		return nil, fmt.Errorf("graph deps are nil")
	}
	if err := deps.Init(); err != nil {
		return nil, err
	}

	builder := &GraphBuilder{
		deps:   deps,
		routes: nodes.NewRouteTable(deps.AllowedSteps()),
		graph:  compose.NewGraph[model.TurnInput, *model.TurnState](),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools binds the document tool to the reasoning model
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	info, err := b.deps.Tool.Info(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool info")
		return fmt.Errorf("failed to get tool info: %w", err)
	}
	if err := b.deps.Models.BindTools(ctx, []*schema.ToolInfo{info}); err != nil {
		return err
	}
	return nil
}

// addNodes adds all processing nodes to the graph, one planner per data source
func (b *GraphBuilder) addNodes() error {
	lambdas := []struct {
		name   string
		lambda *compose.Lambda
	}{
		{nodes.NodeTrustCheck, nodes.NewTrustCheckNode(b.deps)},
		{nodes.NodeMainAgent, nodes.NewMainAgentNode(b.deps)},
		{nodes.NodeToolCall, nodes.NewToolCallNode(b.deps)},
		{nodes.NodeValidator, nodes.NewValidatorNode(b.deps)},
		{nodes.NodeQueryGenerate, nodes.NewQueryGenerateNode(b.deps)},
		{nodes.NodeQueryRefine, nodes.NewQueryRefineNode(b.deps)},
		{nodes.NodeAnswerSynthesize, nodes.NewAnswerSynthesizeNode(b.deps)},
	}
	for _, ds := range b.deps.Agent.DataSources {
		lambdas = append(lambdas, struct {
			name   string
			lambda *compose.Lambda
		}{nodes.NodePlanner(ds.Name), nodes.NewPlannerNode(b.deps, ds)})
	}

	for _, n := range lambdas {
		if err := b.graph.AddLambdaNode(n.name, n.lambda, compose.WithNodeName(n.name)); err != nil {
			logx.Error().Err(err).Str("node", n.name).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", n.name, err)
		}
	}
	return nil
}

// addEdges creates the unconditional connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeTrustCheck},
		{nodes.NodeToolCall, nodes.NodeValidator},
		{nodes.NodeQueryRefine, nodes.NodeQueryGenerate},
		{nodes.NodeAnswerSynthesize, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	branches := []struct {
		from      string
		condition func(context.Context, *model.TurnState) (string, error)
		targets   map[string]bool
	}{
		{
			from:      nodes.NodeTrustCheck,
			condition: nodes.NewTrustCondition(),
			targets:   map[string]bool{nodes.NodeMainAgent: true, compose.END: true},
		},
		{
			from:      nodes.NodeMainAgent,
			condition: nodes.NewMainAgentCondition(),
			targets:   map[string]bool{nodes.NodeToolCall: true, compose.END: true},
		},
		{
			from:      nodes.NodeValidator,
			condition: nodes.NewValidatorCondition(b.routes),
			targets:   b.routes.Targets(),
		},
		{
			from:      nodes.NodeQueryGenerate,
			condition: nodes.NewQueryLoopCondition(b.deps.Limits.MaxQueryRounds),
			targets: map[string]bool{
				nodes.NodeQueryRefine:      true,
				nodes.NodeAnswerSynthesize: true,
				compose.END:                true,
			},
		},
	}
	for _, ds := range b.deps.Agent.DataSources {
		branches = append(branches, struct {
			from      string
			condition func(context.Context, *model.TurnState) (string, error)
			targets   map[string]bool
		}{
			from:      nodes.NodePlanner(ds.Name),
			condition: nodes.NewPlannerCondition(),
			targets:   map[string]bool{nodes.NodeQueryGenerate: true, compose.END: true},
		})
	}

	for _, br := range branches {
		if err := b.graph.AddBranch(br.from, compose.NewGraphBranch(br.condition, br.targets)); err != nil {
			logx.Error().Err(err).Str("node", br.from).Msg("Error adding branch")
			return fmt.Errorf("error adding branch from %s: %w", br.from, err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.TurnState], error) {
	// trust, main agent, tool, validator, planner, generate/refine per round, synthesize
	maxSteps := 10 + 2*b.deps.Limits.MaxQueryRounds + 5
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx,
		compose.WithMaxRunSteps(maxSteps),
		compose.WithGraphName(graphName),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Int("max_steps", maxSteps).Strs("routes", b.deps.AllowedSteps()).Msg("Graph compiled successfully")
	return runnable, nil
}
