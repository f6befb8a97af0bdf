package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
)

// Routing conditions only read the turn state; every side effect lives in the nodes.

// NewTrustCondition ends the turn when the trust gate finished it.
func NewTrustCondition() func(context.Context, *model.TurnState) (string, error) {
	return func(_ context.Context, s *model.TurnState) (string, error) {
		if s.Done() {
			return compose.END, nil
		}
		return NodeMainAgent, nil
	}
}

// NewMainAgentCondition routes a pending tool call to the tool node.
func NewMainAgentCondition() func(context.Context, *model.TurnState) (string, error) {
	return func(_ context.Context, s *model.TurnState) (string, error) {
		if s.Done() || s.ToolCall == nil {
			return compose.END, nil
		}
		return NodeToolCall, nil
	}
}

// RouteTable maps each validator step to its target node. It is built once
// from the same step set the validator prompt and output check use.
type RouteTable map[string]string

// NewRouteTable maps "check_<name>" to that data source's planner node and
// "end" to the graph end.
func NewRouteTable(steps []string) RouteTable {
	rt := make(RouteTable, len(steps))
	for _, step := range steps {
		if step == model.StepEnd {
			rt[step] = compose.END
			continue
		}
		rt[step] = NodePlanner(step[len(model.RoutePrefix):])
	}
	return rt
}

// Targets lists the branch end nodes for graph wiring.
func (rt RouteTable) Targets() map[string]bool {
	out := make(map[string]bool, len(rt))
	for _, node := range rt {
		out[node] = true
	}
	return out
}

// Next resolves a validator step. A step missing from the table is a
// configuration defect and is returned as ErrUnknownRoute.
func (rt RouteTable) Next(step string) (string, error) {
	node, ok := rt[step]
	if !ok {
		return "", fmt.Errorf("%w: step %q", errx.ErrUnknownRoute, step)
	}
	return node, nil
}

// NewValidatorCondition routes the validator outcome through the table.
func NewValidatorCondition(rt RouteTable) func(context.Context, *model.TurnState) (string, error) {
	return func(_ context.Context, s *model.TurnState) (string, error) {
		if s.Done() {
			return compose.END, nil
		}
		return rt.Next(s.NextStep)
	}
}

// NewPlannerCondition proceeds to query generation unless planning failed.
func NewPlannerCondition() func(context.Context, *model.TurnState) (string, error) {
	return func(_ context.Context, s *model.TurnState) (string, error) {
		if s.Done() {
			return compose.END, nil
		}
		return NodeQueryGenerate, nil
	}
}

// NewQueryLoopCondition re-enters query generation while another round is
// requested and the round budget allows it, then synthesizes.
func NewQueryLoopCondition(maxRounds int) func(context.Context, *model.TurnState) (string, error) {
	if maxRounds <= 0 {
		maxRounds = model.DefaultMaxQueryRounds
	}
	return func(_ context.Context, s *model.TurnState) (string, error) {
		switch {
		case s.Done():
			return compose.END, nil
		case s.QueryAgain && s.Rounds < maxRounds:
			return NodeQueryRefine, nil
		default:
			return NodeAnswerSynthesize, nil
		}
	}
}
