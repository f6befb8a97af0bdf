package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
	"github.com/Chative-core-poc-v1/csagent/internal/core/retry"
)

// Plan produces the problem statement and lookup plan for one data source.
func (d *Deps) Plan(ctx context.Context, s *model.TurnState, ds model.DataSource) (model.QueryPlan, error) {
	system, err := prompts.RenderPlanner(ctx, ds, s.UserMessage, s.Reasoning)
	if err != nil {
		return model.QueryPlan{}, err
	}
	return structured(ctx, d, s, NodePlanner(ds.Name), retry.Default(d.Limits.RetryBase), plannerFormat,
		[]*schema.Message{schema.SystemMessage(system)},
		func(p model.QueryPlan) error {
			if strings.TrimSpace(p.ProblemSolving) == "" {
				return fmt.Errorf("empty problem_solving")
			}
			return nil
		})
}

// NodePlanner names the planner node of a data source. It equals the
// validator step that routes to it.
func NodePlanner(dataSource string) string {
	return model.RouteFor(dataSource)
}

// NewPlannerNode creates the query planner bound to one data source.
func NewPlannerNode(d *Deps, ds model.DataSource) *compose.Lambda {
	node := NodePlanner(ds.Name)
	return compose.InvokableLambda(func(ctx context.Context, s *model.TurnState) (*model.TurnState, error) {
		l := d.logger(s, node)
		s.DataSource = ds.Name

		plan, err := d.Plan(ctx, s, ds)
		if err != nil {
			l.Error().Err(err).Msg("query planning failed")
			s.Fail(errx.Classify(err, errx.CategoryAIService))
			return s, nil
		}

		s.Problem = strings.TrimSpace(plan.Problem)
		if s.Problem == "" {
			s.Problem = s.UserMessage
		}
		s.ProblemSolving = strings.TrimSpace(plan.ProblemSolving)
		s.QueryHint = s.ProblemSolving
		l.Debug().Str("problem", s.Problem).Msg("query plan ready")
		return s, nil
	})
}
