package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/repo"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
	"github.com/Chative-core-poc-v1/csagent/internal/core/retry"
)

// GenerateQuery asks the structured model for the next SELECT statement.
func (d *Deps) GenerateQuery(ctx context.Context, s *model.TurnState, ds model.DataSource) (model.GeneratedQuery, error) {
	system, err := prompts.RenderGenerator(ctx, prompts.GeneratorVars{
		DataSource:      ds,
		Problem:         s.Problem,
		Hint:            s.QueryHint,
		PreviousResults: s.AccumulatedResult,
		Round:           s.Rounds,
		MaxRounds:       d.Limits.MaxQueryRounds,
	})
	if err != nil {
		return model.GeneratedQuery{}, err
	}
	return structured(ctx, d, s, NodeQueryGenerate, retry.Query(d.Limits.RetryBase), generatorFormat,
		[]*schema.Message{schema.SystemMessage(system)},
		func(q model.GeneratedQuery) error {
			if strings.TrimSpace(q.Query) == "" {
				return fmt.Errorf("empty query")
			}
			return nil
		})
}

// ExecuteQuery runs one query against a data source. A missing backing store
// or a rejected statement is not retried.
func (d *Deps) ExecuteQuery(ctx context.Context, ds model.DataSource, query string) (*model.TabularResult, error) {
	return retry.Do(ctx, d.policy(NodeQueryGenerate, retry.Query(d.Limits.RetryBase)), func(ctx context.Context) (*model.TabularResult, error) {
		res, err := d.Datasets.Execute(ctx, ds.Path, query, ds.Name)
		if errors.Is(err, errx.ErrDataSourceNotFound) || errors.Is(err, repo.ErrQueryNotReadOnly) {
			return nil, retry.Permanent(err)
		}
		return res, err
	})
}

// NewQueryGenerateNode runs one generate-and-execute round and appends its
// outcome to the accumulated result.
func NewQueryGenerateNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, s *model.TurnState) (*model.TurnState, error) {
		ds, ok := d.Agent.DataSource(s.DataSource)
		if !ok {
			return nil, fmt.Errorf("%w: data source %q", errx.ErrUnknownRoute, s.DataSource)
		}

		s.Rounds++
		l := d.logger(s, NodeQueryGenerate)
		l = l.With().Int("round", s.Rounds).Str("data_source", ds.Name).Logger()

		q, err := d.GenerateQuery(ctx, s, ds)
		if err != nil {
			s.QueryAgain = false
			l.Error().Err(err).Msg("query generation failed")
			if strings.TrimSpace(s.AccumulatedResult) == "" {
				s.Fail(errx.Classify(err, errx.CategoryAIService))
			}
			return s, nil
		}

		s.LastQuery = strings.TrimSpace(q.Query)
		s.QueryAgain = q.QueryAgain
		s.NextQueryDescription = strings.TrimSpace(q.NextQueryDescription)

		res, err := d.ExecuteQuery(ctx, ds, s.LastQuery)
		switch {
		case errors.Is(err, errx.ErrDataSourceNotFound):
			l.Warn().Err(err).Msg("data source backing store not found")
			s.AppendResult(errx.UserMessage(errx.CategoryFileNotFound))
			s.QueryAgain = false
		case err != nil:
			l.Error().Err(err).Str("query", s.LastQuery).Msg("query execution failed")
			s.AppendResult(errx.UserMessage(errx.CategoryDatabase))
			s.QueryAgain = false
		case res.Empty():
			s.AppendResult(NoDataFoundMessage)
		default:
			s.AppendResult(res.String())
		}

		l.Debug().Bool("query_again", s.QueryAgain).Msg("query round finished")
		return s, nil
	})
}

// NewQueryRefineNode swaps the plan for the generator's refinement hint
// before the next round.
func NewQueryRefineNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, s *model.TurnState) (*model.TurnState, error) {
		if s.NextQueryDescription != "" {
			s.QueryHint = s.NextQueryDescription
		}
		l := d.logger(s, NodeQueryRefine)
		l.Debug().Str("hint", s.QueryHint).Msg("refining query")
		return s, nil
	})
}
