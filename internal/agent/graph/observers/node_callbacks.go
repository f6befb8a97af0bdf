package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
)

type nodeStartKey struct{ name string }

// newNodeHandler times every lambda node of the turn graph.
func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			return context.WithValue(ctx, nodeStartKey{runName(info)}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			ev := logx.Debug().Str("node", runName(info))
			if start, ok := ctx.Value(nodeStartKey{runName(info)}).(time.Time); ok {
				ev = ev.Dur("elapsed", time.Since(start))
			}
			ev.Msg("node done")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", runName(info)).Msg("node failed")
			return ctx
		}).
		Build()
}

func runName(info *einocb.RunInfo) string {
	if info == nil {
		return ""
	}
	return info.Name
}
