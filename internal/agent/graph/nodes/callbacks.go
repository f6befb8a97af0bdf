package nodes

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
)

const componentType = "CSAgent"

// asComponent re-attaches the graph's callback handlers for a component called
// from inside a lambda node, so model, prompt and tool observers see it.
func asComponent(ctx context.Context, name string, c components.Component) context.Context {
	return callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      componentType,
		Component: c,
	})
}
