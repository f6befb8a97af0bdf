package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
)

// ToolRetrieveDocument is the only tool offered to the reasoning agent.
const ToolRetrieveDocument = "retrieve_document"

// RetrievalFailedMessage is returned to the model when the retriever errors.
const RetrievalFailedMessage = "Dokumen tidak dapat diambil saat ini."

type RetrieveDocumentInput struct {
	Query string `json:"query"`
}

// RetrieveDocumentTool exposes a DocumentRetriever as an Eino invokable tool.
// The output is plain text, not JSON.
type RetrieveDocumentTool struct {
	retriever model.DocumentRetriever
}

func NewRetrieveDocumentTool(r model.DocumentRetriever) *RetrieveDocumentTool {
	return &RetrieveDocumentTool{retriever: r}
}

func (t *RetrieveDocumentTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolRetrieveDocument,
		Desc: "Retrieve the FAQ entry or company document that best matches a query. Use it for any question about the company, its policies, products, services or orders.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Search query in the customer's language, e.g. 'visi perusahaan', 'cara retur barang'.",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun fails only on unusable arguments: retriever errors become a
// user-safe string.
func (t *RetrieveDocumentTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: argumentsInJSON})

	in, err := ParseRetrieveArguments(argumentsInJSON)
	if err != nil {
		callbacks.OnError(ctx, err)
		return "", err
	}
	out, err := t.retriever.RetrieveDocument(ctx, in.Query)
	if err != nil {
		logx.Warn().Err(err).Str("tool_name", ToolRetrieveDocument).Msg("document retrieval failed")
		out = RetrievalFailedMessage
	}

	callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: out})
	return out, nil
}

// IsCallbacksEnabled tells Eino the tool reports its own lifecycle callbacks.
func (t *RetrieveDocumentTool) IsCallbacksEnabled() bool {
	return true
}

// ParseRetrieveArguments sanitises the model-supplied arguments: the query is
// trimmed and non-string values are coerced.
func ParseRetrieveArguments(arguments string) (RetrieveDocumentInput, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		// keep original text as the query if not JSON
		q := strings.TrimSpace(arguments)
		if q == "" {
			return RetrieveDocumentInput{}, fmt.Errorf("empty tool arguments")
		}
		return RetrieveDocumentInput{Query: q}, nil
	}
	var q string
	switch v := m["query"].(type) {
	case nil:
	case string:
		q = strings.TrimSpace(v)
	default:
		q = strings.TrimSpace(fmt.Sprint(v))
	}
	if q == "" {
		return RetrieveDocumentInput{}, fmt.Errorf("query is required")
	}
	return RetrieveDocumentInput{Query: q}, nil
}

var _ tool.InvokableTool = (*RetrieveDocumentTool)(nil)
