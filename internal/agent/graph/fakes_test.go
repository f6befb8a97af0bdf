package graph

import (
	"context"
	"errors"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
)

const (
	kindTrust       = "trust"
	kindReasoning   = "reasoning"
	kindValidator   = "validator"
	kindPlanner     = "planner"
	kindGenerator   = "generator"
	kindSynthesizer = "synthesizer"
)

// promptKind tells which node issued a call from its system prompt.
func promptKind(msgs []*schema.Message) string {
	if len(msgs) == 0 || msgs[0] == nil {
		return kindReasoning
	}
	sys := msgs[0].Content
	switch {
	case strings.Contains(sys, "rate how trustworthy"):
		return kindTrust
	case strings.Contains(sys, "decide whether a retrieved document"):
		return kindValidator
	case strings.Contains(sys, "You plan how"):
		return kindPlanner
	case strings.Contains(sys, "You write one SQLite SELECT"):
		return kindGenerator
	case strings.Contains(sys, "using only the data below"):
		return kindSynthesizer
	default:
		return kindReasoning
	}
}

type respondFunc func(kind string, call int, msgs []*schema.Message) (*schema.Message, error)

// scriptedModel is a tool-calling chat model whose replies are chosen per
// calling node.
type scriptedModel struct {
	mu      sync.Mutex
	calls   map[string]int
	opts    map[string]int
	prompts map[string][]string
	respond respondFunc
}

func newScriptedModel(respond respondFunc) *scriptedModel {
	return &scriptedModel{calls: map[string]int{}, opts: map[string]int{}, prompts: map[string][]string{}, respond: respond}
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	kind := promptKind(input)
	m.mu.Lock()
	m.calls[kind]++
	m.opts[kind] = len(opts)
	n := m.calls[kind]
	if len(input) > 0 {
		m.prompts[kind] = append(m.prompts[kind], input[0].Content)
	}
	m.mu.Unlock()
	return m.respond(kind, n, input)
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (m *scriptedModel) WithTools([]*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return m, nil
}

func (m *scriptedModel) Calls(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind]
}

func (m *scriptedModel) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Options is the number of call options the last call of a kind carried.
func (m *scriptedModel) Options(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts[kind]
}

func (m *scriptedModel) LastPrompt(kind string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.prompts[kind]
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

var _ einomodel.ToolCallingChatModel = (*scriptedModel)(nil)

func toolCallMessage(query string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:   "call_1",
		Type: "function",
		Function: schema.FunctionCall{
			Name:      "retrieve_document",
			Arguments: `{"query": "` + query + `"}`,
		},
	}})
}

func withUsage(msg *schema.Message, total int) *schema.Message {
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{
		PromptTokens:     total / 2,
		CompletionTokens: total - total/2,
		TotalTokens:      total,
	}}
	return msg
}

// fixedEstimator charges every non-empty side of a structured call the same amount.
type fixedEstimator int

func (e fixedEstimator) Estimate(prompt, response string) int {
	n := 0
	if prompt != "" {
		n += int(e)
	}
	if response != "" {
		n += int(e)
	}
	return n
}

// stubRetriever answers every query with one document.
type stubRetriever struct{ doc string }

func (r stubRetriever) RetrieveDocument(context.Context, string) (string, error) {
	return r.doc, nil
}

// stubDatasets records executions and answers from a script.
type stubDatasets struct {
	mu      sync.Mutex
	queries []string
	names   []string
	result  func(call int) (*model.TabularResult, error)
}

func (s *stubDatasets) Execute(_ context.Context, _, query, name string) (*model.TabularResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.names = append(s.names, name)
	n := len(s.queries)
	s.mu.Unlock()
	if s.result == nil {
		return &model.TabularResult{Columns: []string{"n"}, Rows: [][]string{{"1"}}}, nil
	}
	return s.result(n)
}

func (s *stubDatasets) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func (s *stubDatasets) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func notFound(int) (*model.TabularResult, error) {
	return nil, errx.ErrDataSourceNotFound
}

// recordingMemory is an in-process long-term memory store.
type recordingMemory struct {
	mu      sync.Mutex
	added   [][]*schema.Message
	context string
}

func (m *recordingMemory) GetContext(context.Context, string, string) (string, error) {
	return m.context, nil
}

func (m *recordingMemory) AddContext(_ context.Context, msgs []*schema.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, msgs)
	return nil
}
