package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
)

var (
	//go:embed template/trust_prompt.txt
	trustPrompt string
	//go:embed template/reasoning_prompt.txt
	reasoningPrompt string
	//go:embed template/validator_prompt.txt
	validatorPrompt string
	//go:embed template/planner_prompt.txt
	plannerPrompt string
	//go:embed template/generator_prompt.txt
	generatorPrompt string
	//go:embed template/synthesizer_prompt.txt
	synthesizerPrompt string
)

// render formats a Go-template system prompt through the Eino prompt
// component so prompt callbacks fire.
func render(ctx context.Context, name, tpl string, vars map[string]any) (string, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      "GoTemplate",
		Component: components.ComponentOfPrompt,
	})
	t := prompt.FromMessages(schema.GoTemplate, schema.SystemMessage(tpl))
	msgs, err := t.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return strings.TrimSpace(msgs[0].Content), nil
}

// RenderTrust renders the trust classification prompt over the full history.
func RenderTrust(ctx context.Context, history []*schema.Message) (string, error) {
	return render(ctx, "trust", trustPrompt, map[string]any{
		"History": FormatTranscript(history),
	})
}

// ReasoningVars feeds the reasoning agent's system prompt.
type ReasoningVars struct {
	Agent      model.AgentConfiguration
	LongMemory string
	ToolName   string
}

// RenderReasoningSystem renders the main agent's system prompt.
func RenderReasoningSystem(ctx context.Context, v ReasoningVars) (string, error) {
	tone := v.Agent.Tone
	if tone == "" {
		tone = "friendly and professional"
	}
	return render(ctx, "reasoning", reasoningPrompt, map[string]any{
		"BasePrompt":  v.Agent.BasePrompt,
		"CompanyName": companyName(v.Agent),
		"Industry":    v.Agent.Company.Industry,
		"Contact":     v.Agent.Company.Contact,
		"Tone":        tone,
		"ToolName":    v.ToolName,
		"LongMemory":  strings.TrimSpace(v.LongMemory),
	})
}

// RenderValidator renders the response validator prompt. The allowed steps are
// passed in so the prompt and the route table come from the same set.
func RenderValidator(ctx context.Context, cfg model.AgentConfiguration, userMessage, toolOutput string, allowed []string) (string, error) {
	quoted := make([]string, len(allowed))
	for i, s := range allowed {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return render(ctx, "validator", validatorPrompt, map[string]any{
		"UserMessage":  userMessage,
		"ToolOutput":   toolOutput,
		"Catalog":      cfg.DatasetCatalog,
		"DataSources":  cfg.DataSources,
		"AllowedSteps": strings.Join(quoted, ", "),
	})
}

// RenderPlanner renders the query planner prompt for one data source.
func RenderPlanner(ctx context.Context, ds model.DataSource, userMessage, reason string) (string, error) {
	return render(ctx, "planner", plannerPrompt, map[string]any{
		"DataSource":      ds.Name,
		"DataDescription": ds.Description,
		"UserMessage":     userMessage,
		"Reason":          reason,
	})
}

// GeneratorVars feeds the query generator prompt.
type GeneratorVars struct {
	DataSource      model.DataSource
	Problem         string
	Hint            string
	PreviousResults string
	Round           int
	MaxRounds       int
}

// RenderGenerator renders the query generator prompt for one round.
func RenderGenerator(ctx context.Context, v GeneratorVars) (string, error) {
	return render(ctx, "generator", generatorPrompt, map[string]any{
		"DataSource":      v.DataSource.Name,
		"DataDescription": v.DataSource.Description,
		"Problem":         v.Problem,
		"Hint":            v.Hint,
		"PreviousResults": v.PreviousResults,
		"Round":           v.Round,
		"MaxRounds":       v.MaxRounds,
	})
}

// RenderSynthesizer renders the answer synthesizer prompt.
func RenderSynthesizer(ctx context.Context, cfg model.AgentConfiguration, problem, results string) (string, error) {
	tone := cfg.Tone
	if tone == "" {
		tone = "friendly and professional"
	}
	return render(ctx, "synthesizer", synthesizerPrompt, map[string]any{
		"CompanyName": companyName(cfg),
		"Tone":        tone,
		"Problem":     problem,
		"Results":     results,
	})
}

// FormatTranscript renders user/assistant turns as a plain transcript.
func FormatTranscript(messages []*schema.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func companyName(cfg model.AgentConfiguration) string {
	if cfg.Company.Name == "" {
		return "the company"
	}
	return cfg.Company.Name
}
