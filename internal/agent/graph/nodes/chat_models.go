package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey           string
	BaseURL          string
	ReasoningConfig  *model.ReasoningModelConfig
	StructuredConfig *model.StructuredModelConfig
}

// ChatModels holds the models the turn graph calls.
//   - Reasoning: tool-calling model used by the main agent (tools bound via BindTools).
//   - Answer: the same reasoning model without tools, used by the synthesizer.
//   - Structured: low-temperature model for JSON outputs (trust, validator, planner, generator).
type ChatModels struct {
	Reasoning           einomodel.ToolCallingChatModel
	Answer              einomodel.BaseChatModel
	Structured          einomodel.BaseChatModel
	ReasoningModelName  string
	StructuredModelName string
}

// NewChatModels creates the Gemini-backed reasoning and structured chat models.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.ReasoningConfig == nil || config.StructuredConfig == nil {
		return nil, fmt.Errorf("chat model configs are nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	// Create Reasoning Chat Model
	reasoning, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ReasoningConfig.Model,
		Temperature: &config.ReasoningConfig.Temperature,
		MaxTokens:   &config.ReasoningConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1024)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating reasoning model")
		return nil, fmt.Errorf("error creating reasoning model: %w", err)
	}

	// Create Structured Chat Model
	structured, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.StructuredConfig.Model,
		Temperature: &config.StructuredConfig.Temperature,
		MaxTokens:   &config.StructuredConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating structured model")
		return nil, fmt.Errorf("error creating structured model: %w", err)
	}

	return &ChatModels{
		Reasoning:           reasoning,
		Answer:              reasoning,
		Structured:          structured,
		ReasoningModelName:  config.ReasoningConfig.Model,
		StructuredModelName: config.StructuredConfig.Model,
	}, nil
}

// BindTools binds tools to the reasoning model. The unbound model stays in
// Answer so the synthesizer never sees the tool.
func (cm *ChatModels) BindTools(ctx context.Context, tools []*schema.ToolInfo) error {
	if cm.Answer == nil {
		cm.Answer = cm.Reasoning
	}
	bound, err := cm.Reasoning.WithTools(tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}
	cm.Reasoning = bound

	logx.Debug().Int("tools", len(tools)).Msg("Successfully bound tools to reasoning model")
	return nil
}
