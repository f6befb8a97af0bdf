package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
	// ShortMemoryTurns bounds the history window handed to the reasoning model.
	ShortMemoryTurns int `envconfig:"CONVERSATION_SHORT_MEMORY_TURNS" default:"10"`
}

type ReasoningModelConfig struct {
	Model       string  `envconfig:"REASONING_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"REASONING_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"REASONING_TEMPERATURE" default:"0.4"`
}

type StructuredModelConfig struct {
	Model       string  `envconfig:"STRUCTURED_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"STRUCTURED_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"STRUCTURED_TEMPERATURE" default:"0.1"`
}

// EngineConfig holds the orchestration limits. Zero values are replaced by
// the defaults in Normalize.
type EngineConfig struct {
	MaxMessageLength      int           `envconfig:"ENGINE_MAX_MESSAGE_LENGTH" default:"2000"`
	TrustHistoryThreshold int           `envconfig:"ENGINE_TRUST_HISTORY_THRESHOLD" default:"8"`
	TrustCutoff           int           `envconfig:"ENGINE_TRUST_CUTOFF" default:"50"`
	MaxQueryRounds        int           `envconfig:"ENGINE_MAX_QUERY_ROUNDS" default:"5"`
	RetryBase             time.Duration `envconfig:"ENGINE_RETRY_BASE" default:"500ms"`
}

const (
	DefaultMaxMessageLength      = 2000
	DefaultTrustHistoryThreshold = 8
	DefaultTrustCutoff           = 50
	DefaultMaxQueryRounds        = 5
	DefaultTrustLevel            = 100
)

// Normalize fills unset limits with their defaults. RetryBase is left as is so
// tests can run without backoff delays.
func (c EngineConfig) Normalize() EngineConfig {
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = DefaultMaxMessageLength
	}
	if c.TrustHistoryThreshold <= 0 {
		c.TrustHistoryThreshold = DefaultTrustHistoryThreshold
	}
	if c.TrustCutoff <= 0 {
		c.TrustCutoff = DefaultTrustCutoff
	}
	if c.MaxQueryRounds <= 0 {
		c.MaxQueryRounds = DefaultMaxQueryRounds
	}
	if c.RetryBase < 0 {
		c.RetryBase = 0
	}
	return c
}
