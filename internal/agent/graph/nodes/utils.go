package nodes

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
)

const (
	NodeTrustCheck       = "trust_check"
	NodeMainAgent        = "main_agent"
	NodeToolCall         = "tool_call"
	NodeValidator        = "response_validator"
	NodeQueryGenerate    = "query_generate"
	NodeQueryRefine      = "query_refine"
	NodeAnswerSynthesize = "answer_synthesize"
)

const (
	// LowTrustMessage is used when the trust classifier gives no message of its own.
	LowTrustMessage = "Maaf, kami tidak dapat melanjutkan percakapan ini. Silakan hubungi layanan pelanggan kami secara langsung."
	// NoDataFoundMessage replaces an empty result set in the accumulated results.
	NoDataFoundMessage = "Tidak ada data yang ditemukan."
)

// destructive-statement heuristics; any match rejects the message before a model call
var denylist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdrop\s+(table|database|schema|index|view)\b`),
	regexp.MustCompile(`(?i)\btruncate\s+table\b`),
	regexp.MustCompile(`(?i)\bdelete\s+from\b`),
	regexp.MustCompile(`(?i)\balter\s+table\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\b`),
	regexp.MustCompile(`(?i)\bupdate\s+\w+\s+set\b`),
	regexp.MustCompile(`(?i)\b(grant|revoke)\s+\w+\s+on\b`),
	regexp.MustCompile(`(?i);\s*--`),
	regexp.MustCompile(`(?i)\brm\s+-rf\b`),
	regexp.MustCompile(`(?i)<\s*script\b`),
	regexp.MustCompile(`(?i)\b(exec|execute)\s*\(`),
}

// ValidateUserMessage reports whether a message may reach the language model:
// non-empty, at most maxLen runes and free of destructive-statement patterns.
func ValidateUserMessage(msg string, maxLen int) (string, bool) {
	if strings.TrimSpace(msg) == "" {
		return "empty message", false
	}
	if maxLen <= 0 {
		maxLen = model.DefaultMaxMessageLength
	}
	if utf8.RuneCountInString(msg) > maxLen {
		return "message too long", false
	}
	for _, re := range denylist {
		if re.MatchString(msg) {
			return "destructive pattern", false
		}
	}
	return "", true
}

// clampTrust bounds a classifier score to 0..100.
func clampTrust(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// promptText flattens messages for token estimation.
func promptText(msgs []*schema.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m == nil {
			continue
		}
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
