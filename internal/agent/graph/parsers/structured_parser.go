package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200       // limit error snippet size
)

// ParseStructured decodes the JSON object a structured-output call produced.
// It tolerates markdown code fences and prose around the object.
func ParseStructured[T any](content string) (out T, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "structured_parser").Msgf("panic recovered: %v", r)
			var zero T
			out = zero
			err = errx.New(fmt.Errorf("structured parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
		}
	}()

	if len(content) > maxContentLen {
		return out, fmt.Errorf("structured output too large: %d bytes", len(content))
	}

	obj, ok := extractObject(content)
	if !ok {
		return out, fmt.Errorf("no json object in output: %q", safeSnippet(content))
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return out, fmt.Errorf("decode structured output: %w", err)
	}
	return out, nil
}

// extractObject returns the outermost {...} of s after stripping code fences.
func extractObject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
