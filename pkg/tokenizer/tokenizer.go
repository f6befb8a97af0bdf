// Package tokenizer estimates token usage for calls whose provider does not
// report usage metadata.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Estimator counts tokens with the cl100k encoding. A zero Estimator falls back
// to the 4-characters-per-token heuristic.
type Estimator struct {
	codec tokenizer.Codec
}

var (
	shared     *Estimator
	sharedOnce sync.Once
)

// New creates an Estimator backed by the GPT-4 codec.
func New() (*Estimator, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("create tokenizer codec: %w", err)
	}
	return &Estimator{codec: codec}, nil
}

// Shared returns a process-wide Estimator, degrading to the heuristic when the
// codec cannot be loaded.
func Shared() *Estimator {
	sharedOnce.Do(func() {
		e, err := New()
		if err != nil {
			e = &Estimator{}
		}
		shared = e
	})
	return shared
}

// Count returns the number of tokens in text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	if e == nil || e.codec == nil {
		return approx(text)
	}
	n, err := e.codec.Count(text)
	if err != nil {
		return approx(text)
	}
	return n
}

// Estimate returns the combined token cost of a prompt and its response.
func (e *Estimator) Estimate(prompt, response string) int {
	return e.Count(prompt) + e.Count(response)
}

func approx(text string) int {
	n := len(text) / 4
	if n == 0 {
		return 1
	}
	return n
}
