package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"production":    Production,
		" PROD ":        Production,
		"staging":       Staging,
		"test":          Testing,
		"":              Development,
		"something-odd": Development,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseEnvironment(in), in)
	}
}

func TestDefaultLogLevel(t *testing.T) {
	assert.Equal(t, "info", Production.DefaultLogLevel())
	assert.Equal(t, "warn", Testing.DefaultLogLevel())
	assert.Equal(t, "debug", Development.DefaultLogLevel())
}
