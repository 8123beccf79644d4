package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithOptions_Level(t *testing.T) {
	testCases := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"default", "", zerolog.InfoLevel},
		{"debug", "debug", zerolog.DebugLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"garbage falls back to info", "loud", zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log := NewWithOptions(Options{Level: tc.level})
			assert.Equal(t, tc.want, log.GetLevel())
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	assert.Contains(t, buf.String(), "test message")
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx, Nop())
	log.Info().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}

func TestFromContext_Fallback(t *testing.T) {
	buf := &bytes.Buffer{}

	log := FromContext(context.Background(), NewWithWriter(buf))
	log.Info().Msg("fallback")

	assert.Contains(t, buf.String(), "fallback")
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"account_id": "acc-1",
		"action":     "audit",
	})

	log.Info().Msg("test message")

	output := buf.String()
	assert.Contains(t, output, `"account_id":"acc-1"`)
	assert.Contains(t, output, `"action":"audit"`)
}
