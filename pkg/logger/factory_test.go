package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/watchkit/pkg/logger"
)

type ctxKey struct{}

func TestNew_Defaults(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))

	log.Info("hello", slog.String("k", "v"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), "default format is JSON")
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])

	buf.Reset()
	log.Debug("hidden")
	assert.Zero(t, buf.Len(), "default level is info")
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatText),
		logger.WithLevel(slog.LevelDebug),
	)

	log.Debug("verbose")
	assert.Contains(t, buf.String(), "msg=verbose")
}

func TestNew_InvalidFormatPanics(t *testing.T) {
	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}

func TestNew_StaticAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(logger.Component("watch")),
	)

	log.Info("event posted")
	assert.Contains(t, buf.String(), `"component":"watch"`)
}

func TestNew_ContextValue(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextValue("consumer", ctxKey{}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "user-1")
	log.InfoContext(ctx, "queue created")
	assert.Contains(t, buf.String(), `"consumer":"user-1"`)

	buf.Reset()
	log.InfoContext(context.Background(), "queue created")
	assert.NotContains(t, buf.String(), "consumer")
}

func TestNew_EnvironmentPresets(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithProduction("notify-daemon"),
	)

	log.Info("up")
	out := buf.String()
	assert.Contains(t, out, `"service":"notify-daemon"`)
	assert.Contains(t, out, `"env":"production"`)

	buf.Reset()
	dev := logger.New(
		logger.WithOutput(&buf),
		logger.WithDevelopment("notify-daemon"),
	)
	dev.Debug("verbose")
	assert.True(t, strings.Contains(buf.String(), "env=development"))
}
