package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_InfoWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	traceID := func(context.Context) string { return "trace-123" }

	log := logger.New(&buf, logger.LevelInfo, "TEST", traceID)
	log.Info(context.Background(), "startup", "status", "ok", "count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "startup", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "TEST", entry["service"])
	assert.Equal(t, "ok", entry["status"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, "trace-123", entry["trace_id"])
}

func Test_MinLevelFilters(t *testing.T) {
	var buf bytes.Buffer

	log := logger.New(&buf, logger.LevelWarn, "TEST", nil)
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")

	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func Test_ErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	var got logger.Record

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			got = r
		},
	}

	log := logger.NewWithEvents(&buf, logger.LevelInfo, "TEST", nil, events)
	log.Info(context.Background(), "not an error")
	assert.Empty(t, got.Message)

	log.Error(context.Background(), "boom", "err", "db down")
	assert.Equal(t, "boom", got.Message)
	assert.Equal(t, logger.LevelError, got.Level)
	assert.Equal(t, "db down", got.Attributes["err"])
}
