package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/listcache"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.DebugLevel))

	l.Error("fetch failed", listcache.Fields{"resource": "budgets", "attempts": 3, "err": errors.New("502")})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "fetch failed", line["message"])
	assert.Equal(t, "listcache", line["component"])
	assert.Equal(t, "budgets", line["resource"])
	assert.EqualValues(t, 3, line["attempts"])
	assert.Equal(t, "502", line["err"])
}

func TestLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.WarnLevel))

	l.Debug("cache hit", nil)
	l.Info("cache miss", nil)
	assert.Zero(t, buf.Len())

	l.Warn("retrying", nil)
	assert.NotZero(t, buf.Len())
}
