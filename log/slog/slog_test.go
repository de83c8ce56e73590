package slog

import (
	"bytes"
	"encoding/json"
	"errors"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/listcache"
)

func TestLoggerWritesGroupedAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug})
	l := New(stdslog.New(h))

	l.Warn("store write failed", listcache.Fields{"key": "contacts-{}", "err": errors.New("redis down")})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "store write failed", line["msg"])
	group, ok := line["listcache"].(map[string]any)
	require.True(t, ok, "attrs grouped under listcache: %v", line)
	assert.Equal(t, "contacts-{}", group["key"])
	assert.Equal(t, "redis down", group["err"])
}

func TestLoggerSkipsDisabledLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelError})))

	l.Debug("no", listcache.Fields{"a": 1})
	l.Info("no", nil)
	assert.Zero(t, buf.Len())

	l.Error("yes", nil)
	assert.Contains(t, buf.String(), "msg=yes")
}
