package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/listcache"
)

func TestLoggerWritesLevelsAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Info("invalidated resource", listcache.Fields{"resource": "contacts", "removed": 2})
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "invalidated resource", entry.Message)
	assert.Equal(t, "listcache", entry.Data["component"])
	assert.Equal(t, 2, entry.Data["removed"])

	boom := errors.New("boom")
	l.Error("fetch failed", listcache.Fields{"err": boom})
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, boom, entry.Data[logrus.ErrorKey])

	l.Debug("cache miss", nil)
	assert.Len(t, hook.AllEntries(), 3)
}
