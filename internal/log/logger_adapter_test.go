package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitByConfigDefaultsToPatternFormatter(t *testing.T) {
	err := initByConfig(&LoggerConfig{Level: "debug"})
	require.NoError(t, err)

	adapter, ok := GetLogger().(*logrusAdapter)
	require.True(t, ok)
	_, isPattern := adapter.entry.Logger.Formatter.(*formatter)
	assert.True(t, isPattern)
	assert.True(t, adapter.IsDebugEnabled())
	assert.False(t, adapter.IsTraceEnabled())
}

func TestInitByConfigInvalidLevelFallsBackToInfo(t *testing.T) {
	err := initByConfig(&LoggerConfig{Level: "not-a-level"})
	require.NoError(t, err)

	adapter := GetLogger().(*logrusAdapter)
	assert.True(t, adapter.IsInfoEnabled())
	assert.False(t, adapter.IsDebugEnabled())
}

func TestWithFieldReturnsIndependentLogger(t *testing.T) {
	require.NoError(t, initByConfig(&LoggerConfig{Level: "info"}))

	base := GetLogger()
	derived := base.WithField("resource", "alice")

	assert.NotSame(t, base, derived)
}
