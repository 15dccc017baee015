package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsMergesAndOverrides(t *testing.T) {
	base := NewNopLogger().WithFields(Fields{"component": "x", "kept": 1})
	child := base.WithFields(Fields{"component": "y"})

	zl, ok := child.(*zapLogger)
	require.True(t, ok)
	assert.Equal(t, "y", zl.fields["component"])
	assert.Equal(t, 1, zl.fields["kept"])

	// The parent is untouched.
	parent := base.(*zapLogger)
	assert.Equal(t, "x", parent.fields["component"])
}

func TestZapFieldsAreSorted(t *testing.T) {
	l := NewNopLogger().WithFields(Fields{"b": 2, "a": 1}).(*zapLogger)

	fields := l.zapFields([]Fields{{"c": 3}})
	require.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "c", fields[2].Key)
}

func TestNewLoggerLevels(t *testing.T) {
	// Construction must not panic for any supported or unknown level.
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		l := NewLogger(level)
		require.NotNil(t, l)
		l.Debug("ignored", Fields{"level": level})
	}
}
