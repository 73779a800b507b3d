package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() {
		Logger = zap.NewNop()
		zap.ReplaceGlobals(Logger)
	})

	tests := []struct {
		name    string
		verbose bool
		debug   bool
	}{
		{"production", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Setup(tt.verbose, "omnichunk", "test"))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.debug, Logger.Core().Enabled(zapcore.DebugLevel))
			assert.True(t, Logger.Core().Enabled(zapcore.InfoLevel))
			assert.Same(t, Logger, zap.L())
		})
	}
}

func TestNamed(t *testing.T) {
	assert.NotNil(t, Named("scanner"))
}
