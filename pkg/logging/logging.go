// Package logging builds the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance
var Logger = zap.NewNop()

// Setup builds the global logger. Verbose selects the development config at
// debug level; otherwise the production config logs at info level. The
// logger is also installed as zap's global logger.
func Setup(verbose bool, appName, appVersion string) error {
	var err error
	var cfg zap.Config

	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		cfg.Sampling = nil
	}

	// Add default fields
	cfg.InitialFields = map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
	}

	Logger, err = cfg.Build()
	if err != nil {
		Logger = zap.NewExample()
		return err
	}

	zap.ReplaceGlobals(Logger)
	return nil
}

// Named returns a child of the global logger for one component.
func Named(component string) *zap.Logger {
	return Logger.Named(component)
}
