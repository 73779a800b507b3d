package cmd

import (
	"fmt"
	"time"

	"omnichunk/pkg/combine"
	"omnichunk/pkg/config"
	"omnichunk/pkg/logging"
	"omnichunk/pkg/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// runCombine resolves the configuration and performs one chunking run.
func runCombine(cmd *cobra.Command, args []string, v *viper.Viper) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if len(args) == 1 {
		v.Set(config.KeyRoot, args[0])
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	// rebuild the logger now that the config file has been read
	if err := logging.Setup(cfg.Verbose, version.AppName, version.Get().Version); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	opts, err := combine.OptionsFromConfig(cfg, time.Now())
	if err != nil {
		return err
	}

	logger := logging.Named("run")
	logger.Debug("Resolved configuration",
		zap.String("root", cfg.Root),
		zap.String("outputDir", cfg.OutputDir),
		zap.String("mode", cfg.Mode),
		zap.Int("maxTokens", cfg.MaxTokens),
		zap.Strings("include", cfg.Include),
		zap.Strings("exclude", cfg.Exclude))

	report, err := combine.Run(cmd.Context(), opts, logger)
	if err != nil {
		logger.Error("Chunking run failed", zap.Error(err))
		return err
	}
	return report.Print(cmd.OutOrStdout())
}
