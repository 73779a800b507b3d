package cmd

import (
	"context"
	"fmt"

	"omnichunk/pkg/config"
	"omnichunk/pkg/logging"
	"omnichunk/pkg/render"
	"omnichunk/pkg/version"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewRootCmd builds the omnichunk command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:   "omnichunk [root]",
		Short: "Omnichunk splits a source tree into token-bounded text chunks",
		Long: `Omnichunk scans a directory, estimates the token size of every eligible text
file and packs the files into numbered chunk files that each fit a token
budget. Files are grouped by directory, by type, or purely by size.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
				return fmt.Errorf("error binding flags: %w", err)
			}
			return logging.Setup(v.GetBool(config.KeyVerbose), version.AppName, version.Get().Version)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(cmd, args, v)
		},
	}

	rootCmd.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "Enable debug logging")
	addRunFlags(rootCmd.Flags())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func addRunFlags(flags *pflag.FlagSet) {
	flags.StringP(config.KeyOutput, "o", config.DefaultOutputDir, "Directory for chunk files")
	flags.IntP(config.KeyMaxTokens, "t", config.DefaultMaxTokens, "Token budget per chunk")
	flags.StringP(config.KeyMode, "m", config.DefaultMode, "Grouping mode: directory, type or size")
	flags.StringSliceP(config.KeyInclude, "i", nil, "Include pattern (repeatable); when set a file must match one")
	flags.StringSliceP(config.KeyExclude, "e", nil, "Exclude pattern (repeatable)")
	flags.String(config.KeySeparator, render.DefaultSeparator, "Line delimiting each file block")
	flags.String(config.KeyProject, "", "Project name for headers and file names (default: base name of root)")
	flags.String(config.KeyTimestamp, "", "Run timestamp, 20060102_150405 or RFC3339 (default: now)")
	flags.Int(config.KeyMaxFileSizeKB, 0, "Skip files larger than this many KB (0 disables)")
	flags.Int(config.KeyWorkers, 0, "Concurrent readers and writers (0 uses the CPU count)")
	flags.Bool(config.KeyDryRun, false, "Plan and report without writing files")
	flags.Bool(config.KeyIndex, true, "Write a YAML index of the chunks")
	flags.String(config.KeyConfig, "", "Config file (default: .omnichunk.yaml in the root)")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
