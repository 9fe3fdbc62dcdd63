package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"PlantScout/internal/app"
	"PlantScout/internal/config"
	"PlantScout/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// ValidFormats defines the allowed log formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the PlantScout CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "plantscout",
		Short: "PlantScout - native plant recommendations",
		Long:  "Recommends native plants for a zip code, sun exposure and soil moisture, streaming each plant as it is enriched.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.LogFormat != "" && !slices.Contains(ValidFormats, opts.LogFormat) {
				return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", os.Getenv("PLANTSCOUT_CONFIG"), "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "override log format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRecommendCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// load resolves configuration and the logger for a command. Logs go to logOut.
func (o *RootOptions) load(logOut io.Writer) (config.Config, *slog.Logger) {
	cfg := config.LoadFile(o.ConfigPath)
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format, logOut)
}

func (o *RootOptions) application(ctx context.Context, logOut io.Writer) (*app.Application, *slog.Logger, error) {
	cfg, logger := o.load(logOut)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build application: %w", err)
	}
	return application, logger, nil
}
