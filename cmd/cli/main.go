package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kosarica/network-optimizer/config"
	"github.com/kosarica/network-optimizer/internal/optimizer"
)

var (
	cfgFile      string
	outputFormat string
	cfg          *config.Config
	logger       *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netopt",
	Short: "Supply network optimization CLI",
	Long: `Run supply network optimizations from scenario files: LP flow solving,
gravity-based demand allocation and distribution center location planning.

Scenario files hold either a bare request or {"name", "kind", "request"}.`,
	PersistentPreRunE: persistentPreRun,
	SilenceUsage:      true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table or json")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
	}
}

func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
	logger = initLogger()
	return nil
}

// optimizerConfig returns the loaded solver configuration or the defaults.
func optimizerConfig() *optimizer.Config {
	if cfg == nil {
		return optimizer.Defaults()
	}
	return &cfg.Optimizer
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// logs go to stderr so that -o json stays machine readable
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: cfg != nil && cfg.Logging.NoColor}
	if cfg != nil && cfg.Logging.Format == "json" {
		output = os.Stderr
	}

	l := zerolog.New(output).Level(level).With().Timestamp().Logger()
	log.Logger = l
	return &l
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
