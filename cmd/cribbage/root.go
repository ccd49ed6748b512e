package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/cribbage/config"
	"github.com/luca-patrignani/cribbage/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "cribbage",
	Short:         "Two-player cribbage over a direct connection",
	Long:          `Play cribbage against one opponent on the same network. One player hosts a room, the other joins it by room code or address.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path of the YAML configuration")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("name", "", "Your name, shown to the opponent")
}

// loadConfig reads the configuration file and applies the flags that
// override it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	overrides := map[string]*string{
		"log-level": &cfg.Log.Level,
		"name":      &cfg.Player,
		"counting":  &cfg.Game.Counting,
		"transport": &cfg.Transport,
		"listen":    &cfg.Listen,
		"metrics":   &cfg.Metrics.Listen,
		"snapshot":  &cfg.Snapshot.Backend,
	}
	for name, field := range overrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*field = f.Value.String()
		}
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewTerminal(level), nil
}
