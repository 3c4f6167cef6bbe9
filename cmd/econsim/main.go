// Command econsim runs the market economy simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/entropy"
	"github.com/talgya/mini-economy/internal/scenario"
)

// options are the flags shared by every subcommand.
type options struct {
	scenario string
	seed     int64
	logLevel string
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:          "econsim",
		Short:        "Agent-based market economy with emergent prices",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogging(opts.logLevel)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.scenario, "scenario", "", "scenario YAML file (default: built-in world)")
	flags.Int64Var(&opts.seed, "seed", int64(envIntOrDefault("ECONSIM_SEED", 0)), "random seed, 0 = fresh each run")
	flags.StringVar(&opts.logLevel, "log-level", envOrDefault("ECONSIM_LOG_LEVEL", "info"), "debug, info, warn or error")

	rootCmd.AddCommand(runCmd(&opts))
	rootCmd.AddCommand(batchCmd(&opts))
	rootCmd.AddCommand(serveCmd(&opts))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs the default logger on stderr: human-readable text
// on a terminal, JSON otherwise.
func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	hopts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, hopts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// buildWorld loads the scenario and constructs the world. The returned
// seed is the one actually used, so a fresh-seeded run can be replayed.
func buildWorld(opts *options) (*engine.World, int64, error) {
	sc := scenario.Default()
	if opts.scenario != "" {
		var err error
		if sc, err = scenario.Load(opts.scenario); err != nil {
			return nil, 0, err
		}
	}
	if opts.seed != 0 {
		sc.Seed = opts.seed
	}
	if sc.Seed == 0 {
		sc.Seed = entropy.CryptoSeed()
	}

	w, err := scenario.Build(sc, entropy.New(sc.Seed))
	if err != nil {
		return nil, 0, err
	}
	slog.Info("world built",
		"seed", sc.Seed,
		"pops", w.Population.Count(),
		"factories", w.Industry.Count(),
		"money", w.Population.MoneySupply()+w.Industry.MoneySupply(),
	)
	return w, sc.Seed, nil
}

func logDay(snap engine.Snapshot) {
	attrs := []any{
		"day", snap.Day,
		"population", snap.Population,
		"money", snap.TotalMoney(),
	}
	for _, m := range snap.Markets {
		attrs = append(attrs, m.Good.String(), m.Price)
	}
	slog.Info("daily report", attrs...)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
