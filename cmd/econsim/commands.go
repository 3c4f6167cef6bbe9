package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/mini-economy/internal/api"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/ledger"
	"github.com/talgya/mini-economy/internal/report"
)

func runCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Step one day per line of input and print a report; q quits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, _, err := buildWorld(opts)
			if err != nil {
				return err
			}
			return interactive(w, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// interactive advances w one day at a time, printing each day's report,
// until the reader sends "q" or runs dry.
func interactive(w *engine.World, in io.Reader, out io.Writer) error {
	lines := bufio.NewScanner(in)
	for {
		w.Tick()
		if err := report.Write(out, w.Snapshot()); err != nil {
			return err
		}
		if !lines.Scan() {
			return lines.Err()
		}
		if strings.TrimSpace(lines.Text()) == "q" {
			return nil
		}
	}
}

func batchCmd(opts *options) *cobra.Command {
	var (
		days      int
		every     int
		ledgerDSN string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Simulate a fixed number of days without pausing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}
			w, seed, err := buildWorld(opts)
			if err != nil {
				return err
			}

			var record func(engine.Snapshot) error
			if ledgerDSN != "" {
				db, runID, err := openLedger(ledgerDSN, seed)
				if err != nil {
					return err
				}
				defer db.Close()
				record = func(snap engine.Snapshot) error {
					return db.RecordDay(runID, snap)
				}
			}
			return batch(w, days, every, cmd.OutOrStdout(), record)
		},
	}

	cmd.Flags().IntVar(&days, "days", 100, "days to simulate")
	cmd.Flags().IntVar(&every, "every", 0, "print a report every N days (0 = final day only)")
	cmd.Flags().StringVar(&ledgerDSN, "ledger", envOrDefault("ECONSIM_LEDGER", ""), "SQLite file to record every day into")
	return cmd
}

// batch runs days days, reporting every N days and always on the last one.
// record, when set, receives every day's snapshot.
func batch(w *engine.World, days, every int, out io.Writer, record func(engine.Snapshot) error) error {
	for i := 1; i <= days; i++ {
		w.Tick()
		snap := w.Snapshot()

		if record != nil {
			if err := record(snap); err != nil {
				return fmt.Errorf("recording day %d: %w", snap.Day, err)
			}
		}

		if i == days || (every > 0 && i%every == 0) {
			logDay(snap)
			if err := report.Write(out, snap); err != nil {
				return err
			}
		}
	}
	return nil
}

func serveCmd(opts *options) *cobra.Command {
	var (
		port      int
		ledgerDSN string
		interval  time.Duration
		speed     float64
		maxDays   uint64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the economy continuously and observe it over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			w, seed, err := buildWorld(opts)
			if err != nil {
				return err
			}

			eng := engine.NewEngine(w)
			eng.Interval = interval
			eng.MaxDays = maxDays
			eng.SetSpeed(speed)

			srv := &api.Server{
				Eng:      eng,
				Port:     port,
				AdminKey: os.Getenv("ECONSIM_ADMIN_KEY"),
			}
			if ledgerDSN != "" {
				db, runID, err := openLedger(ledgerDSN, seed)
				if err != nil {
					return err
				}
				defer db.Close()
				srv.Ledger = db
				srv.RunID = runID
			}

			eng.OnDay = func(snap engine.Snapshot) {
				if srv.Ledger != nil {
					if err := srv.Ledger.RecordDay(srv.RunID, snap); err != nil {
						slog.Error("ledger write failed", "day", snap.Day, "error", err)
					}
				}
				srv.Publish(snap)
				logDay(snap)
			}

			srv.Start()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				slog.Info("received signal, shutting down", "signal", sig)
				eng.Stop()
			}()

			eng.Run()

			if srv.Ledger != nil {
				if err := srv.Ledger.SaveMeta("last_day", strconv.FormatUint(w.Day, 10)); err != nil {
					slog.Error("failed to save last day", "error", err)
				}
			}
			slog.Info("shutdown complete", "day", w.Day)
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", envIntOrDefault("ECONSIM_PORT", 8080), "HTTP API port")
	cmd.Flags().StringVar(&ledgerDSN, "ledger", envOrDefault("ECONSIM_LEDGER", ""), "SQLite file to record every day into")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "time per simulated day at speed 1")
	cmd.Flags().Float64Var(&speed, "speed", 1, "speed multiplier, 0 starts paused")
	cmd.Flags().Uint64Var(&maxDays, "max-days", 0, "stop after this many days (0 = run until signalled)")
	return cmd
}

// openLedger opens the ledger file and registers a run for seed.
func openLedger(path string, seed int64) (*ledger.DB, string, error) {
	db, err := ledger.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening ledger: %w", err)
	}
	runID, err := db.StartRun(seed)
	if err != nil {
		db.Close()
		return nil, "", err
	}
	if err := db.SaveMeta("last_run", runID); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("saving run id: %w", err)
	}
	slog.Info("ledger opened", "path", path, "run", runID)
	return db, runID, nil
}
