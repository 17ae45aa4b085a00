// Command ttyface-demo exercises the ttyface rendering engine against a
// real terminal.
//
// Usage:
//
//	go run ./cmd/ttyface-demo basic
//	go run ./cmd/ttyface-demo counter -n 50
//	go run ./cmd/ttyface-demo stress --debug-log /tmp/ttyface_stress.log
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"tty.systems/ttyface/pkg/ttyface"
)

func main() {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "ttyface-demo",
		Short: "Demos for the ttyface differential terminal renderer",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(basicCmd(), multistepCmd(), counterCmd(), stressCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
	); err != nil {
		os.Exit(1)
	}
}

// session runs fn against an interface on the process TTY, ending the
// session (and restoring the terminal) no matter how fn exits.
func session(fn func(iface *ttyface.Interface) error) error {
	term := ttyface.NewProcessTerminal()
	iface, err := ttyface.NewWithTerminal(term)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer iface.End() //nolint:errcheck // best-effort terminal restore

	return fn(iface)
}

func basicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "basic",
		Short: "Write a single line and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(func(iface *ttyface.Interface) error {
				batch, err := iface.StartUpdate()
				if err != nil {
					return err
				}
				if err := batch.SetLine(0, ttyface.NewLine("Hello, world!")); err != nil {
					return err
				}
				if err := iface.PerformUpdate(batch); err != nil {
					return err
				}
				time.Sleep(time.Second)
				return nil
			})
		},
	}
}

func multistepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "multistep",
		Short: "Apply several batches with partial rewrites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(func(iface *ttyface.Interface) error {
				steps := []func(b *ttyface.Batch) error{
					func(b *ttyface.Batch) error {
						if err := b.SetLine(0, ttyface.NewLine("Hel", "lo,", " world!")); err != nil {
							return err
						}
						return b.SetLine(1, ttyface.NewLine("How are you?"))
					},
					// Rewrites only from column 3 onward.
					func(b *ttyface.Batch) error {
						return b.SetSegment(0, 1, ttyface.Seg("p!"))
					},
					func(b *ttyface.Batch) error {
						if err := b.DeleteSegment(0, 2); err != nil {
							return err
						}
						return b.SetCursor(1, 12)
					},
				}
				for _, step := range steps {
					batch, err := iface.StartUpdate()
					if err != nil {
						return err
					}
					if err := step(batch); err != nil {
						return err
					}
					if err := iface.PerformUpdate(batch); err != nil {
						return err
					}
					time.Sleep(800 * time.Millisecond)
				}
				return nil
			})
		},
	}
}

func counterCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Update a counter line in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(func(iface *ttyface.Interface) error {
				for n := 0; n <= count; n++ {
					batch, err := iface.StartUpdate()
					if err != nil {
						return err
					}
					if err := batch.SetLine(0, ttyface.NewLine("count: ", fmt.Sprint(n))); err != nil {
						return err
					}
					if err := iface.PerformUpdate(batch); err != nil {
						return err
					}
					select {
					case <-cmd.Context().Done():
						return nil
					case <-time.After(50 * time.Millisecond):
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 100, "number of increments")
	return cmd
}

func stressCmd() *cobra.Command {
	var (
		rows     int
		ticks    int
		debugLog string
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Randomly mutate many rows and report render stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(func(iface *ttyface.Interface) error {
				if debugLog != "" {
					f, err := os.OpenFile(debugLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
					if err != nil {
						return fmt.Errorf("open debug log: %w", err)
					}
					defer f.Close() //nolint:errcheck // best-effort close of debug log
					iface.SetDebugWriter(f)
				}

				rng := rand.New(rand.NewSource(time.Now().UnixNano()))
				start := time.Now()
				for tick := 0; tick < ticks; tick++ {
					batch, err := iface.StartUpdate()
					if err != nil {
						return err
					}
					// A handful of random row rewrites per tick keeps most
					// rows clean, exercising the diff's skip path.
					for range 5 {
						row := rng.Intn(rows)
						text := fmt.Sprintf("row %02d tick %04d %08x", row, tick, rng.Uint32())
						if err := batch.SetLine(row, ttyface.NewLine(text)); err != nil {
							return err
						}
					}
					if err := iface.PerformUpdate(batch); err != nil {
						return err
					}
					select {
					case <-cmd.Context().Done():
						return nil
					case <-time.After(10 * time.Millisecond):
					}
				}
				slog.Debug("stress run complete",
					"ticks", ticks,
					"commits", iface.Updates(),
					"elapsed", time.Since(start))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 20, "number of interface rows")
	cmd.Flags().IntVar(&ticks, "ticks", 500, "number of update ticks")
	cmd.Flags().StringVar(&debugLog, "debug-log", "", "path for JSONL render stats")
	return cmd
}
