package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aglyzov/go-part/internal/bench"
	"github.com/aglyzov/go-part/internal/config"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numStyle    = cellStyle.Align(lipgloss.Right)
)

func newRunCmd(a *app) *cobra.Command {
	var (
		path string
		opts = config.Default()
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Time insert, find, bounds, scan and snapshots over random keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, path, opts)
			if err != nil {
				return err
			}
			if err := a.setLogger(cmd, cfg.Log); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rep, err := bench.Run(ctx, cfg, a.logger)
			if err != nil {
				return fmt.Errorf("benchmark: %w", err)
			}
			renderReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&path, "config", "", "JSON config file")
	flags.IntVar(&opts.Keys, "keys", opts.Keys, "number of random keys")
	flags.IntVar(&opts.KeySize, "key-size", opts.KeySize, "bytes per key")
	flags.Int64Var(&opts.Seed, "seed", opts.Seed, "key generator seed")
	flags.BoolVar(&opts.Baseline, "baseline", opts.Baseline, "also time a Go map and a sorted slice")
	flags.IntVar(&opts.Readers, "readers", opts.Readers, "concurrent snapshot readers while inserting")
	flags.StringVar(&opts.Node16, "node16", opts.Node16, "Node16 search kernel: auto, scalar, swar")
	return cmd
}

// loadConfig layers the defaults, the config file, PARTBENCH_* variables and then the flags
// given on the command line.
func loadConfig(cmd *cobra.Command, path string, flagged *config.Config) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadFromEnv(config.EnvPrefix, cfg)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("keys") {
		cfg.Keys = flagged.Keys
	}
	if flags.Changed("key-size") {
		cfg.KeySize = flagged.KeySize
	}
	if flags.Changed("seed") {
		cfg.Seed = flagged.Seed
	}
	if flags.Changed("baseline") {
		cfg.Baseline = flagged.Baseline
	}
	if flags.Changed("readers") {
		cfg.Readers = flagged.Readers
	}
	if flags.Changed("node16") {
		cfg.Node16 = flagged.Node16
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func renderReport(w io.Writer, rep *bench.Report) {
	rows := make([][]string, 0, len(rep.Results))
	for _, res := range rep.Results {
		rows = append(rows, []string{
			res.Phase,
			fmt.Sprint(res.Ops),
			res.Elapsed.Round(10 * time.Microsecond).String(),
			fmt.Sprintf("%0.1f", res.KOps()),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("phase", "ops", "elapsed", "Kop/s").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			}
			return numStyle
		})
	fmt.Fprintln(w, t.Render())

	st := rep.Stats
	fmt.Fprintf(w, "keys: %d\n", st.Keys)
	fmt.Fprintf(w, "node size: %d bytes\n", st.NodeSize)
	fmt.Fprintf(w, "max depth: %d\n", st.MaxDepth)
	fmt.Fprintf(w, "avg stride: %0.1f bytes (compacted %0.1f)\n", st.AvgStride, st.CompactStride)
	fmt.Fprintf(w, "checkpoint: %d bytes\n", st.Checkpoint)
	fmt.Fprintf(w, "live nodes: %d\n", st.Usage.Live())
}
