package cli

import (
	"context"
	"fmt"

	"tradeledger/internal/ingest"
	"tradeledger/internal/logger"

	"github.com/spf13/cobra"
)

type ingestFlags struct {
	watch     bool
	portfolio int64
}

func newIngestCmd(rc *RootConfig) *cobra.Command {
	f := &ingestFlags{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load execution logs or snapshot CSVs into the ledger",
	}
	cmd.PersistentFlags().BoolVar(&f.watch, "watch", false, "Keep running and re-ingest files when they change")
	cmd.PersistentFlags().Int64Var(&f.portfolio, "portfolio", 0, "Portfolio id (default: portfolio.id from config)")

	for _, kind := range []ingest.Kind{ingest.KindOrders, ingest.KindTrades, ingest.KindSnapshots} {
		cmd.AddCommand(newIngestKindCmd(rc, f, kind))
	}
	cmd.AddCommand(newIngestAllCmd(rc, f))
	return cmd
}

func newIngestKindCmd(rc *RootConfig, f *ingestFlags, kind ingest.Kind) *cobra.Command {
	short := map[ingest.Kind]string{
		ingest.KindOrders:    "Ingest order events from execution logs",
		ingest.KindTrades:    "Ingest fill events from execution logs",
		ingest.KindSnapshots: "Ingest portfolio snapshot CSV files",
	}[kind]
	return &cobra.Command{
		Use:   string(kind) + " <file>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan ingest.Plan
			switch kind {
			case ingest.KindOrders:
				plan.Orders = args
			case ingest.KindTrades:
				plan.Trades = args
			case ingest.KindSnapshots:
				plan.Snapshots = args
			}
			return rc.runIngest(cmd, f, plan)
		},
	}
}

func newIngestAllCmd(rc *RootConfig, f *ingestFlags) *cobra.Command {
	var plan ingest.Plan
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Ingest orders, trades and snapshots in one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if plan.Empty() {
				return fmt.Errorf("nothing to ingest: pass --orders, --trades or --snapshots")
			}
			return rc.runIngest(cmd, f, plan)
		},
	}
	cmd.Flags().StringSliceVar(&plan.Orders, "orders", nil, "Order log file(s)")
	cmd.Flags().StringSliceVar(&plan.Trades, "trades", nil, "Trade log file(s)")
	cmd.Flags().StringSliceVar(&plan.Snapshots, "snapshots", nil, "Snapshot CSV file(s)")
	return cmd
}

func (rc *RootConfig) runIngest(cmd *cobra.Command, f *ingestFlags, plan ingest.Plan) error {
	s, closeFn, err := rc.open(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	cfg := s.app.Config()
	logger.InfoBlock(s.app.Summary.String())
	job := s.app.Job(s.portfolioOrDefault(f.portfolio))

	reports, runErr := job.Run(ctx, plan, cfg.Ingest.Parallel)
	if err := s.out.Ingest(reports); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if err := failedBatches(reports); err != nil && !f.watch {
		return err
	}
	if !f.watch {
		return nil
	}

	w := s.app.Watcher()
	add := func(kind ingest.Kind, paths []string) error {
		for _, p := range paths {
			if err := w.Add(p, func(ctx context.Context, path string) error {
				rep, err := job.IngestFile(ctx, kind, path)
				if rerr := s.out.Ingest([]ingest.Report{rep}); rerr != nil {
					return rerr
				}
				return err
			}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(ingest.KindOrders, plan.Orders); err != nil {
		return err
	}
	if err := add(ingest.KindTrades, plan.Trades); err != nil {
		return err
	}
	if err := add(ingest.KindSnapshots, plan.Snapshots); err != nil {
		return err
	}
	return w.Run(ctx)
}

func failedBatches(reports []ingest.Report) error {
	n := 0
	for _, r := range reports {
		n += r.FailedBatches
	}
	if n > 0 {
		return fmt.Errorf("%d batch(es) failed and were rolled back", n)
	}
	return nil
}
