package cli

import (
	"tradeledger/internal/report"
	"tradeledger/internal/store"
	"tradeledger/internal/store/model"

	"github.com/spf13/cobra"
)

const defaultPageSize = 50

type listFlags struct {
	portfolio int64
	page      int
	limit     int
}

func newListCmd(rc *RootConfig) *cobra.Command {
	f := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse ledger tables page by page",
	}
	cmd.PersistentFlags().Int64Var(&f.portfolio, "portfolio", 0, "Portfolio id (default: portfolio.id from config)")
	cmd.PersistentFlags().IntVar(&f.page, "page", 1, "Page number, starting at 1")
	cmd.PersistentFlags().IntVar(&f.limit, "limit", defaultPageSize, "Rows per page; 0 lists everything")

	run := func(fn func(*cobra.Command, *session, int64, store.Page) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(cmd, s, s.portfolioOrDefault(f.portfolio), store.NewPage(f.page, f.limit))
		}
	}
	envelope := func(table string) (string, int, int) {
		page := max(f.page, 1)
		return table, page, max(f.limit, 0)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "strategies",
		Short: "Strategies with symbol and direction",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, s *session, pid int64, p store.Page) error {
			rows, total, err := s.app.Store().Read().Strategies().List(cmd.Context(), pid, p)
			if err != nil {
				return err
			}
			table, page, limit := envelope("Strategy")
			return s.out.Strategies(report.Listing[model.Strategy]{Table: table, Total: total, Page: page, Limit: limit, Items: rows})
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "orders",
		Short: "Orders, newest first",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, s *session, pid int64, p store.Page) error {
			rows, total, err := s.app.Store().Read().Orders().List(cmd.Context(), pid, p)
			if err != nil {
				return err
			}
			table, page, limit := envelope("Trade_Order")
			return s.out.Orders(report.Listing[model.Order]{Table: table, Total: total, Page: page, Limit: limit, Items: rows})
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "trades",
		Short: "Trades, newest first",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, s *session, pid int64, p store.Page) error {
			rows, total, err := s.app.Store().Read().Trades().List(cmd.Context(), pid, p)
			if err != nil {
				return err
			}
			table, page, limit := envelope("Trade")
			return s.out.Trades(report.Listing[model.Trade]{Table: table, Total: total, Page: page, Limit: limit, Items: rows})
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "logs",
		Short: "Audit log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, s *session, pid int64, p store.Page) error {
			rows, total, err := s.app.Store().Read().Logs().List(cmd.Context(), pid, p)
			if err != nil {
				return err
			}
			table, page, limit := envelope("Log")
			return s.out.Logs(report.Listing[model.Log]{Table: table, Total: total, Page: page, Limit: limit, Items: rows})
		}),
	})

	var from, to string
	snapshots := &cobra.Command{
		Use:   "snapshots",
		Short: "Portfolio snapshot time series",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, s *session, pid int64, _ store.Page) error {
			w, err := parseWindow(from, to)
			if err != nil {
				return err
			}
			rows, err := s.app.Store().Read().Snapshots().List(cmd.Context(), pid, w)
			if err != nil {
				return err
			}
			return s.out.Snapshots(report.Listing[model.PortfolioSnapshot]{Table: "Portfolio_Snapshot", Total: int64(len(rows)), Page: 1, Items: rows})
		}),
	}
	snapshots.Flags().StringVar(&from, "from", "", "Window start, inclusive (UTC)")
	snapshots.Flags().StringVar(&to, "to", "", "Window end, exclusive (UTC)")
	cmd.AddCommand(snapshots)
	return cmd
}
