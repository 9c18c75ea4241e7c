package cli

import (
	"github.com/spf13/cobra"
)

type reportFlags struct {
	portfolio int64
	from      string
	to        string
}

func newReportCmd(rc *RootConfig) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Strategy volume, trade frequency and daily performance reports",
	}
	cmd.PersistentFlags().Int64Var(&f.portfolio, "portfolio", 0, "Portfolio id (default: portfolio.id from config)")

	volume := &cobra.Command{
		Use:   "volume",
		Short: "Total traded volume per strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := parseWindow(f.from, f.to)
			if err != nil {
				return err
			}
			s, closeFn, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			rows, err := s.app.Engine().StrategyVolumes(cmd.Context(), s.portfolioOrDefault(f.portfolio), w)
			if err != nil {
				return err
			}
			return s.out.Volumes(rows)
		},
	}
	addWindowFlags(volume, f)

	var strategyID string
	frequency := &cobra.Command{
		Use:   "frequency",
		Short: "Average trades per active day per strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			rows, err := s.app.Engine().TradeFrequency(cmd.Context(), s.portfolioOrDefault(f.portfolio), strategyID)
			if err != nil {
				return err
			}
			return s.out.Frequency(rows)
		},
	}
	frequency.Flags().StringVar(&strategyID, "strategy", "", "Only this strategy id")

	performance := &cobra.Command{
		Use:   "performance",
		Short: "Daily fund open/close/min/max, leverage and return",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := parseWindow(f.from, f.to)
			if err != nil {
				return err
			}
			s, closeFn, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			rows, err := s.app.Engine().DailyPerformance(cmd.Context(), s.portfolioOrDefault(f.portfolio), w)
			if err != nil {
				return err
			}
			return s.out.Performance(rows)
		},
	}
	addWindowFlags(performance, f)

	cmd.AddCommand(volume, frequency, performance)
	return cmd
}

func addWindowFlags(cmd *cobra.Command, f *reportFlags) {
	cmd.Flags().StringVar(&f.from, "from", "", "Window start, inclusive (UTC)")
	cmd.Flags().StringVar(&f.to, "to", "", "Window end, exclusive (UTC)")
}
