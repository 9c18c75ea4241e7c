// Package cli wires the tradeledger command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"tradeledger/internal/app"
	"tradeledger/internal/config"
	"tradeledger/internal/report"

	"github.com/spf13/cobra"
)

// RootConfig carries the global flags shared by every subcommand.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	Format     string
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "tradeledger",
		Short:         "Ingest execution logs and portfolio snapshots into a trade ledger and report on it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", os.Getenv("TRADELEDGER_CONFIG"), "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "SQLite ledger database (overrides database.path)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&rc.Format, "format", "", "Output format: table|json|yaml")

	cmd.AddCommand(
		newIngestCmd(rc),
		newReportCmd(rc),
		newListCmd(rc),
		newPortfolioCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tradeledger (%s)\n", app.Version)
		},
	})

	return cmd
}

// Execute runs the command tree until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (rc *RootConfig) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(strings.TrimSpace(rc.ConfigPath))
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(rc.DBPath); v != "" {
		cfg.Database.Path = v
	}
	if v := strings.TrimSpace(rc.LogLevel); v != "" {
		cfg.App.LogLevel = v
	}
	if v := strings.TrimSpace(rc.Format); v != "" {
		cfg.Report.Format = v
	}
	return cfg, nil
}

// session is an opened app plus the renderer for this invocation.
type session struct {
	app *app.App
	out *report.Renderer
}

func (rc *RootConfig) open(cmd *cobra.Command) (*session, func(), error) {
	cfg, err := rc.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "close:", err)
		}
	}
	return &session{app: a, out: report.New(cmd.OutOrStdout(), format)}, closeFn, nil
}

// portfolioOrDefault resolves the --portfolio flag against the configured id.
func (s *session) portfolioOrDefault(id int64) int64 {
	if id != 0 {
		return id
	}
	return s.app.Config().Portfolio.ID
}
