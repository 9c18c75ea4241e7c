package cli

import (
	"fmt"
	"strconv"
	"strings"

	"tradeledger/internal/store"
	"tradeledger/internal/store/model"

	"github.com/spf13/cobra"
)

func newPortfolioCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Manage portfolio records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <id> <name>",
		Short: "Create a portfolio; an existing id is left untouched",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePortfolioID(args[0])
			if err != nil {
				return err
			}
			s, closeFn, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			var created bool
			err = s.app.Store().InTx(cmd.Context(), func(uow store.UnitOfWork) error {
				created, err = uow.Portfolios().Ensure(cmd.Context(), model.Portfolio{PortfolioID: id, Name: strings.TrimSpace(args[1])})
				return err
			})
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "portfolio %d created\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "portfolio %d already exists\n", id)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Set the display name of a portfolio",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePortfolioID(args[0])
			if err != nil {
				return err
			}
			s, closeFn, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			err = s.app.Store().InTx(cmd.Context(), func(uow store.UnitOfWork) error {
				return uow.Portfolios().Rename(cmd.Context(), id, strings.TrimSpace(args[1]))
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "portfolio %d renamed to %q\n", id, strings.TrimSpace(args[1]))
			return nil
		},
	})
	return cmd
}

func parsePortfolioID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad portfolio id %q", s)
	}
	return id, nil
}
