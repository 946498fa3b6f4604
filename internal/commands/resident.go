package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bolkhuis/kasboek/internal/book"
	"github.com/bolkhuis/kasboek/internal/ledger"
)

func newResidentCommand(opts *rootOptions) *cobra.Command {
	residentCmd := &cobra.Command{
		Use:   "resident",
		Short: "Manage residents",
	}
	residentCmd.AddCommand(newResidentAddCommand(opts), newResidentListCommand(opts))
	return residentCmd
}

func newResidentAddCommand(opts *rootOptions) *cobra.Command {
	var balance string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := parseBalance(balance)
			if err != nil {
				return err
			}
			return opts.withBook(cmd.Context(), "resident: add "+args[0], func(b *book.Book) error {
				r, err := ledger.NewResident(b.Ledger.AllocEntityID(), args[0], bal, bal)
				if err != nil {
					return err
				}
				if err := b.Ledger.AddEntity(r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added resident %s (id %d)\n", r.Name, r.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance, also used as the previous invoice balance")

	return cmd
}

func newResidentListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List residents with their balance and last invoiced balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				c := b.Currency()
				out := cmd.OutOrStdout()
				for _, e := range b.Ledger.Entities() {
					if e.IsResident() {
						fmt.Fprintf(out, "%s: %s (last invoice %s)\n", e.Name, c.Format(e.Balance), c.Format(e.PreviousBalance))
					}
				}
				return nil
			})
		},
	}
}
