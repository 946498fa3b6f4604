package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bolkhuis/kasboek/internal/book"
	"github.com/bolkhuis/kasboek/internal/ledger"
)

func newBalanceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show balances grouped by account type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				byType := make(map[ledger.AccountType][]ledger.Entity)
				for _, e := range b.Ledger.Entities() {
					byType[e.Type] = append(byType[e.Type], e)
				}

				c := b.Currency()
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, t := range ledger.AccountTypes {
					entities := byType[t]
					if len(entities) == 0 {
						continue
					}
					var total float64
					fmt.Fprintln(tw, t.Label())
					for _, e := range entities {
						total += e.Balance
						fmt.Fprintf(tw, "  %s\t%s\n", e.Name, c.Format(e.Balance))
					}
					fmt.Fprintf(tw, "  Total\t%s\n", c.Format(total))
				}
				return tw.Flush()
			})
		},
	}
}
