package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bolkhuis/kasboek/internal/book"
	"github.com/bolkhuis/kasboek/internal/invoicelog"
	"github.com/bolkhuis/kasboek/internal/ledger"
)

func newInvoiceCommand(opts *rootOptions) *cobra.Command {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "invoice <resident>",
		Short: "Write a resident's invoice for a period and carry the balance forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := ledger.ParseDate(from)
			if err != nil {
				return err
			}
			end, err := ledger.ParseDate(to)
			if err != nil {
				return err
			}
			// Invoice saves the ledger itself.
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				r, err := residentNamed(b.Ledger, args[0])
				if err != nil {
					return err
				}
				st, path, err := b.Invoice(cmd.Context(), book.InvoiceRequest{ResidentID: r.ID, From: start, To: end, Output: out})
				if err != nil {
					return err
				}
				c := b.Currency()
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d lines, %s -> %s\n",
					path, len(st.Lines), c.Format(st.StartBalance), c.Format(st.EndBalance))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date of the period, yyyy-mm-dd (required)")
	cmd.Flags().StringVar(&to, "to", "", "last date of the period, yyyy-mm-dd (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <output_dir>/<resident>-<to>.html)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	cmd.AddCommand(newInvoiceLogCommand(opts))
	return cmd
}

func newInvoiceLogCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log [resident]",
		Short: "Show the invoices written so far",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				entries, err := invoicelog.Read(b.Dir)
				if err != nil {
					return err
				}
				c := b.Currency()
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, e := range entries {
					if len(args) == 1 && !strings.EqualFold(e.Resident, args[0]) {
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s..%s\t%s\t%s\t%s\n",
						e.Timestamp.Format(ledger.DateLayout), e.Resident,
						e.From.Format(ledger.DateLayout), e.To.Format(ledger.DateLayout),
						c.Format(e.StartBalance.InexactFloat64()), c.Format(e.EndBalance.InexactFloat64()),
						e.Output)
				}
				return tw.Flush()
			})
		},
	}
}
