package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bolkhuis/kasboek/internal/book"
	"github.com/bolkhuis/kasboek/internal/ledger"
)

func newReceiptCommand(opts *rootOptions) *cobra.Command {
	receiptCmd := &cobra.Command{
		Use:   "receipt",
		Short: "Group purchases paid by a resident",
	}
	receiptCmd.AddCommand(newReceiptAddCommand(opts), newReceiptRemoveCommand(opts), newReceiptListCommand(opts))
	return receiptCmd
}

func newReceiptAddCommand(opts *rootOptions) *cobra.Command {
	var date, payer string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an empty receipt; record its lines with 'transaction add --receipt'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := time.Now()
			if date != "" {
				var err error
				if d, err = ledger.ParseDate(date); err != nil {
					return err
				}
			}
			return opts.withBook(cmd.Context(), "receipt: add "+args[0], func(b *book.Book) error {
				p, err := entityNamed(b.Ledger, payer)
				if err != nil {
					return err
				}
				r, err := ledger.NewReceipt(b.Ledger.AllocReceiptID(), args[0], nil, d, p.ID)
				if err != nil {
					return err
				}
				if err := b.Ledger.AddReceipt(r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added receipt %d (%s, paid by %s)\n", r.ID, r.Name, p.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date as yyyy-mm-dd (default today)")
	cmd.Flags().StringVar(&payer, "payer", "", "entity that paid (required)")
	_ = cmd.MarkFlagRequired("payer")

	return cmd
}

func newReceiptRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a receipt; its transactions are kept without a receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parsing receipt id %q: %w", args[0], err)
			}
			return opts.withBook(cmd.Context(), "receipt: remove "+args[0], func(b *book.Book) error {
				r, ok := b.Ledger.RemoveReceipt(id)
				if !ok {
					return fmt.Errorf("%w: receipt %d", ledger.ErrNotFound, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed receipt %d (%d transactions detached)\n", r.ID, r.Len())
				return nil
			})
		},
	}
}

func newReceiptListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDATE\tNAME\tPAYER\tTRANSACTIONS")
				for _, r := range b.Ledger.Receipts() {
					payer := strconv.Itoa(r.PayerID)
					if e, ok := b.Ledger.Entity(r.PayerID); ok {
						payer = e.Name
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\n", r.ID, r.Date.Format(ledger.DateLayout), r.Name, payer, r.TransactionIDs())
				}
				return tw.Flush()
			})
		},
	}
}
