package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bolkhuis/kasboek/internal/book"
	"github.com/bolkhuis/kasboek/internal/journal"
	"github.com/bolkhuis/kasboek/internal/ledger"
)

func newTransactionCommand(opts *rootOptions) *cobra.Command {
	txCmd := &cobra.Command{
		Use:     "transaction",
		Aliases: []string{"tx"},
		Short:   "Record and inspect transactions",
	}
	txCmd.AddCommand(
		newTransactionAddCommand(opts),
		newTransactionRemoveCommand(opts),
		newTransactionListCommand(opts),
		newTransactionExportCommand(opts),
		newTransactionImportCommand(opts),
	)
	return txCmd
}

func newTransactionAddCommand(opts *rootOptions) *cobra.Command {
	var date, debtor, creditor, amount, description string
	var receipt int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction: the debtor is debited and the creditor credited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := time.Now()
			if date != "" {
				var err error
				if d, err = ledger.ParseDate(date); err != nil {
					return err
				}
			}
			a, err := parseAmount(amount)
			if err != nil {
				return err
			}
			ref := ledger.NoReceipt
			if cmd.Flags().Changed("receipt") {
				ref = ledger.ReceiptOf(receipt)
			}

			return opts.withBook(cmd.Context(), "transaction: "+description, func(b *book.Book) error {
				dr, err := entityNamed(b.Ledger, debtor)
				if err != nil {
					return err
				}
				cr, err := entityNamed(b.Ledger, creditor)
				if err != nil {
					return err
				}
				t, err := ledger.NewTransaction(b.Ledger.AllocTransactionID(), dr.ID, cr.ID, a, ref, d, description)
				if err != nil {
					return err
				}
				if err := b.Ledger.AddTransaction(t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded transaction %d: %s %s -> %s %s\n",
					t.ID, t.Date.Format(ledger.DateLayout), dr.Name, cr.Name, b.Currency().Format(t.Amount))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date as yyyy-mm-dd (default today)")
	cmd.Flags().StringVar(&debtor, "debtor", "", "entity that is debited (required)")
	cmd.Flags().StringVar(&creditor, "creditor", "", "entity that is credited (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount (required)")
	cmd.Flags().StringVarP(&description, "description", "m", "", "description (required)")
	cmd.Flags().IntVar(&receipt, "receipt", 0, "receipt id this transaction belongs to")
	for _, f := range []string{"debtor", "creditor", "amount", "description"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func newTransactionRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Reverse and delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parsing transaction id %q: %w", args[0], err)
			}
			return opts.withBook(cmd.Context(), "transaction: remove "+args[0], func(b *book.Book) error {
				t, ok := b.Ledger.RemoveTransaction(id)
				if !ok {
					return fmt.Errorf("%w: transaction %d", ledger.ErrNotFound, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed transaction %d (%s)\n", t.ID, t.Description)
				return nil
			})
		},
	}
}

func newTransactionListCommand(opts *rootOptions) *cobra.Command {
	var entity, from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parsePeriod(from, to)
			if err != nil {
				return err
			}
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				var txs []ledger.Transaction
				if entity != "" {
					e, err := entityNamed(b.Ledger, entity)
					if err != nil {
						return err
					}
					txs = b.Ledger.TransactionsOf(e.ID, start, end)
				} else {
					for _, t := range b.Ledger.Transactions() {
						if !t.Date.Before(start) && !t.Date.After(end) {
							txs = append(txs, t)
						}
					}
				}
				return printTransactions(cmd.OutOrStdout(), b, txs)
			})
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "only transactions involving this entity")
	cmd.Flags().StringVar(&from, "from", "", "first date, yyyy-mm-dd")
	cmd.Flags().StringVar(&to, "to", "", "last date, yyyy-mm-dd")

	return cmd
}

// parsePeriod reads optional inclusive period bounds; missing bounds are open.
func parsePeriod(from, to string) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	var err error
	if from != "" {
		if start, err = ledger.ParseDate(from); err != nil {
			return start, end, err
		}
	}
	if to != "" {
		if end, err = ledger.ParseDate(to); err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}

func printTransactions(w io.Writer, b *book.Book, txs []ledger.Transaction) error {
	c := b.Currency()
	name := func(id int) string {
		if e, ok := b.Ledger.Entity(id); ok {
			return e.Name
		}
		return strconv.Itoa(id)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDEBTOR\tCREDITOR\tAMOUNT\tRECEIPT\tDESCRIPTION")
	for _, t := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date.Format(ledger.DateLayout), name(t.DebtorID), name(t.CreditorID), c.Format(t.Amount), t.Receipt, t.Description)
	}
	return tw.Flush()
}

func newTransactionExportCommand(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
					return journal.Export(w, b.Ledger.Transactions(), b.Ledger)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	return cmd
}

func newTransactionImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Record the transactions listed in a CSV file",
		Long: "Record the transactions listed in a CSV file. Every row is checked first;\n" +
			"nothing is recorded when any row is invalid.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			rows, err := journal.ReadRows(f)
			if err != nil {
				return err
			}

			return opts.withBook(cmd.Context(), "transaction: import "+args[0], func(b *book.Book) error {
				if errs := journal.Validate(rows, b.Ledger); len(errs) > 0 {
					all := make([]error, len(errs))
					for i, e := range errs {
						all[i] = e
					}
					return fmt.Errorf("%s: %d invalid rows:\n%w", args[0], len(errs), errors.Join(all...))
				}
				txs, err := journal.Transactions(rows, b.Ledger, b.Ledger.AllocTransactionID)
				if err != nil {
					return err
				}
				for _, t := range txs {
					if err := b.Ledger.AddTransaction(t); err != nil {
						return fmt.Errorf("transaction %d: %w", t.ID, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions\n", len(txs))
				return nil
			})
		},
	}
}
