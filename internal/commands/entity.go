package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bolkhuis/kasboek/internal/accounts"
	"github.com/bolkhuis/kasboek/internal/book"
	"github.com/bolkhuis/kasboek/internal/ledger"
)

func newEntityCommand(opts *rootOptions) *cobra.Command {
	entityCmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage accounts",
	}
	entityCmd.AddCommand(
		newEntityAddCommand(opts),
		newEntityListCommand(opts),
		newEntityRenameCommand(opts),
		newEntityExportCommand(opts),
		newEntityImportCommand(opts),
	)
	return entityCmd
}

func newEntityAddCommand(opts *rootOptions) *cobra.Command {
	var accountType, balance string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := ledger.ParseAccountType(accountType)
			if err != nil {
				return err
			}
			if t == ledger.AccountTypeNonExistent {
				return fmt.Errorf("%w: %s accounts cannot be stored", ledger.ErrInvalidArgument, t)
			}
			bal, err := parseBalance(balance)
			if err != nil {
				return err
			}
			return opts.withBook(cmd.Context(), "entity: add "+args[0], func(b *book.Book) error {
				e, err := ledger.NewEntity(b.Ledger.AllocEntityID(), args[0], t, bal)
				if err != nil {
					return err
				}
				if err := b.Ledger.AddEntity(e); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s account %s (id %d)\n", t.Label(), e.Name, e.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&accountType, "type", "", "account type: expense, asset, dividend, liability, revenue or equity (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")

	return cmd
}

func newEntityListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts and residents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				return printEntities(cmd.OutOrStdout(), b, b.Ledger.Entities())
			})
		},
	}
}

func printEntities(w io.Writer, b *book.Book, entities []ledger.Entity) error {
	c := b.Currency()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tBALANCE")
	for _, e := range entities {
		typ := e.Type.Label()
		if e.IsResident() {
			typ = "Resident"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Name, typ, c.Format(e.Balance))
	}
	return tw.Flush()
}

func newEntityRenameCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename an account or resident",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBook(cmd.Context(), fmt.Sprintf("entity: rename %s to %s", args[0], args[1]), func(b *book.Book) error {
				e, err := entityNamed(b.Ledger, args[0])
				if err != nil {
					return err
				}
				renamed, err := e.WithName(args[1])
				if err != nil {
					return err
				}
				if _, err := b.Ledger.UpdateEntity(renamed); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", e.Name, renamed.Name)
				return nil
			})
		},
	}
}

func newEntityExportCommand(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all entities as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBook(cmd.Context(), "", func(b *book.Book) error {
				return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
					return accounts.WriteEntities(w, b.Ledger.Entities())
				})
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	return cmd
}

func newEntityImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Add the entities listed in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			rows, err := accounts.ReadRows(f)
			if err != nil {
				return err
			}

			return opts.withBook(cmd.Context(), "entity: import "+args[0], func(b *book.Book) error {
				for i, row := range rows {
					id := row.ID
					if !row.HasID {
						id = b.Ledger.AllocEntityID()
					}
					e, err := row.Entity(id)
					if err != nil {
						return fmt.Errorf("row %d: %w", i+2, err)
					}
					if err := b.Ledger.AddEntity(e); err != nil {
						return fmt.Errorf("row %d: %w", i+2, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entities\n", len(rows))
				return nil
			})
		},
	}
}

// writeOutput runs write against path, or against stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
