package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bolkhuis/kasboek/internal/book"
	"github.com/bolkhuis/kasboek/internal/buildinfo"
	"github.com/bolkhuis/kasboek/internal/config"
	"github.com/bolkhuis/kasboek/internal/logging"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	dir string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "kasboek",
		Short:   "Household bookkeeping with resident invoices",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "household directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newEntityCommand(opts),
		newResidentCommand(opts),
		newTransactionCommand(opts),
		newReceiptCommand(opts),
		newInvoiceCommand(opts),
		newBalanceCommand(opts),
	)

	return rootCmd
}

// logger builds the diagnostic logger for a household's configuration.
func logger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// withBook opens the household, runs fn and saves the ledger with message
// when fn succeeds. An empty message means fn only reads.
func (o *rootOptions) withBook(ctx context.Context, message string, fn func(*book.Book) error) error {
	dir, err := filepath.Abs(o.dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return fmt.Errorf("%w (run 'kasboek init' first)", err)
	}
	b, err := book.OpenWithConfig(ctx, dir, cfg, logger(cfg))
	if err != nil {
		return err
	}
	defer b.Close()

	if err := fn(b); err != nil {
		return err
	}
	if message == "" {
		return nil
	}
	return b.Save(ctx, message)
}
