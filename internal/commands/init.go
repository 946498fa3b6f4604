package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bolkhuis/kasboek/internal/accounts"
	"github.com/bolkhuis/kasboek/internal/book"
	"github.com/bolkhuis/kasboek/internal/config"
	"github.com/bolkhuis/kasboek/internal/gitops"
	"github.com/bolkhuis/kasboek/internal/invoice"
)

func newInitCommand() *cobra.Command {
	var name, ledgerPath string
	var git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new household",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), absDir, name, ledgerPath, git)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "household name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "ledger.json", "ledger file; the extension picks the format (.json, .db, .bolt)")
	cmd.Flags().BoolVar(&git, "git", false, "create a git repository and commit every change")

	return cmd
}

func runInit(ctx context.Context, dir, name, ledgerPath string, git bool) error {
	if exists, err := book.Exists(dir); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%s already holds a household", dir)
	}

	cfg := config.Default(name)
	cfg.Ledger.Path = ledgerPath
	cfg.Git.AutoCommit = git

	for _, d := range []string{cfg.Invoice.OutputDir, "logs", filepath.Dir(cfg.Invoice.Template)} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, cfg.Invoice.Template), []byte(invoice.DefaultTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing invoice template: %w", err)
	}

	gitignore := ".env\n.ledger-*.json\n*.db-journal\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	b, err := book.Create(ctx, dir, cfg, accounts.DefaultChart(), logger(cfg))
	if err != nil {
		return err
	}
	entities := len(b.Ledger.Entities())
	if err := b.Close(); err != nil {
		return err
	}

	if !git {
		fmt.Printf("Initialized household %s at %s (%d accounts)\n", name, dir, entities)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(dir, "init: Initialize "+name, author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized household %s at %s (%d accounts, %s)\n", name, dir, entities, hash)
	return nil
}
