package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/config"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/usecase"
)

// errCheckFailed makes the process exit non-zero without a usage dump.
var errCheckFailed = errors.New("check failed")

type cli struct {
	baseURL        string
	timeout        time.Duration
	databaseURL    string
	migrationsPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := &config.Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: "internal/infrastructure/postgres/migrations",
	}
	if cfg, err := config.Load(); err == nil {
		defaults = cfg
	}

	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "bankctl",
		Short:         "GoBank administration tool",
		Long:          `Runs migrations and seeding against the database and queries a running GoBank API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", "http://localhost:8080", "Base URL of the GoBank API")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&c.databaseURL, "database-url", defaults.DatabaseURL, "PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&c.migrationsPath, "migrations", defaults.MigrationsPath, "Directory holding migration files")

	rootCmd.AddCommand(
		c.migrateCmd(),
		c.usersCmd(),
		c.categoriesCmd(),
		c.ledgerCmd(),
		c.accountsCmd(),
		c.auditCmd(),
	)

	return rootCmd
}

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrations(c.databaseURL, c.migrationsPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrationsDown(c.databaseURL, c.migrationsPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := postgres.MigrationVersion(c.databaseURL, c.migrationsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %v\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage account holders",
	}

	var id, email, name string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register an active user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			pool, err := postgres.NewPool(ctx, c.databaseURL, 2, 0)
			if err != nil {
				return err
			}
			defer pool.Close()

			user, err := newUser(id, email, name, postgresRepo.NewULIDGenerator())
			if err != nil {
				return err
			}

			if err := postgresRepo.NewUserRepository(pool).Create(ctx, user); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}
	add.Flags().StringVar(&id, "id", "", "User id (generated when empty)")
	add.Flags().StringVar(&email, "email", "", "Email address")
	add.Flags().StringVar(&name, "name", "", "Display name")
	_ = add.MarkFlagRequired("email")

	cmd.AddCommand(add)
	return cmd
}

func newUser(id, email, name string, ids usecase.IDGenerator) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", email)
	}

	if id == "" {
		id = ids.Generate()
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	return &domain.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (c *cli) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create any missing system categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			pool, err := postgres.NewPool(ctx, c.databaseURL, 2, 0)
			if err != nil {
				return err
			}
			defer pool.Close()

			categories := usecase.NewCategoryUseCase(
				postgresRepo.NewTxManager(pool),
				postgresRepo.NewCategoryRepository(pool),
				postgresRepo.NewAuditRepository(pool),
				nil,
				postgresRepo.NewULIDGenerator(),
				0,
				zerolog.New(cmd.ErrOrStderr()),
			)

			created, err := categories.SeedSystemCategories(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %d system categories\n", created)
			return nil
		},
	})

	return cmd
}

func (c *cli) ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "consistency",
			Short: "Check that balances match transaction history",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.checkConsistency(cmd.Context(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "report",
			Short: "Reconcile every account",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.show(cmd.Context(), cmd.OutOrStdout(), "/api/v1/ledger/report")
			},
		},
	)

	return cmd
}

func (c *cli) accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.show(cmd.Context(), cmd.OutOrStdout(), "/api/v1/accounts/"+args[0])
			},
		},
		&cobra.Command{
			Use:   "reconcile <id>",
			Short: "Compare an account's balance with its history",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.show(cmd.Context(), cmd.OutOrStdout(), "/api/v1/accounts/"+args[0]+"/reconcile")
			},
		},
	)

	return cmd
}

func (c *cli) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}

	var filter domain.AuditFilter
	var action string
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			pool, err := postgres.NewPool(ctx, c.databaseURL, 2, 0)
			if err != nil {
				return err
			}
			defer pool.Close()

			filter.Action = domain.AuditAction(action)
			logs, err := postgresRepo.NewAuditRepository(pool).List(ctx, filter)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), logs)
		},
	}
	list.Flags().StringVar(&filter.UserID, "user", "", "Filter by acting user")
	list.Flags().StringVar(&filter.ResourceType, "resource-type", "", "Filter by resource type (account, category)")
	list.Flags().StringVar(&filter.ResourceID, "resource-id", "", "Filter by resource id")
	list.Flags().StringVar(&action, "action", "", "Filter by action, e.g. account.close")
	list.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum entries")
	list.Flags().IntVar(&filter.Offset, "offset", 0, "Entries to skip")

	cmd.AddCommand(list)
	return cmd
}

func (c *cli) checkConsistency(ctx context.Context, out io.Writer) error {
	status, body, err := c.get(ctx, "/api/v1/ledger/consistency")
	if err != nil {
		return err
	}

	var result struct {
		Consistent        bool   `json:"consistent"`
		TotalBalance      string `json:"total_balance"`
		TotalTransactions string `json:"total_transactions"`
		Difference        string `json:"difference"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", status, err)
	}

	if status != http.StatusOK || !result.Consistent {
		fmt.Fprintf(out, "Consistency check FAILED (status %d)\n", status)
		fmt.Fprintf(out, "Balances: %s Transactions: %s Difference: %s\n",
			result.TotalBalance, result.TotalTransactions, result.Difference)
		return errCheckFailed
	}

	fmt.Fprintln(out, "Consistency check PASSED")
	fmt.Fprintf(out, "Total balance: %s\n", result.TotalBalance)
	return nil
}

func (c *cli) show(ctx context.Context, out io.Writer, path string) error {
	status, body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("request failed with status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return printJSON(out, v)
}

func (c *cli) get(ctx context.Context, path string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.baseURL, "/")+path, nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
