package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ammiranda/department_service/config"
	"github.com/ammiranda/department_service/internal/app"
	"github.com/ammiranda/department_service/migrations"
)

const shutdownTimeout = 10 * time.Second

var (
	listenAddr string

	rootCmd = &cobra.Command{
		Use:   "department_service",
		Short: "Department hierarchy service backed by a nested-set store",
		Long: `department_service keeps a forest of departments encoded as nested sets
and serves it over HTTP. Configuration is read from the environment, a YAML
file (CONFIG_SOURCE=file) or AWS Secrets Manager (CONFIG_SOURCE=aws).`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema of the SQL stores",
	}
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE:  runMigrate(migrations.Up),
	}
	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE:  runMigrate(migrations.Rollback),
	}
	migrateVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE:  runMigrateVersion,
	}

	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Check the nested-set encoding of every stored department",
		RunE:  runVerify,
	}
)

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides HTTP_ADDR)")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, verifyCmd)
}

// newApp loads configuration and initializes every component
func newApp(ctx context.Context) (*app.App, error) {
	provider, err := config.NewProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}
	return app.New(ctx, provider, os.Stderr)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	addr := a.Config.HTTPAddr
	if listenAddr != "" {
		addr = listenAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(step func(db *sql.DB, dialect string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		db, dialect, err := a.Database()
		if err != nil {
			return err
		}
		if err := step(db, dialect); err != nil {
			return err
		}
		return printVersion(cmd, db, dialect)
	}
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	db, dialect, err := a.Database()
	if err != nil {
		return err
	}
	return printVersion(cmd, db, dialect)
}

func printVersion(cmd *cobra.Command, db *sql.DB, dialect string) error {
	version, dirty, err := migrations.Version(db, dialect)
	if err != nil {
		return err
	}
	cmd.Printf("%s schema version %d (dirty: %t)\n", dialect, version, dirty)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	count, err := a.Service.Verify(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("%d departments verified\n", count)
	return nil
}
