package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scryptex/scryptex/internal/api"
	"github.com/scryptex/scryptex/internal/app/ledger"
	"github.com/scryptex/scryptex/internal/app/notify"
	"github.com/scryptex/scryptex/internal/infra/sqlite"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the Scryptex HTTP API. The ledger is restored from the SQLite journal
before the listener opens, and seed users from [ledger].seed_users are
registered if they do not exist yet.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	l := ledger.New(cfg.ReferralPolicy(), ledger.WithJournal(db))
	if err := l.RestoreFrom(db); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	if err := seedAccounts(l, cfg.Ledger.SeedUsers); err != nil {
		return err
	}

	notes := notify.NewService(cfg.Notifications.MaxPerUser, cfg.Notifications.DefaultLimit)

	srv := api.NewServer(l, notes)
	srv.SetHistory(db)
	srv.SetDefaultUser(cfg.API.DefaultUserID)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}
	srv.SetRateLimit(cfg.API.RateLimitPerMin)

	httpSrv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	entries, err := db.EntryCount()
	if err != nil {
		return fmt.Errorf("count journal entries: %w", err)
	}

	go func() {
		log.Printf("[serve] listening on %s (journal %s, %d accounts, %d entries)", httpSrv.Addr, db.Path(), l.AccountCount(), entries)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[serve] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// seedAccounts registers each id that has no ledger entry yet. The id doubles
// as the username, so codes look like user11234.
func seedAccounts(l *ledger.Ledger, ids []string) error {
	for _, id := range ids {
		if _, ok := l.Account(id); ok {
			continue
		}
		if _, err := l.Register(id, id); err != nil {
			return fmt.Errorf("seed %s: %w", id, err)
		}
	}
	return nil
}
