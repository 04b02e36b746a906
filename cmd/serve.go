package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/chainproof/chainaudit/internal/db"
	"github.com/chainproof/chainaudit/internal/server"
	"github.com/chainproof/chainaudit/internal/stats"
	"github.com/chainproof/chainaudit/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit API server",
	Long: `Start the HTTP API serving audit CRUD, the dashboard summary, global
statistics and user profiles.

Examples:
  # Listen on the default address
  chainaudit serve

  # Custom listen address and data directory
  chainaudit serve --listen :9090 --db-dir /var/lib/chainaudit`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "address to listen on")
	serveCmd.Flags().Int("max-page-size", store.DefaultMaxPageSize, "maximum page size for audit listings")
	_ = viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("max-page-size", serveCmd.Flags().Lookup("max-page-size"))
}

func runServe(cmd *cobra.Command, args []string) error {
	gormDB, err := openDatabase()
	if err != nil {
		return err
	}

	st := store.New(gormDB)
	st.SetMaxPageSize(viper.GetInt("max-page-size"))
	srv := server.New(st, stats.New(st))

	listen := viper.GetString("listen")
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	return nil
}

// openDatabase opens the configured data directory, falling back to the
// process-wide default instance when none is configured.
func openDatabase() (*gorm.DB, error) {
	if dir := viper.GetString("db-dir"); dir != "" {
		return db.New(dir)
	}
	return db.Get()
}
