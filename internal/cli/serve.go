package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/eleven-am/recipe-api/internal/admin"
	"github.com/eleven-am/recipe-api/internal/api"
	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveWait    bool
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and admin site",
	Long: `Serves the REST API at the root and under /api/, and the staff admin
under /admin/.
With --wait the server first waits for the database, and with --migrate it
brings the schema up to date before accepting requests.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8000)")
	serveCmd.Flags().BoolVar(&serveWait, "wait", false, "Wait for the database before starting")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending schema changes before starting")
}

// newHandler wires the API, with the admin site mounted, on db
func newHandler(db *sqlx.DB, cfg *Config) (http.Handler, error) {
	st, users, tokens, err := services(db, cfg)
	if err != nil {
		return nil, err
	}

	site, err := admin.New(admin.Options{
		Store:        st,
		Users:        users,
		Tokens:       tokens,
		SecureCookie: cfg.Admin.SecureCookie,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build admin site: %w", err)
	}

	srv, err := api.NewServer(api.Options{
		Store:       st,
		Users:       users,
		Tokens:      tokens,
		CORSOrigins: cfg.CORS.Origins,
		Admin:       site,
	})
	if err != nil {
		return nil, err
	}
	return srv, nil
}

func newHTTPServer(cfg *Config, handler http.Handler) *http.Server {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.CLI()

	db, err := connect(ctx, serveWait, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer db.Close()

	if serveMigrate {
		if err := migrate(ctx, db, cmd.OutOrStdout(), migrateOptions{}); err != nil {
			return err
		}
	}

	handler, err := newHandler(db, appConfig)
	if err != nil {
		return err
	}

	srv := newHTTPServer(appConfig, handler)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
