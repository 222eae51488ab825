package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/abtime"

	"pressroom/internal/articles"
	"pressroom/internal/auth"
	"pressroom/internal/database"
	"pressroom/internal/logging"
	"pressroom/internal/sanitize"
)

const sweepInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pressroom: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.LogLevel)

	db, err := database.OpenAndMigrate(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	clock := abtime.NewRealTime()

	creds := auth.NewCredentials(auth.NewSQLiteUserRepository(db), cfg.BcryptCost, clock)
	sessions := auth.NewSessions(auth.NewSQLiteSessionRepository(db), clock)
	gate := auth.NewGate(sessions, log, cfg.SecureCookies)
	store := articles.NewStore(db, sanitize.Default(), clock)

	created, err := creds.EnsureUser(ctx, cfg.AdminUser, cfg.AdminPass)
	if err != nil {
		return err
	}
	if created {
		log.Info(ctx, "created initial admin user", "username", cfg.AdminUser)
		if cfg.AdminPassDefaulted {
			log.Warn(ctx, "ADMIN_PASS not set, using default password")
		}
	}

	go sweepSessions(ctx, sessions, log, clock, sweepInterval)

	site := NewSite(store, creds, sessions, gate, auth.NewCSRF(cfg.SecureCookies), log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           site.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepSessions deletes expired sessions once immediately and then on
// every tick until ctx is done.
func sweepSessions(ctx context.Context, sessions *auth.Sessions, log logging.Logger, clock abtime.AbstractTime, every time.Duration) {
	sweep := func() {
		n, err := sessions.SweepExpired(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error(ctx, "cleaning up expired sessions", "error", err)
			}
			return
		}
		if n > 0 {
			log.Debug(ctx, "cleaned up expired sessions", "count", n)
		}
	}

	sweep()

	ticker := clock.NewTicker(every, 0)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Channel():
			sweep()
		}
	}
}
