package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/constants"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
	"github.com/20q2/5e-combat-simulator-sub003/internal/service"
	"github.com/20q2/5e-combat-simulator-sub003/internal/storage"

	"golang.org/x/sync/errgroup"
)

// startTimeoutScanner periodically forfeits turns whose action deadline has
// passed. Resolution is delegated to service.HandleTimedOutEncounter so the
// forfeit follows the same turn-advance path as an explicit end_turn.
func startTimeoutScanner(ctx context.Context, repo storage.Repository, svc *service.Service) {
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			encounters, err := repo.FindTimedOutEncounters(time.Now())
			if err != nil {
				logging.Error("timeout scanner failed", err, nil)
				continue
			}
			// process each encounter sequentially (keeps DB safe under SQLite)
			for _, e := range encounters {
				if err := svc.HandleTimedOutEncounter(e.ID); err != nil {
					logging.Error("failed to forfeit timed-out turn", err, logging.Fields{"encounter_id": e.ID})
				}
			}
		}
	}()
}

// runServer serves until SIGINT/SIGTERM, then drains in-flight requests.
func runServer(ctx context.Context, handler http.Handler, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: handler}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
