package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MimeLyc/dvr-mirror/internal/config"
	"github.com/MimeLyc/dvr-mirror/internal/httpapi"
	"github.com/MimeLyc/dvr-mirror/internal/metrics"
	"github.com/MimeLyc/dvr-mirror/internal/persistence"
	"github.com/MimeLyc/dvr-mirror/internal/primary"
	"github.com/MimeLyc/dvr-mirror/internal/reconcile"
	"github.com/MimeLyc/dvr-mirror/internal/recorder"
	"github.com/MimeLyc/dvr-mirror/internal/service"
	"github.com/MimeLyc/dvr-mirror/internal/state"
	"github.com/MimeLyc/dvr-mirror/internal/transport"
	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type scheduler interface {
	Schedule(ctx context.Context) error
	Wait()
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	logCloser, err := log.Setup(log.ParseLevel(cfg.Log.Level), cfg.Log.File)
	if err != nil {
		log.Warn("Failed to open log file %s, logging to stdout only: %v", cfg.Log.File, err)
	}
	defer logCloser.Close()

	store, err := persistence.Open(cfg.State)
	if err != nil {
		log.Fatal("Failed to open %s state store: %v", cfg.State.Backend, err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	holder := state.NewHolder(ctx, store)

	primaryClient := primary.NewClient(cfg.Primary.BaseURL, cfg.Channels, transport.New(
		transport.WithTimeout(cfg.Poll.RequestTimeout),
		transport.WithInsecureTLS(cfg.Primary.Insecure),
		transport.WithMaxAttempts(cfg.Poll.RetryMaxAttempts),
	))
	recorderClient := recorder.NewClient(cfg.Recorder.BaseURL, cfg.Channels, transport.New(
		transport.WithTimeout(cfg.Poll.RequestTimeout),
		transport.WithMaxAttempts(1),
	), recorder.WithMetrics(m))

	engine := reconcile.NewEngine(primaryClient, recorderClient, holder, reconcile.WithMetrics(m))

	c := service.NewCron()
	svc := service.New(engine, c, cfg.Poll.Interval)

	httpSrv := httpapi.NewServer(holder,
		httpapi.WithCycleReporter(engine),
		httpapi.WithScheduleReporter(svc),
		httpapi.WithMetricsHandler(m.Handler()),
		httpapi.WithRateLimit(cfg.HTTP.RateLimit),
	)

	log.Info("Mirroring %s onto %s every %s", cfg.Primary.BaseURL, cfg.Recorder.BaseURL, cfg.Poll.Interval)
	if err := runWithComponents(ctx, cfg, svc, c, httpSrv); err != nil {
		log.Error("Service stopped with error: %v", err)
		os.Exit(1)
	}
	log.Info("Service stopped")
}

// runWithComponents starts the scheduler and the status server and blocks
// until ctx is cancelled or the server fails. Cycles run on a context that
// outlives ctx so an in-flight cycle can finish its actions and persist.
func runWithComponents(
	ctx context.Context,
	cfg *config.Config,
	sched scheduler,
	cronEngine cronEngine,
	httpSrv httpServer,
) error {
	if err := sched.Schedule(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	cronEngine.Start()

	addr := cfg.HTTP.Addr()
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Status server listening on %s", addr)
		serveErr <- httpSrv.ListenAndServe(addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	cronDone := cronEngine.Stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}

	startupDone := make(chan struct{})
	go func() {
		sched.Wait()
		close(startupDone)
	}()

	for _, done := range []<-chan struct{}{cronDone.Done(), startupDone} {
		select {
		case <-done:
		case <-shutdownCtx.Done():
			log.Warn("Timed out waiting for the running cycle to finish")
			return runErr
		}
	}
	return runErr
}
