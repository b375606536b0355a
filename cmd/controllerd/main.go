// Command controllerd runs the orchestrator's HTTP API and driver loop in
// one process.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contenox/orchestrator/apiframework"
	"github.com/contenox/orchestrator/cloud"
	"github.com/contenox/orchestrator/config"
	"github.com/contenox/orchestrator/controller"
	"github.com/contenox/orchestrator/httpapi"
	"github.com/contenox/orchestrator/libdbexec"
	"github.com/contenox/orchestrator/libroutine"
	"github.com/contenox/orchestrator/metrics"
	"github.com/contenox/orchestrator/orchestrator"
	"github.com/contenox/orchestrator/store"
	"github.com/contenox/orchestrator/tracker"
)

func initDatabase(ctx context.Context, cfg *config.Config) (libdbexec.DBManager, error) {
	var db libdbexec.DBManager
	var err error
	retry := libroutine.NewRoutine(10, time.Minute)
	retryErr := retry.ExecuteWithRetry(ctx, time.Second, 3, func(ctx context.Context) error {
		db, err = libdbexec.NewPostgresDBManager(ctx, cfg.DatabaseURL, store.Schema)
		return err
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return db, nil
}

func buildRegistry(ctx context.Context, cfg *config.Config) (cloud.Registry, error) {
	registry := cloud.Registry{orchestrator.CloudDummy: cloud.NewDummy()}

	if cfg.EnableKubernetes {
		k8s, err := cloud.NewKubernetes(cfg.KubeconfigPath)
		if err != nil {
			return nil, err
		}
		registry[orchestrator.CloudKubernetes] = k8s
	}

	if cfg.EnableAWS {
		aws, err := cloud.NewAWS(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		registry[orchestrator.CloudAWS] = aws
	}

	return registry, nil
}

func main() {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize cloud adapters: %v", err)
	}

	activityTracker := tracker.NewLogActivityTracker(slog.Default())
	c := controller.New(store.New(db), registry, activityTracker)

	driverCtx, cancelDriver := context.WithCancel(ctx)
	defer cancelDriver()
	go func() {
		if err := c.Run(driverCtx); err != nil && driverCtx.Err() == nil {
			log.Printf("driver loop stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	httpapi.AddModelRoutes(mux, c)

	var handler http.Handler = mux
	handler = apiframework.RequestIDMiddleware(handler)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, metricsMux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	server := &http.Server{
		Addr:    cfg.Addr + ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("controllerd starting on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
