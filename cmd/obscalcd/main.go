// Command obscalcd runs the background obscalc engine (C8) as a standalone
// daemon: it loads layered configuration, wires the ITC cache, params
// resolver, and generator, then drives the worker pool until an interrupt
// signal requests a graceful shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gemini-hlsw/odb-sequencer/internal/config"
	"github.com/gemini-hlsw/odb-sequencer/internal/execution"
	"github.com/gemini-hlsw/odb-sequencer/internal/generator"
	"github.com/gemini-hlsw/odb-sequencer/internal/itc"
	"github.com/gemini-hlsw/odb-sequencer/internal/obscalc"
	"github.com/gemini-hlsw/odb-sequencer/internal/paramsresolver"
	"github.com/gemini-hlsw/odb-sequencer/internal/telemetry/logging"
	"github.com/gemini-hlsw/odb-sequencer/internal/telemetry/metrics"
	"github.com/gemini-hlsw/odb-sequencer/internal/telemetry/tracing"
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

func main() {
	var (
		configPath  string
		databaseDsn string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to the layered YAML configuration file")
	flag.StringVar(&databaseDsn, "database-dsn", "", "Postgres DSN for the obscalc MetaStore; empty keeps the in-memory store")
	flag.BoolVar(&showVersion, "version", false, "Print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("obscalcd - observatory database sequence generator and obscalc engine")
		return
	}

	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if databaseDsn != "" {
		cfg.Database.Dsn = databaseDsn
	}

	log15 := logging.NewFromLevel(cfg.Logging.Level)

	tracingTeardown, err := tracing.Init(tracing.Options{ServiceName: "obscalcd", Enabled: cfg.Metrics.Enabled})
	if err != nil {
		log.Fatalf("init tracing: %v", err)
	}
	defer func() { _ = tracingTeardown(context.Background()) }()

	metricsReg := metrics.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log15.InfoCtx(ctx, "signal received, shutting down")
		cancel()
		<-sigCh
		log15.WarnCtx(ctx, "second signal received, forcing exit")
		os.Exit(1)
	}()

	if configPath != "" {
		changes, errs, err := loader.WatchChanges(ctx)
		if err != nil {
			log15.WarnCtx(ctx, "config hot-reload unavailable", "error", err)
		} else {
			go watchConfigChanges(ctx, log15, changes, errs)
		}
	}
	defer func() { _ = loader.Teardown() }()

	itcClient := itc.NewHTTPClient(cfg.Itc.Endpoint, cfg.Itc.RequestTimeout)
	itcCache, err := itc.NewCache(itcClient, itc.Config{
		CommitHash: cfg.CommitHash,
		Capacity:   cfg.Itc.CacheCapacity,
		Logger:     log15,
		Metrics:    metricsReg,
	})
	if err != nil {
		log.Fatalf("build itc cache: %v", err)
	}
	defer itcCache.Teardown()

	store, closeStore, err := buildMetaStore(ctx, cfg.Database.Dsn)
	if err != nil {
		log.Fatalf("build meta store: %v", err)
	}
	defer closeStore()

	// The GraphQL/SQL-backed target, observation, and proposal repositories
	// are external collaborators out of scope for this module (spec §1);
	// buildResolver wires a minimal set backed by the same database
	// connection when a DSN is configured, or an always-empty resolver
	// without one.
	resolver, err := buildResolver(ctx, cfg.Database.Dsn)
	if err != nil {
		log.Fatalf("build params resolver: %v", err)
	}

	history, closeHistory, err := buildExecutionHistory(ctx, cfg.Database.Dsn)
	if err != nil {
		log.Fatalf("build execution history: %v", err)
	}
	defer closeHistory()

	gen := generator.New(resolver, itcCache, history, nil, cfg.Generator.FutureLimit)

	engineCfg := obscalc.Config{
		WorkerPoolSize: cfg.Obscalc.WorkerPoolSize,
		TickInterval:   cfg.Obscalc.TickInterval,
		LeaseDuration:  cfg.Obscalc.LeaseDuration,
		BatchSize:      cfg.Obscalc.BatchSize,
		Backoff: obscalc.BackoffConfig{
			Base:           cfg.Obscalc.RetryBackoff.Base,
			Max:            cfg.Obscalc.RetryBackoff.Max,
			JitterFraction: cfg.Obscalc.RetryBackoff.Jitter,
		},
	}
	engine := obscalc.New(engineCfg, store, gen.Calculate, log15, metricsReg)

	if err := engine.Start(ctx); err != nil {
		log.Fatalf("start obscalc engine: %v", err)
	}
	defer engine.Stop()

	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsReg.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		go func() {
			log15.InfoCtx(ctx, "metrics listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log15.ErrorCtx(ctx, "metrics server failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	log15.InfoCtx(context.Background(), "obscalcd stopped")
}

func watchConfigChanges(ctx context.Context, log15 logging.Logger, changes <-chan config.Change, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			log15.InfoCtx(ctx, "configuration reloaded", "commit_hash", change.Config.CommitHash)
		case err, ok := <-errs:
			if !ok {
				return
			}
			log15.WarnCtx(ctx, "configuration reload failed", "error", err)
		}
	}
}

func buildMetaStore(ctx context.Context, dsn string) (obscalc.MetaStore, func(), error) {
	if dsn == "" {
		return obscalc.NewInMemoryStore(), func() {}, nil
	}
	pg, err := obscalc.NewPostgresStore(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres meta store: %w", err)
	}
	return pg, pg.Close, nil
}

// buildResolver wires the params resolver's three repository interfaces.
// The real target/observation/proposal data lives behind the ODB's
// GraphQL/SQL layer, which is an explicit non-goal of this module (spec
// §1); paramsresolver.SQLRepos is a minimal concrete adapter over the same
// Postgres connection used for the MetaStore, wired here only when a DSN is
// configured. Without one, the daemon still starts (it leases nothing,
// since PendingBatch never finds work without a populated MetaStore
// either) against an always-empty resolver.
func buildResolver(ctx context.Context, dsn string) (*paramsresolver.Resolver, error) {
	if dsn == "" {
		empty := emptyRepos{}
		return paramsresolver.New(empty, empty, empty), nil
	}
	repos, err := paramsresolver.NewSQLRepos(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return paramsresolver.New(repos, repos, repos), nil
}

// buildExecutionHistory wires the generator's execution-history collaborator
// (internal/execution), backed by the same Postgres connection used for the
// other database-backed components when a DSN is configured, or an
// always-empty stub otherwise (every observation looks freshly generated).
func buildExecutionHistory(ctx context.Context, dsn string) (execution.Repo, func(), error) {
	if dsn == "" {
		return execution.EmptyRepo{}, func() {}, nil
	}
	repo, err := execution.NewSQLRepo(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect execution history store: %w", err)
	}
	return repo, repo.Close, nil
}

// emptyRepos backs a resolver that finds nothing, for daemon startups with
// no database configured.
type emptyRepos struct{}

func (emptyRepos) GetTarget(context.Context, model.TargetId) (paramsresolver.Target, bool, error) {
	return paramsresolver.Target{}, false, nil
}

func (emptyRepos) GetObservation(context.Context, model.ObservationId) (paramsresolver.ObservationData, bool, error) {
	return paramsresolver.ObservationData{}, false, nil
}

func (emptyRepos) IsAuthorized(context.Context, model.ProgramId) (bool, error) {
	return false, nil
}
