// Scouter drift-monitoring daemon - polls due drift profiles, evaluates
// them, dispatches alerts, and ingests trace spans.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeready-toolchain/tarsy/internal/config"
	"github.com/codeready-toolchain/tarsy/internal/sqlutil"
	"github.com/codeready-toolchain/tarsy/pkg/alert"
	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
	"github.com/codeready-toolchain/tarsy/pkg/evalengine"
	"github.com/codeready-toolchain/tarsy/pkg/scheduler"
	"github.com/codeready-toolchain/tarsy/pkg/traceingest"
	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	envFile := flag.String("env-file", getEnv("ENV_FILE", ".env"), "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: could not load %s: %v", *envFile, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", *envFile)
	}

	httpPort := getEnv("HTTP_PORT", "8081")
	gin.SetMode(getEnv("GIN_MODE", "release"))

	log.Printf("Starting Scouter")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlutil.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("Connected to PostgreSQL")

	if err := sqlutil.RunMigrations(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied")

	store := driftprofile.NewStore(pool)
	records := scheduler.NewPgRecordSource(pool)
	engine := evalengine.NewEngine(loadProviderPools())
	drifters := scheduler.NewDrifterFactory(records, engine)

	dispatchFactory := alert.NewFactory(cfg.Dispatch)

	sched := scheduler.New(pool, store, drifters, dispatchFactory, scheduler.Config{
		PollInterval: cfg.Scheduler.PollInterval,
		PollJitter:   cfg.Scheduler.PollInterval / 5,
	})
	sched.Start(ctx)
	defer sched.Stop()
	log.Println("Scheduler started")

	traceStore, err := traceingest.Open(ctx, cfg.Ingest.Root)
	if err != nil {
		log.Fatalf("Failed to open trace store: %v", err)
	}
	defer traceStore.Close()
	log.Printf("Trace store opened at %s", cfg.Ingest.Root)

	stopCompaction := startCompactionTimer(ctx, traceStore, cfg.Ingest.CompactionInterval)
	defer stopCompaction()

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := pool.Ping(reqCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
			"components": gin.H{
				"scheduler":   "running",
				"trace_store": "running",
			},
		})
	})

	srv := &http.Server{Addr: ":" + httpPort, Handler: router}
	go func() {
		log.Printf("HTTP server listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}

// loadProviderPools wires one evalengine.ProviderPool per configured LLM
// judge provider. Scouter ships with none configured by default — a
// deployment wanting LLM-judge or GenAI drift profiles sets
// LLM_JUDGE_ADDR to point at a judge service.
func loadProviderPools() map[string]*evalengine.ProviderPool {
	addr := os.Getenv("LLM_JUDGE_ADDR")
	if addr == "" {
		return nil
	}
	provider, err := evalengine.NewGRPCProvider(addr, getEnv("LLM_JUDGE_MODEL", "default"))
	if err != nil {
		log.Printf("Warning: could not connect to LLM judge service at %s: %v", addr, err)
		return nil
	}
	pool := evalengine.NewProviderPool(provider, 8, 30*time.Second)
	return map[string]*evalengine.ProviderPool{"default": pool}
}

// startCompactionTimer runs traceStore.Optimize on cfg.Ingest.CompactionInterval,
// returning a stop func. A zero interval disables the timer.
func startCompactionTimer(ctx context.Context, store *traceingest.Store, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := store.Optimize(ctx); err != nil {
					log.Printf("Trace store compaction failed: %v", err)
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() { close(done) }
}
