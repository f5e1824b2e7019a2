package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ancestra.org/internal/auth"
	"ancestra.org/internal/config"
	"ancestra.org/internal/httpapi"
	"ancestra.org/internal/obs"
	"ancestra.org/internal/person"
	"ancestra.org/internal/task"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("ANCESTRA_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	codec, err := auth.NewCodec([]byte(cfg.AuthSecret), cfg.Issuer)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	var credentials auth.CredentialStore
	var people person.Store
	if db != nil {
		credentials = auth.NewPGStore(db)
		people = person.NewPGStore(db)
	} else {
		log.Println("no DSN configured, using in-memory stores")
		credentials = auth.NewMemoryStore()
		people = person.NewMemoryStore()
	}

	authSvc, err := auth.NewService(credentials, codec,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	var engine task.Engine
	if cfg.TaskEngineURL != "" {
		engine, err = task.NewHTTPEngine(cfg.TaskEngineURL, nil)
		if err != nil {
			log.Fatalf("task engine: %v", err)
		}
	} else {
		engine = task.NewMemoryEngine()
	}
	proxy, err := task.NewProxy(engine)
	if err != nil {
		log.Fatalf("task proxy: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, people, proxy)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)
	api.SetMaxBodyBytes(cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting ancestra-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
