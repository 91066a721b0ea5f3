package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aiga/internal/adapters/academy"
	emailPkg "aiga/internal/adapters/email"
	web "aiga/internal/adapters/http"
	"aiga/internal/adapters/http/perf"
	"aiga/internal/adapters/storage"
	"aiga/internal/adapters/storage/exchange"
	"aiga/internal/adapters/storage/keyvalue"
	"aiga/internal/adapters/storage/sessiontoken"
	"aiga/internal/application/projections"
	"aiga/internal/application/viewstate"
	"aiga/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to read .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := storage.MigrateDB(ctx, db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	var kv keyvalue.Store = keyvalue.NewSQLiteStore(timedDB)
	if cfg.StoreKeyHex != "" {
		key, err := keyvalue.ParseKey(cfg.StoreKeyHex)
		if err != nil {
			log.Fatalf("AIGA_STORE_KEY: %v", err)
		}
		kv = keyvalue.NewSealed(kv, key)
		log.Println("Session token sealed at rest")
	}
	tokens := sessiontoken.New(kv)
	if err := tokens.Load(ctx); err != nil {
		log.Fatalf("failed to load session token: %v", err)
	}

	client := academy.New(academy.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.HTTPTimeout,
		Collector: collector,
	})

	var mailer emailPkg.Sender
	if cfg.ResendKey != "" {
		mailer = emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		mailer = emailPkg.NewNoopSender()
		log.Println("Email sender configured (noop, set AIGA_RESEND_KEY for booking receipts)")
	}

	csrfKey, err := cfg.CSRFKey()
	if err != nil {
		log.Fatalf("CSRF key: %v", err)
	}

	machine := viewstate.New()
	handler := web.NewMux(ctx, &web.Services{
		Machine: machine,
		Tokens:  tokens,
		Academy: client,
		Ledger:  exchange.NewSQLiteLedger(timedDB),
		Catalog: projections.NewSessionCatalog(),
		Mailer:  mailer,
	}, web.Options{
		AuthURL:       cfg.AuthURL,
		PublicURL:     cfg.PublicURL,
		CSRFKey:       csrfKey,
		Production:    cfg.Production(),
		SlowRequestMs: cfg.SlowRequestMs,
	}, collector)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// The loading screen is served until the stored token has been checked.
	go func() {
		if _, err := web.RunStartup(ctx); err != nil {
			slog.Error("startup_failed", "error", err.Error())
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("AIGA portal %s starting on %s (env=%s, api=%s, schema=%d)", version, cfg.Addr, cfg.Env, cfg.APIURL, storage.LatestSchemaVersion())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
