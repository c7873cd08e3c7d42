package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/polTorrent/biblioteca-universal-arion/auth"
	"github.com/polTorrent/biblioteca-universal-arion/cliparse"
	"github.com/polTorrent/biblioteca-universal-arion/db"
	"github.com/polTorrent/biblioteca-universal-arion/events"
	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/local"
	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/middleware"
	"github.com/polTorrent/biblioteca-universal-arion/migration"
	"github.com/polTorrent/biblioteca-universal-arion/remote"
	"github.com/polTorrent/biblioteca-universal-arion/router"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Text logs on a terminal, JSON otherwise
	if isatty.IsTerminal(os.Stdout.Fd()) {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	} else {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	// Badge catalog
	catalog := loyalty.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = loyalty.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			slog.Error("catalog load failed", "path", cfg.CatalogPath, "error", err)
			os.Exit(1)
		}
	}
	engine := loyalty.NewEngine(catalog)

	bus := events.NewBus()
	bus.Subscribe(events.LogListener)

	// Device-local store
	kv, err := local.OpenSQLite(cfg.LocalStorePath)
	if err != nil {
		slog.Error("local store open failed", "path", cfg.LocalStorePath, "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	device := store.NewLocalAdapter(kv)

	svc := router.Services{Device: device}

	if cfg.Remote() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := remote.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
		cancel()
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		// Create schema (tables)
		if err := db.CreateSchema(client.DB()); err != nil {
			slog.Error("schema creation failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema ready", "driver", cfg.DatabaseType)

		remoteStore := store.New(store.NewRemoteAdapter(client))
		proc := ledger.NewProcessor(remoteStore, engine, bus)

		tokens, err := auth.NewTokenService(cfg.SessionSecret, 0)
		if err != nil {
			slog.Error("session setup failed", "error", err)
			os.Exit(1)
		}
		accounts := auth.NewManager(client, proc, tokens)

		// The first remote sign-in carries this device's history over
		coordinator := migration.NewCoordinator(kv, device, store.New(device), remoteStore, proc)
		accounts.OnChange(func(ctx context.Context, e auth.Event) {
			if e.Kind != auth.SignedIn {
				return
			}
			report, err := coordinator.HandleSignIn(context.WithoutCancel(ctx), e.ProfileID, e.Email)
			if err != nil {
				slog.Warn("migration failed", "profile_id", e.ProfileID, "error", err)
				return
			}
			slog.Info("migration checked", "profile_id", e.ProfileID, "skipped", report.Skipped,
				"reason", report.Reason, "contributions", report.Contributions, "favorites", report.Favorites)
		})

		svc.Processor = proc
		svc.Accounts = accounts
	} else {
		svc.Processor = ledger.NewProcessor(store.New(device), engine, bus)
		slog.Info("No DATABASE_URL set, running local-only", "path", cfg.LocalStorePath)
	}

	// Create router
	mux := router.NewRouter(svc)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
