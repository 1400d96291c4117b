package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sebitservices/pedidos-reservas/internal/config"
	"github.com/sebitservices/pedidos-reservas/internal/gateway"
	"github.com/sebitservices/pedidos-reservas/internal/handlers"
	"github.com/sebitservices/pedidos-reservas/internal/notify"
	"github.com/sebitservices/pedidos-reservas/internal/reconcile"
	"github.com/sebitservices/pedidos-reservas/internal/store"
)

const contactRateWindow = 30 * time.Second

func main() {
	// Configure slog as early as possible in main.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		slog.Error("Failed to init schema", "error", err)
		os.Exit(1)
	}

	// 3. Payment gateway client
	mp, err := gateway.NewClient(cfg.MPAccessToken, gateway.URLs{
		Success:      cfg.SuccessURL,
		Pending:      cfg.PendingURL,
		Failure:      cfg.FailureURL,
		Notification: cfg.NotificationURL,
	})
	if err != nil {
		slog.Error("Failed to initialize Mercado Pago client", "error", err)
		os.Exit(1)
	}

	// 4. Notifier (relay connection verified lazily on first send)
	mailer, err := notify.NewMailer(cfg.Email)
	if err != nil {
		slog.Error("Failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	// 5. Reconciliation engine + handlers
	engine := reconcile.NewEngine(db, mailer, mp, logger)
	handler := &handlers.Handler{
		Store:   db,
		Gateway: mp,
		Engine:  engine,
		Mailer:  mailer,
	}
	router := handlers.NewRouter(handler, cfg.AllowedOrigins, contactRateWindow)

	// 6. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
