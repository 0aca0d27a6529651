package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"boltalka/internal/auth"
	"boltalka/internal/commands"
	"boltalka/internal/config"
	"boltalka/internal/http"
	"boltalka/internal/push"
	"boltalka/internal/storage"
	"boltalka/internal/ws"
)

func run(ctx context.Context, logger *zap.SugaredLogger) error {
	addUser := flag.String("add-user", "", "Name of the user to create (a random password is generated and printed)")
	email := flag.String("email", "", "Email for -add-user")
	flag.Parse()

	cfg, err := config.Load(*addUser != "")
	if err != nil {
		return err
	}

	if *addUser != "" {
		return commands.AddUser(ctx, *addUser, *email, cfg)
	}

	store, err := storage.NewBboltStorage(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	authenticator, err := auth.NewAuthenticator(ctx, auth.Config{
		Secret:      cfg.JWTSecret,
		TokenExpiry: cfg.TokenExpiry,
	}, store)
	if err != nil {
		return err
	}

	notifier := push.NewNotifier(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Contact:         cfg.PushContact,
	}, store, logger)
	if !notifier.Enabled() {
		logger.Info("web push disabled, VAPID keys not configured")
	}

	hub := ws.NewHub(store, notifier, logger)
	wsServer := ws.NewServer(authenticator, hub, logger)
	server := http.NewServer(authenticator, wsServer, store, cfg.Addr, logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalw("application error", "error", err)
	}
}
