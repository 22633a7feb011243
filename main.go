package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/LuciG420/bsky-dm-cli/api"
	"github.com/LuciG420/bsky-dm-cli/bsky"
	"github.com/LuciG420/bsky-dm-cli/config"
	"github.com/LuciG420/bsky-dm-cli/daemon"
	"github.com/LuciG420/bsky-dm-cli/topic"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := bsky.NewClient(cfg.Host)
	session, err := client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		log.Fatalf("bsky login: %v", err)
	}
	log.WithField("did", session.DID).Infof("Successfully authenticated with Bluesky as %s", session.Handle)

	sink, err := topic.NewAbly(cfg.AblyKey)
	if err != nil {
		log.Fatalf("ably: %v", err)
	}

	logger := log.StandardLogger()
	d := daemon.New(
		bsky.NewPostStream(client, cfg.PollInterval),
		bsky.NewNotificationStream(client, cfg.PollInterval),
		sink,
		logger,
		daemon.Config{Backoff: cfg.Backoff},
	)

	e := echo.New()
	e.Use(echoprometheus.NewMiddleware("bridge"))
	e.GET("/metrics", echoprometheus.NewHandler())
	api.Register(e, d, logger)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("ops server stopped")
		}
	}()

	runErr := d.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("ops server shutdown")
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("daemon: %v", runErr)
	}
	log.Info("daemon stopped")
}
