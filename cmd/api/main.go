package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"taskhub.org/internal/auth"
	"taskhub.org/internal/config"
	"taskhub.org/internal/httpapi"
	"taskhub.org/internal/obs"
	"taskhub.org/internal/store/pg"
	"taskhub.org/internal/task"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := pg.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	issuer, err := auth.NewIssuer(cfg.Auth.SigningSecret, auth.WithIssuerName(cfg.Auth.IssuerName))
	if err != nil {
		log.Fatalf("issuer: %v", err)
	}
	authSvc, err := auth.NewService(store.Users(), issuer, auth.WithAccessTTL(cfg.Auth.TokenTTL))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	taskSvc, err := task.NewService(store.Tasks())
	if err != nil {
		log.Fatalf("task service: %v", err)
	}

	api := httpapi.New(authSvc, taskSvc, httpapi.ReadyProbe{DB: store.DB()}, version)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	log.Printf("Starting taskhub-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
