package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhristev/cvchat/config"
	"github.com/mhristev/cvchat/pkg/otel"
	"github.com/mhristev/cvchat/server"
)

func main() {
	portFlag := flag.Int("port", 8080, "server port")
	addressFlag := flag.String("address", "", "server address")
	configFlag := flag.String("config", "config.yaml", "configuration path")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Parse(*configFlag, logger)

	if err != nil {
		log.Fatalf("failed to parse configuration: %v", err)
	}

	cfg.Address = fmt.Sprintf("%s:%d", *addressFlag, *portFlag)

	if err := otel.Setup(cfg.AppName, cfg.Version); err != nil {
		log.Printf("warning: failed to setup OpenTelemetry: %v", err)
	}

	serverCfg := server.Config{
		Version: cfg.Version,

		Chat:    cfg.Chain,
		Contact: cfg.Contact,

		Logger: logger,
	}

	// Leave the interface nil when no tracking storage is configured, so the
	// endpoint's nil check works instead of trapping a typed nil.
	if cfg.Tracking != nil {
		serverCfg.Tracking = cfg.Tracking
	}

	handler := server.New(serverCfg)

	s := &http.Server{
		Addr:    cfg.Address,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server listening on %s", cfg.Address)

		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
}
