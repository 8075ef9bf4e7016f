package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/liuyint/policydesk/internal/config"
	"github.com/liuyint/policydesk/internal/handler"
	"github.com/liuyint/policydesk/internal/model/scenario"
	"github.com/liuyint/policydesk/internal/service/ai"
	recordService "github.com/liuyint/policydesk/internal/service/record"
	sessionService "github.com/liuyint/policydesk/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	catalog, err := scenario.LoadFile(cfg.Experiment.ScenarioPath)
	if err != nil {
		log.Fatalf("failed to load scenario catalog: %v", err)
	}
	log.Printf("loaded %d scenarios from %s", catalog.Len(), cfg.Experiment.ScenarioPath)

	records := recordService.NewWriter(cfg.Experiment.LogPath)
	if err := records.Init(); err != nil {
		log.Fatalf("failed to initialize session log: %v", err)
	}

	// Initialize the AI teammate gateway. The server still runs without
	// credentials; every exchange then carries the in-band gateway error.
	var teammate sessionService.Teammate
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check the Ark related environment variables")
		} else {
			log.Println("AI service initialized successfully")
			teammate = aiService
		}
	} else {
		log.Println("Ark credentials not configured, chat exchanges will record the gateway error")
	}

	sessions := sessionService.NewManager(catalog, teammate, records)
	router := handler.NewRouter(sessions)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Policy Desk backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
