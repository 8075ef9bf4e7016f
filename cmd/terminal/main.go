package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/liuyint/policydesk/internal/config"
	"github.com/liuyint/policydesk/internal/model/scenario"
	"github.com/liuyint/policydesk/internal/service/ai"
	recordService "github.com/liuyint/policydesk/internal/service/record"
	sessionService "github.com/liuyint/policydesk/internal/service/session"
	"github.com/liuyint/policydesk/internal/terminal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	catalog, err := scenario.LoadFile(cfg.Experiment.ScenarioPath)
	if err != nil {
		log.Fatalf("failed to load scenario catalog: %v", err)
	}

	records := recordService.NewWriter(cfg.Experiment.LogPath)
	if err := records.Init(); err != nil {
		log.Fatalf("failed to initialize session log: %v", err)
	}

	var teammate sessionService.Teammate
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
		} else {
			teammate = aiService
		}
	} else {
		log.Println("Ark credentials not configured, chat exchanges will record the gateway error")
	}

	runner := &terminal.Runner{
		In:       os.Stdin,
		Out:      os.Stdout,
		Catalog:  catalog,
		Teammate: teammate,
		Records:  records,
		LogPath:  records.Path(),
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatalf("experiment aborted: %v", err)
	}
}
