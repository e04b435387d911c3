// Package wire provides dependency injection for the solrelay agent.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	emailadapter "github.com/example/solrelay/internal/adapters/email"
	"github.com/example/solrelay/internal/adapters/sqlite"
	"github.com/example/solrelay/internal/app"
	"github.com/example/solrelay/internal/config"
	"github.com/example/solrelay/internal/db"
	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/ports/secondary"
)

var (
	cfg *config.Config

	agentLoop       *app.AgentLoop
	missionService  primary.MissionService
	transferService primary.TransferService
	blockService    primary.BlockService

	once sync.Once
)

// Config returns the singleton configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// AgentService returns the singleton AgentService instance.
func AgentService() primary.AgentService {
	once.Do(initServices)
	return agentLoop
}

// MissionService returns the singleton MissionService instance.
func MissionService() primary.MissionService {
	once.Do(initServices)
	return missionService
}

// TransferService returns the singleton TransferService instance.
func TransferService() primary.TransferService {
	once.Do(initServices)
	return transferService
}

// BlockService returns the singleton BlockService instance.
func BlockService() primary.BlockService {
	once.Do(initServices)
	return blockService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfg = config.Load()

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB.
	transferRepo := sqlite.NewTransferRepository(database)
	missionRepo := sqlite.NewMissionRepository(database)
	emailRepo := sqlite.NewEmailQueueRepository(database)
	eventRepo := sqlite.NewEventRepository(database)
	blockedRepo := sqlite.NewBlockedRepository(database)
	stateRepo := sqlite.NewStateRepository(database)

	// Outbound mail: SES when AWS credentials resolve, otherwise the
	// log-only dev sender.
	var sender secondary.EmailSender
	if ses, err := emailadapter.NewSESSender(context.Background()); err == nil {
		sender = ses
	} else {
		log.Printf("SES unavailable (%v), using dev sender", err)
		sender = emailadapter.NewDevSender()
	}

	// Application services.
	gateService := app.NewGateService(missionRepo, emailRepo, blockedRepo, cfg.GateLimits())
	missions := app.NewMissionService(missionRepo, transferRepo, gateService, nil)
	triggers := app.NewTriggerService(transferRepo, missions, gateService, cfg.Thresholds)
	dispatch := app.NewDispatchService(emailRepo, eventRepo, sender, cfg.FromEmail, cfg.EmailBatch)

	registry := app.NewExecutorRegistry()
	registry.Register("send_reminder", app.NewReminderExecutor(transferRepo, emailRepo, eventRepo, cfg.FromEmail, cfg.FrontendURL, cfg.DryRun))
	registry.Register("auto_reclaim", app.NewReclaimExecutor(transferRepo, eventRepo, cfg.DryRun))
	registry.Register("investigate_abuse", app.NewAbuseExecutor(eventRepo))

	agentLoop = app.NewAgentLoop(cfg, missionRepo, transferRepo, emailRepo, stateRepo,
		triggers, registry, dispatch, instanceID(), nil)
	missionService = missions
	transferService = app.NewTransferService(transferRepo, nil)
	blockService = app.NewBlockService(blockedRepo, nil)
}

// instanceID identifies this process in the leadership lease.
func instanceID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}
