// Package cli contains the cobra command constructors for the
// solrelay binary.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	httpserver "github.com/example/solrelay/internal/http"
	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/wire"
)

// AgentCmd returns the agent command
func AgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run and inspect the autonomous agent",
		Long:  `The agent evaluates triggers, executes missions, and drains the email queue on a fixed interval.`,
	}

	cmd.AddCommand(agentRunCmd())
	cmd.AddCommand(agentStatusCmd())
	cmd.AddCommand(agentTickCmd())

	return cmd
}

func agentRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			agent := wire.AgentService()

			if err := agent.Startup(context.Background()); err != nil {
				return fmt.Errorf("startup failed: %w", err)
			}

			printBanner(cfg.DryRun, cfg.ReclaimEnabled, cfg.PollInterval)

			server := httpserver.NewServer(agent, cfg)
			go func() {
				if err := server.Start(); err != nil {
					log.Printf("health server stopped: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(cfg.PollInterval)
			defer ticker.Stop()

			// First tick immediately, then on the interval.
			runOnce(ctx, agent)
			for {
				select {
				case <-ctx.Done():
					fmt.Println("\nagent stopped")
					return nil
				case <-ticker.C:
					runOnce(ctx, agent)
				}
			}
		},
	}
}

func runOnce(ctx context.Context, agent primary.AgentService) {
	result, err := agent.RunTick(ctx)
	if err != nil {
		log.Printf("tick failed: %v", err)
		return
	}
	if result.Skipped {
		return
	}
	log.Printf("tick: %d created, %d ok, %d skipped, %d failed, %d emails sent, %d recovered",
		result.MissionsCreated, result.MissionsOK, result.MissionsSkipped,
		result.MissionsFailed, result.EmailsSent, result.StaleRecovered)
}

func printBanner(dryRun, reclaimEnabled bool, pollInterval time.Duration) {
	mode := color.New(color.FgGreen).Sprint("LIVE")
	if dryRun {
		mode = color.New(color.FgYellow).Sprint("DRY RUN")
	}
	reclaim := "Disabled"
	if reclaimEnabled {
		reclaim = "Enabled"
	}

	fmt.Println("SolRelay Autonomous Agent")
	fmt.Printf("  Mode:          %s\n", mode)
	fmt.Printf("  Poll interval: %s\n", pollInterval)
	fmt.Printf("  Reclaim:       %s\n", reclaim)
	fmt.Println()
}

func agentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the agent's queue and loop state",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := wire.AgentService().Status(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			running := color.New(color.FgYellow).Sprint("idle")
			if status.Running {
				running = color.New(color.FgGreen).Sprint("running")
			}

			fmt.Printf("Agent:             %s\n", running)
			if !status.LastLoopAt.IsZero() {
				fmt.Printf("Last loop:         %s\n", status.LastLoopAt.Format(time.RFC3339))
			}
			fmt.Printf("Pending missions:  %d\n", status.PendingMissions)
			fmt.Printf("Running missions:  %d\n", status.RunningMissions)
			fmt.Printf("Pending emails:    %d\n", status.PendingEmails)
			fmt.Printf("Pending transfers: %d\n", status.PendingTransfers)
			fmt.Printf("Reminders today:   %d\n", status.RemindersToday)
			return nil
		},
	}
}

func agentTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single loop iteration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := wire.AgentService().RunTick(context.Background())
			if err != nil {
				return fmt.Errorf("tick failed: %w", err)
			}

			if result.Skipped {
				fmt.Println("tick skipped (another instance holds the lease)")
				return nil
			}

			fmt.Printf("missions: %d created, %d ok, %d skipped, %d failed\n",
				result.MissionsCreated, result.MissionsOK, result.MissionsSkipped, result.MissionsFailed)
			fmt.Printf("emails:   %d sent, %d failed\n", result.EmailsSent, result.EmailsFailed)
			fmt.Printf("recovered %d stale missions\n", result.StaleRecovered)
			for _, errMsg := range result.Errors {
				fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("error:"), errMsg)
			}
			return nil
		},
	}
}
