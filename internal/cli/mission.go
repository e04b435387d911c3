package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/wire"
)

// MissionCmd returns the mission command
func MissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mission",
		Short: "Inspect and manage agent missions",
	}

	cmd.AddCommand(missionListCmd())
	cmd.AddCommand(missionShowCmd())
	cmd.AddCommand(missionApproveCmd())

	return cmd
}

func missionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List missions",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			missionType, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")

			missions, err := wire.MissionService().ListMissions(context.Background(), primary.MissionFilters{
				Status: status,
				Type:   missionType,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list missions: %w", err)
			}

			if len(missions) == 0 {
				fmt.Println("No missions found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tATTEMPTS\tTRANSFER\tCREATED")
			fmt.Fprintln(w, "--\t----\t------\t--------\t--------\t-------")
			for _, item := range missions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					item.ID,
					item.Type,
					item.Status,
					item.Attempts,
					item.TransferID,
					item.CreatedAt.Format("2006-01-02 15:04"),
				)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().String("status", "", "Filter by status")
	cmd.Flags().String("type", "", "Filter by mission type")
	cmd.Flags().Int("limit", 50, "Maximum missions to show")
	return cmd
}

func missionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [mission-id]",
		Short: "Show one mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mission, err := wire.MissionService().GetMission(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get mission: %w", err)
			}

			fmt.Printf("ID:        %s\n", mission.ID)
			fmt.Printf("Type:      %s\n", mission.Type)
			fmt.Printf("Source:    %s\n", mission.Source)
			fmt.Printf("Status:    %s\n", mission.Status)
			fmt.Printf("Attempts:  %d\n", mission.Attempts)
			if mission.TransferID != "" {
				fmt.Printf("Transfer:  %s\n", mission.TransferID)
			}
			fmt.Printf("Input:     %s\n", mission.InputData)
			if mission.OutputData != "" {
				fmt.Printf("Output:    %s\n", mission.OutputData)
			}
			if mission.Error != "" {
				fmt.Printf("Error:     %s\n", mission.Error)
			}
			if mission.BlockedReason != "" {
				fmt.Printf("Blocked:   %s\n", mission.BlockedReason)
			}
			return nil
		},
	}
}

func missionApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [mission-id]",
		Short: "Approve a pending mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.MissionService().ApproveMission(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to approve mission: %w", err)
			}
			fmt.Printf("✓ Approved mission %s\n", args[0])
			return nil
		},
	}
}
