package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/solrelay/internal/ports/primary"
	"github.com/example/solrelay/internal/wire"
)

// TransferCmd returns the transfer command
func TransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Inspect escrowed transfers",
	}

	cmd.AddCommand(transferListCmd())
	cmd.AddCommand(transferShowCmd())

	return cmd
}

func transferListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			transfers, err := wire.TransferService().ListTransfers(context.Background(), primary.TransferFilters{
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list transfers: %w", err)
			}

			if len(transfers) == 0 {
				fmt.Println("No transfers found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tAMOUNT\tREMINDERS\tCREATED\tEXPIRES")
			fmt.Fprintln(w, "--\t------\t------\t---------\t-------\t-------")
			for _, item := range transfers {
				fmt.Fprintf(w, "%s\t%s\t%g %s\t%d\t%s\t%s\n",
					item.ID,
					item.Status,
					item.Amount,
					item.Token,
					item.RemindersSent,
					item.CreatedAt.Format("2006-01-02 15:04"),
					item.ExpiresAt.Format("2006-01-02 15:04"),
				)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().String("status", "", "Filter by status (pending, claimed, expired, reclaimed)")
	cmd.Flags().Int("limit", 50, "Maximum transfers to show")
	return cmd
}

func transferShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [transfer-id]",
		Short: "Show one transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transfer, err := wire.TransferService().GetTransfer(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get transfer: %w", err)
			}

			fmt.Printf("ID:               %s\n", transfer.ID)
			fmt.Printf("Status:           %s\n", transfer.Status)
			fmt.Printf("Amount:           %g %s\n", transfer.Amount, transfer.Token)
			fmt.Printf("Sender:           %s\n", transfer.SenderPubkey)
			fmt.Printf("Reminders sent:   %d\n", transfer.RemindersSent)
			fmt.Printf("Reclaim attempts: %d\n", transfer.ReclaimAttempts)
			fmt.Printf("Created:          %s\n", transfer.CreatedAt.Format(time.RFC3339))
			fmt.Printf("Expires:          %s\n", transfer.ExpiresAt.Format(time.RFC3339))
			if !transfer.ClaimedAt.IsZero() {
				fmt.Printf("Claimed:          %s\n", transfer.ClaimedAt.Format(time.RFC3339))
			}
			if !transfer.ReclaimedAt.IsZero() {
				fmt.Printf("Reclaimed:        %s\n", transfer.ReclaimedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
