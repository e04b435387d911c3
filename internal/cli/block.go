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

// BlockCmd returns the block command
func BlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Manage the email and wallet blocklist",
	}

	cmd.AddCommand(blockAddCmd())
	cmd.AddCommand(blockRemoveCmd())
	cmd.AddCommand(blockListCmd())

	return cmd
}

func blockAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [email|wallet] [value]",
		Short: "Block an entity from receiving agent mail",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			until, _ := cmd.Flags().GetString("until")

			req := primary.BlockEntityRequest{
				EntityType:  args[0],
				EntityValue: args[1],
				Reason:      reason,
				BlockedBy:   "cli",
			}
			if until != "" {
				t, err := time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("invalid --until, want RFC3339: %w", err)
				}
				req.BlockedUntil = t
			}

			entity, err := wire.BlockService().BlockEntity(context.Background(), req)
			if err != nil {
				return fmt.Errorf("failed to block: %w", err)
			}

			fmt.Printf("✓ Blocked %s %s (%s)\n", entity.EntityType, entity.EntityValue, entity.ID)
			return nil
		},
	}

	cmd.Flags().String("reason", "", "Why this entity is blocked")
	cmd.Flags().String("until", "", "Block expiry (RFC3339); permanent if omitted")
	return cmd
}

func blockRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [email|wallet] [value]",
		Short: "Remove a block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.BlockService().UnblockEntity(context.Background(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to unblock: %w", err)
			}
			fmt.Printf("✓ Unblocked %s %s\n", args[0], args[1])
			return nil
		},
	}
}

func blockListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blocked entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, err := wire.BlockService().ListBlocked(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list blocked entities: %w", err)
			}

			if len(entities) == 0 {
				fmt.Println("No blocked entities.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tVALUE\tREASON\tUNTIL")
			fmt.Fprintln(w, "--\t----\t-----\t------\t-----")
			for _, item := range entities {
				until := "permanent"
				if !item.BlockedUntil.IsZero() {
					until = item.BlockedUntil.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					item.ID, item.EntityType, item.EntityValue, item.Reason, until)
			}
			w.Flush()
			return nil
		},
	}
}
