package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) walletCmd() *cobra.Command {
	var (
		set        int64
		defaultBal int64
	)
	cmd := &cobra.Command{
		Use:   "wallet <user-id>",
		Short: "Show or set a member's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			user := args[0]
			if cmd.Flags().Changed("set") {
				if set < 0 {
					return fmt.Errorf("balance cannot be negative: %d", set)
				}
				if err := s.SetBalance(cmd.Context(), user, set); err != nil {
					return fmt.Errorf("set balance: %w", err)
				}
			}
			bal, err := s.Balance(cmd.Context(), user, defaultBal)
			if err != nil {
				return fmt.Errorf("read balance: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", user, bal)
			return nil
		},
	}
	cmd.Flags().Int64Var(&set, "set", 0, "Overwrite the balance")
	cmd.Flags().Int64Var(&defaultBal, "default", 1000, "Balance for wallets that do not exist yet")
	return cmd
}

// releaseCmd clears a confinement from the database only. Threads stay as they
// are on Discord until the member is confined again.
func (a *app) releaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <user-id>",
		Short: "Remove a stuck confinement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			user := args[0]
			if err := s.DeletePrisoner(ctx, user); err != nil {
				return fmt.Errorf("delete prisoner: %w", err)
			}
			rec, err := s.Solitary(ctx, user)
			if err != nil {
				return fmt.Errorf("read solitary: %w", err)
			}
			if rec != nil && rec.Active() {
				rec.ArchivedAt = time.Now()
				if err := s.PutSolitary(ctx, *rec); err != nil {
					return fmt.Errorf("archive solitary: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s released\n", user)
			return nil
		},
	}
}
