package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/keeper"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKeeper(func(k *keeper.Keeper) error {
			if err := k.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Cleared %s\n", k.Root())
			return nil
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired entries now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKeeper(func(k *keeper.Keeper) error {
			return k.Cleanup(cmd.Context())
		})
	},
}

func init() {
	rootCmd.AddCommand(clearCmd, cleanupCmd)
}
