package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aweris/keeper"
)

var rmCmd = &cobra.Command{
	Use:     "rm <key>...",
	Aliases: []string{"remove"},
	Short:   "Remove keys",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	return withKeeper(func(k *keeper.Keeper) error {
		for _, key := range args {
			if err := k.Remove(cmd.Context(), key); err != nil {
				return err
			}
		}
		return nil
	})
}
