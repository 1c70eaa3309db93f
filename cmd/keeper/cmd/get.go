package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/keeper"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored for a key",
	Long:  "Write the value stored for key to stdout. Exits non-zero when the key is missing or expired.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	return withKeeper(func(k *keeper.Keeper) error {
		value, err := k.Get(cmd.Context(), key)
		if errors.Is(err, keeper.ErrNotFound) {
			return fmt.Errorf("%s: not found", key)
		}
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(value)
		return err
	})
}
