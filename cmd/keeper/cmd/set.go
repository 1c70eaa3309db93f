package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/aweris/keeper"
)

var setCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a value",
	Long:  "Store value under key, reading it from stdin when not given. Use --ttl to expire it.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSet,
}

func init() {
	setCmd.Flags().Duration("ttl", 0, "time to live (0 never expires)")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	ttl, err := cmd.Flags().GetDuration("ttl")
	if err != nil {
		return err
	}

	var value []byte
	if len(args) > 1 {
		value = []byte(args[1])
	} else {
		value, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	return withKeeper(func(k *keeper.Keeper) error {
		return k.Set(cmd.Context(), key, value, ttl)
	})
}
