package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/inventory/urn"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <urn>...",
	Short: "Delete resources and their secondary attributes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	targets := make([]urn.URN, 0, len(args))
	for _, arg := range args {
		u, err := urn.Parse(arg)
		if err != nil {
			return err
		}
		targets = append(targets, u)
	}

	ctx := cmd.Context()
	conn, closeFn, err := openConnector(ctx, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	for _, u := range targets {
		if err := conn.DeleteResource(ctx, u); err != nil {
			return err
		}
		logger.Info("deleted resource", "urn", u.String())
	}
	return nil
}
