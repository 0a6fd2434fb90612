package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/inventory/urn"
)

var getCmd = &cobra.Command{
	Use:   "get <urn>",
	Short: "Show one resource with its secondary attributes",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	u, err := urn.Parse(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	conn, closeFn, err := openConnector(ctx, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	r, err := conn.ReadResource(ctx, u)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat, viewOf(r))
}
