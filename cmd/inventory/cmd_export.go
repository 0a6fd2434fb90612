package main

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump every stored record",
	Long: `Dump every stored record, internal attributes included.

Records are written in storage order, one entry per base resource or
secondary attribute.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	conn, closeFn, err := openConnector(ctx, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	records := []map[string]any{}
	for rec, err := range conn.ReadAll(ctx) {
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return render(cmd.OutOrStdout(), outputFormat, records)
}
