package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacentio/inventory/urn"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Delete stored resources that were not observed",
	Long: `Delete every stored resource of one type in one account and region
whose URN is not listed in --keep.

Without --keep every resource in the scope is deleted.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

var (
	reconcileAccountID    string
	reconcileRegion       string
	reconcileService      string
	reconcileResourceType string
	reconcileKeep         string
)

func init() {
	rootCmd.AddCommand(reconcileCmd)
	addFilterFlags(reconcileCmd, &reconcileAccountID, &reconcileRegion, &reconcileService, &reconcileResourceType)
	reconcileCmd.Flags().StringVar(&reconcileKeep, "keep", "", "Comma-separated URNs to keep")
}

type reconcileResult struct {
	Deleted int `json:"deleted" yaml:"deleted"`
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if reconcileService == "" || reconcileResourceType == "" || reconcileAccountID == "" || reconcileRegion == "" {
		return errors.New("--service, --type, --account and --region are required")
	}
	keep, err := parseURNList(reconcileKeep)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	conn, closeFn, err := openConnector(ctx, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	deleted, err := conn.Reconcile(ctx, reconcileService, reconcileResourceType, reconcileAccountID, reconcileRegion, keep)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat, reconcileResult{Deleted: deleted})
}

func parseURNList(s string) ([]urn.URN, error) {
	var out []urn.URN
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		u, err := urn.Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
