package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/inventory/store"
	"github.com/jacentio/inventory/urn"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List resources matching a filter",
	Long: `List resources matching a filter.

A filter needs --urn, --account, or both --service and --type. Results
found through an index carry only the base record; pass --load to fetch
their secondary attributes as well.`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

var (
	queryURN          string
	queryAccountID    string
	queryRegion       string
	queryService      string
	queryResourceType string
	queryLoad         bool
)

func init() {
	rootCmd.AddCommand(queryCmd)
	addFilterFlags(queryCmd, &queryAccountID, &queryRegion, &queryService, &queryResourceType)
	queryCmd.Flags().StringVar(&queryURN, "urn", "", "Exact resource URN")
	queryCmd.Flags().BoolVar(&queryLoad, "load", false, "Fetch secondary attributes of each result")
}

// addFilterFlags registers the scope flags shared by query and reconcile.
func addFilterFlags(cmd *cobra.Command, accountID, region, service, resourceType *string) {
	cmd.Flags().StringVar(accountID, "account", "", "Account ID")
	cmd.Flags().StringVar(region, "region", "", "Region")
	cmd.Flags().StringVar(service, "service", "", "Service (e.g. ec2)")
	cmd.Flags().StringVar(resourceType, "type", "", "Resource type (e.g. vpc)")
}

func runQuery(cmd *cobra.Command, _ []string) error {
	f := store.Filter{
		AccountID:    queryAccountID,
		Region:       queryRegion,
		Service:      queryService,
		ResourceType: queryResourceType,
	}
	if queryURN != "" {
		u, err := urn.Parse(queryURN)
		if err != nil {
			return err
		}
		f.URN = &u
	}

	ctx := cmd.Context()
	conn, closeFn, err := openConnector(ctx, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	seq, err := conn.ReadResources(ctx, f)
	if err != nil {
		return err
	}

	views := []resourceView{}
	for r, err := range seq {
		if err != nil {
			return err
		}
		if queryLoad {
			if err := r.Load(ctx); err != nil {
				return err
			}
		}
		views = append(views, viewOf(r))
	}
	return render(cmd.OutOrStdout(), outputFormat, views)
}
