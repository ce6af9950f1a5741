package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joshp123/fellow-aiden/plugins/fellow"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show brewer display name and details",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(_ context.Context, client *fellow.Client) (any, error) {
			device := client.Device()
			result := make(map[string]any, len(device.Attributes)+1)
			for key, value := range device.Attributes {
				result[key] = value
			}
			result["display_name"] = client.DisplayName()
			return result, nil
		}),
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection, brewing and basket state",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(_ context.Context, client *fellow.Client) (any, error) {
			return client.Device().Status(), nil
		}),
	}
}
