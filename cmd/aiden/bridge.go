package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/joshp123/fellow-aiden/internal/config"
	"github.com/joshp123/fellow-aiden/internal/core"
	"github.com/joshp123/fellow-aiden/plugins/fellow"
)

var (
	errMQTTNotConfigured = fmt.Errorf("mqtt is not configured: set %s", config.EnvMQTTBroker)
	errBlobNotConfigured = fmt.Errorf("blob storage is not configured: set %s and %s", config.EnvBlobEndpoint, config.EnvBlobBucket)
)

const backupObject = "profiles.json"

func (a *app) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the brewer snapshot in Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			plugin := fellow.NewPlugin(client)
			if msg := plugin.HealthMessage(); msg != "" {
				a.logger.Warn("plugin not healthy",
					"plugin", plugin.Manifest().DisplayName,
					"health", plugin.Health(),
					"message", msg)
			}
			registry, err := core.MetricsRegistry([]core.Plugin{plugin})
			if err == nil {
				err = core.WriteText(a.out.w, registry)
			}
			if err != nil {
				a.out.printError(err)
			}
			return nil
		},
	}
}

func (a *app) publishCmd() *cobra.Command {
	var retain bool
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the brewer status to MQTT",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(_ context.Context, client *fellow.Client) (any, error) {
			if a.cfg.MQTT == nil {
				return nil, errMQTTNotConfigured
			}
			status := client.Device().Status()
			payload, err := json.Marshal(status)
			if err != nil {
				return nil, err
			}

			publisher, err := a.dialMQTT(*a.cfg.MQTT)
			if err != nil {
				return nil, err
			}
			defer publisher.Close()

			topic := publisher.Topic(client.DeviceID(), "status")
			if err := publisher.Publish(topic, payload, retain); err != nil {
				return nil, err
			}
			a.logger.Info("status published", "topic", topic, "retain", retain)
			return envelope{
				Success: true,
				Message: fmt.Sprintf("Status published to %s", topic),
				Result:  status,
			}, nil
		}),
	}
	cmd.Flags().BoolVar(&retain, "retain", true, "ask the broker to retain the message")
	return cmd
}

func (a *app) profilesBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Save the profile listing to S3-compatible storage",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			if a.cfg.Blob == nil {
				return nil, errBlobNotConfigured
			}
			store, err := a.openStore(*a.cfg.Blob)
			if err != nil {
				return nil, err
			}

			profiles, err := client.Profiles(ctx)
			if err != nil {
				return nil, err
			}
			data, err := json.MarshalIndent(profileListing(profiles), "", "  ")
			if err != nil {
				return nil, err
			}

			key := path.Join(client.DeviceID(), backupObject)
			if err := store.Save(ctx, key, data); err != nil {
				return nil, fmt.Errorf("save backup: %w", err)
			}
			location := store.Location(key)
			a.logger.Info("profiles backed up", "location", location, "count", len(profiles))
			return envelope{
				Success: true,
				Message: fmt.Sprintf("%d profiles saved to %s", len(profiles), location),
			}, nil
		}),
	}
}
