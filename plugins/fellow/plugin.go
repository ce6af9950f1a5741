package fellow

import (
	"github.com/joshp123/fellow-aiden/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

const pluginVersion = "0.1.0"

// Plugin exposes a connected client through the core plugin contract.
type Plugin struct {
	client *Client
}

var _ core.Plugin = Plugin{}

func NewPlugin(client *Client) Plugin {
	return Plugin{client: client}
}

func (p Plugin) ID() string {
	return "fellow"
}

func (p Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    "fellow",
		DisplayName: "Fellow Aiden",
		Version:     pluginVersion,
	}
}

func (p Plugin) Collectors() []prometheus.Collector {
	collectors := SessionCollectors()
	if p.client == nil {
		return collectors
	}
	return append(collectors, NewMetricsCollector(p.client))
}

func (p Plugin) Health() core.HealthStatus {
	switch {
	case p.client == nil:
		return core.HealthError
	case !p.client.Device().IsConnected:
		return core.HealthDegraded
	default:
		return core.HealthHealthy
	}
}

func (p Plugin) HealthMessage() string {
	switch p.Health() {
	case core.HealthError:
		return "fellow client not configured"
	case core.HealthDegraded:
		return "brewer is offline"
	default:
		return ""
	}
}
