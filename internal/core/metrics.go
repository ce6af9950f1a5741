package core

import (
	"fmt"
	"io"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var pluginIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]+$`)

// MetricsRegistry builds a registry from plugin collectors, plus a health
// gauge per plugin.
func MetricsRegistry(plugins []Plugin) (*prometheus.Registry, error) {
	if err := validatePlugins(plugins); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	health := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "aiden_plugin_health",
		Help: "Plugin health (1=healthy, 0.5=degraded, 0=error)",
	}, []string{"plugin", "version"})
	if err := registry.Register(health); err != nil {
		return nil, err
	}

	for _, plugin := range plugins {
		manifest := plugin.Manifest()
		health.WithLabelValues(manifest.PluginID, manifest.Version).Set(healthValue(plugin.Health()))
		for _, collector := range plugin.Collectors() {
			if err := registry.Register(collector); err != nil {
				return nil, fmt.Errorf("register %s collector: %w", manifest.PluginID, err)
			}
		}
	}

	return registry, nil
}

// WriteText gathers the registry and writes the Prometheus text format.
func WriteText(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

func validatePlugins(plugins []Plugin) error {
	seen := make(map[string]bool)
	for _, plugin := range plugins {
		id := plugin.ID()
		if !pluginIDPattern.MatchString(id) {
			return fmt.Errorf("plugin id %q does not match %s", id, pluginIDPattern.String())
		}
		if manifest := plugin.Manifest(); manifest.PluginID != id {
			return fmt.Errorf("plugin id mismatch: id=%q manifest=%q", id, manifest.PluginID)
		}
		if seen[id] {
			return fmt.Errorf("duplicate plugin id: %s", id)
		}
		seen[id] = true
	}
	return nil
}

func healthValue(status HealthStatus) float64 {
	switch status {
	case HealthHealthy:
		return 1
	case HealthDegraded:
		return 0.5
	default:
		return 0
	}
}
