package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HealthStatus represents plugin health states for status reporting.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthDegraded HealthStatus = "DEGRADED"
	HealthError    HealthStatus = "ERROR"
)

// Manifest describes a plugin for status output and metric labels.
type Manifest struct {
	PluginID    string
	DisplayName string
	Version     string
}

// Plugin is the contract a device integration implements to take part in
// metrics export.
type Plugin interface {
	ID() string
	Manifest() Manifest
	Collectors() []prometheus.Collector
	Health() HealthStatus
	HealthMessage() string
}
