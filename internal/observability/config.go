package observability

import (
	"os"

	"resumeforge/internal/config"
)

const defaultServiceName = "resumeforge"

// GetObservabilityConfig derives the manager settings from the application config. A nil
// config gives console output with Prometheus on :9090, which is what tests and local
// runs want.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    defaultServiceName,
			ServiceVersion: version,
			Enabled:        true,
			ConsoleOutput:  true,
			PrettyPrint:    true,
			SampleRate:     1.0,
			Prometheus:     PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9090"},
		}
	}

	obs := cfg.Observability
	out := ObservabilityConfig{
		ServiceName:    obs.ServiceName,
		ServiceVersion: obs.ServiceVersion,
		Enabled:        obs.Enabled,
		ConsoleOutput:  obs.ConsoleOutput || obs.Console.Enabled,
		PrettyPrint:    obs.Console.PrettyPrint,
		SampleRate:     obs.SampleRate,
		AIProvider:     cfg.AI.Provider,
		AIModel:        cfg.AI.Model,
		Prometheus: PrometheusConfig{
			Enabled:  obs.Prometheus.Enabled,
			Endpoint: obs.Prometheus.Endpoint,
			Port:     obs.Prometheus.Port,
		},
	}
	if out.ServiceName == "" {
		out.ServiceName = defaultServiceName
	}
	if out.ServiceVersion == "" {
		out.ServiceVersion = version
	}
	return out
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "local"
	}
	return name
}
