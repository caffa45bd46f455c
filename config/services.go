package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeAgendaWarmer runs the agenda cache warmer.
	ServiceModeAgendaWarmer ServiceMode = "agenda-warmer"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeAgendaWarmer,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeAgendaWarmer:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, agenda-warmer)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WarmerConfig contains agenda cache warmer configuration.
type WarmerConfig struct {
	// Interval is the warmer tick interval.
	Interval time.Duration `env:"AGENDA_WARMER_INTERVAL" envDefault:"1m"`

	// Ranges are the named ranges refreshed on each tick.
	Ranges []string `env:"AGENDA_WARMER_RANGES" envDefault:"today,next3days,week"`

	// Concurrency bounds how many ranges are fetched at once.
	Concurrency int `env:"AGENDA_WARMER_CONCURRENCY" envDefault:"2"`

	// Timeout bounds a single tick.
	Timeout time.Duration `env:"AGENDA_WARMER_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to warmer configuration values.
func (w *WarmerConfig) Sanitize() {
	if w.Interval < 5*time.Second {
		w.Interval = 5 * time.Second
	}
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.Timeout <= 0 {
		w.Timeout = 30 * time.Second
	}
	ranges := w.Ranges[:0]
	for _, r := range w.Ranges {
		if r = strings.TrimSpace(r); r != "" {
			ranges = append(ranges, r)
		}
	}
	w.Ranges = ranges
}
