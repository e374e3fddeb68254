// Package metrics exposes the hub's own Prometheus instrumentation:
// per-sensor read outcomes and the last overall health status. Collectors
// live on the default registry and are served at GET /metrics by both
// boundary adapters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sensorhub/sensorhub/internal/sensor"
)

// Read outcome label values.
const (
	OutcomeOK         = "ok"
	OutcomeTransient  = "transient"
	OutcomeUnexpected = "unexpected"
)

var (
	readsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensorhub_reads_total",
		Help: "Sensor read attempts by sensor id and outcome.",
	}, []string{"sensor", "outcome"})

	healthStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensorhub_health_status",
		Help: "Last overall health status: 0 healthy, 1 degraded, 2 unhealthy.",
	})

	sensorsRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensorhub_sensors_registered",
		Help: "Number of sensors loaded into the registry at startup.",
	})
)

// RecordRead counts one read attempt for the given sensor.
func RecordRead(id string, res sensor.Result) {
	outcome := OutcomeOK
	if !res.OK() {
		outcome = OutcomeUnexpected
		if res.Err.Kind == sensor.KindTransient {
			outcome = OutcomeTransient
		}
	}
	readsTotal.WithLabelValues(id, outcome).Inc()
}

// SetHealthStatus records the outcome of the latest health aggregation.
func SetHealthStatus(status string) {
	switch status {
	case "healthy":
		healthStatus.Set(0)
	case "degraded":
		healthStatus.Set(1)
	default:
		healthStatus.Set(2)
	}
}

// SetRegistered records the registry size after startup.
func SetRegistered(n int) {
	sensorsRegistered.Set(float64(n))
}
