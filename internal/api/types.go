package api

import (
	"github.com/sensorhub/sensorhub/internal/health"
	"github.com/sensorhub/sensorhub/internal/sensor"
)

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Sensors map[string]string `json:"sensors"`
	Summary health.Summary    `json:"summary"`
}

// ListResponse is the payload for GET /api/sensors.
type ListResponse struct {
	Sensors []sensor.Info `json:"sensors"`
	Count   int           `json:"count"`
}

// ErrorResponse is the generic JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
