package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/sensorhub/sensorhub/internal/health"
	"github.com/sensorhub/sensorhub/internal/metrics"
	"github.com/sensorhub/sensorhub/internal/sensor"
)

// LegacyType is the sensor type the legacy temp-and-humid endpoint resolves.
const LegacyType = "DHT22"

// SensorSource is the slice of the registry the dispatcher consumes.
type SensorSource interface {
	Get(id string) (sensor.Sensor, bool)
	List() []sensor.Sensor
	FindByType(typeTag string) (sensor.Sensor, bool)
}

// Service translates boundary requests into registry and aggregator calls
// and decides the HTTP status for each outcome. Both adapters — the stdlib
// mux and the gin engine — delegate here so the core logic exists once.
type Service struct {
	sensors SensorSource
	key     string
	header  string
}

// NewService creates a Service over the given sensors. key is the expected
// credential read from the named header; an empty key disables the auth
// check.
func NewService(sensors SensorSource, key, header string) *Service {
	return &Service{sensors: sensors, key: key, header: header}
}

// AuthHeader returns the header name credentials are presented in.
func (s *Service) AuthHeader() string { return s.header }

// Authorized reports whether the presented credential matches the
// configured key. Stateless, no lockout: an exact match or nothing.
func (s *Service) Authorized(presented string) bool {
	if s.key == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.key)) == 1
}

// Health runs a full aggregation pass. Never authenticated.
func (s *Service) Health() (int, HealthResponse) {
	rep := health.CheckAll(s.sensors)

	code := http.StatusOK
	if !rep.OK() {
		code = http.StatusServiceUnavailable
	}
	return code, HealthResponse{
		Status:  rep.Status,
		Sensors: rep.Sensors,
		Summary: rep.Summary,
	}
}

// ListSensors returns static info for every registered sensor, in
// registration order, without touching hardware.
func (s *Service) ListSensors() (int, ListResponse) {
	all := s.sensors.List()
	infos := make([]sensor.Info, 0, len(all))
	for _, sn := range all {
		infos = append(infos, sn.Info())
	}
	return http.StatusOK, ListResponse{Sensors: infos, Count: len(infos)}
}

// SensorData reads one sensor and returns its measurements.
func (s *Service) SensorData(id string) (int, any) {
	sn, ok := s.sensors.Get(id)
	if !ok {
		return http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("Sensor %s not found", id)}
	}
	return readData(sn)
}

// SensorInfo returns static info for one sensor.
func (s *Service) SensorInfo(id string) (int, any) {
	sn, ok := s.sensors.Get(id)
	if !ok {
		return http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("Sensor %s not found", id)}
	}
	return http.StatusOK, sn.Info()
}

// LegacySensorData serves the historical temp-and-humid endpoint: the first
// registered sensor of the legacy type, read exactly like SensorData.
func (s *Service) LegacySensorData() (int, any) {
	sn, ok := s.sensors.FindByType(LegacyType)
	if !ok {
		return http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("No %s sensor configured", LegacyType)}
	}
	return readData(sn)
}

// readData performs one read and maps the outcome: measurements with 200,
// or the error message with 500. Transient and unexpected failures look
// the same to a data caller.
func readData(sn sensor.Sensor) (int, any) {
	res := sn.Read()
	metrics.RecordRead(sn.Info().ID, res)
	if !res.OK() {
		return http.StatusInternalServerError, ErrorResponse{Error: res.Err.Error()}
	}
	return http.StatusOK, res.Measurements
}
