package health

import (
	"fmt"

	"github.com/sensorhub/sensorhub/internal/metrics"
	"github.com/sensorhub/sensorhub/internal/sensor"
)

// Overall status values, in order of decreasing health.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Lister is the slice of the registry the aggregator needs.
type Lister interface {
	List() []sensor.Sensor
}

// Summary holds the per-status counts of one aggregation pass.
type Summary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
}

// Report is the outcome of one CheckAll pass.
type Report struct {
	Status  string            `json:"status"`
	Sensors map[string]string `json:"sensors"`
	Summary Summary           `json:"summary"`
}

// OK reports whether the overall status maps to HTTP 200 at the boundary.
func (r Report) OK() bool { return r.Status == StatusHealthy }

// CheckAll reads every registered sensor exactly once and reduces the
// outcomes to one overall status:
//
//	no unhealthy sensors        → healthy
//	some healthy, some not      → degraded
//	no healthy sensors          → unhealthy
//
// An empty registry lands in the last bucket: a hub serving zero sensors is
// not doing its job. Both transient and unexpected read failures count as
// unhealthy; the distinction survives only in the per-sensor status text.
// There is no retry and no caching — every call is a fresh single read per
// sensor.
func CheckAll(reg Lister) Report {
	rep := Report{Sensors: make(map[string]string)}

	for _, s := range reg.List() {
		id := s.Info().ID
		rep.Summary.Total++

		status, ok := readStatus(s)
		rep.Sensors[id] = status
		if ok {
			rep.Summary.Healthy++
		} else {
			rep.Summary.Unhealthy++
		}
	}

	switch {
	case rep.Summary.Unhealthy == 0 && rep.Summary.Healthy > 0:
		rep.Status = StatusHealthy
	case rep.Summary.Healthy > 0:
		rep.Status = StatusDegraded
	default:
		rep.Status = StatusUnhealthy
	}

	metrics.SetHealthStatus(rep.Status)
	return rep
}

// readStatus performs one read and renders the per-sensor status string.
// The contract promises reads never panic, but a violation must not abort
// the whole aggregation pass, so the read is fenced with a recover too.
func readStatus(s sensor.Sensor) (status string, healthy bool) {
	defer func() {
		if p := recover(); p != nil {
			status, healthy = fmt.Sprintf("error: %v", p), false
		}
	}()

	res := s.Read()
	metrics.RecordRead(s.Info().ID, res)
	if res.OK() {
		return StatusHealthy, true
	}
	return fmt.Sprintf("%s: %s", StatusUnhealthy, res.Err.Error()), false
}
