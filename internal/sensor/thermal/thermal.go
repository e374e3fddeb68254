// Package thermal reads an on-board temperature from the Linux thermal
// zone sysfs interface (/sys/class/thermal). Useful for exposing the SoC
// or CPU temperature of the hub itself next to external sensors.
//
// Params:
//
//	zone: zone directory name (default "thermal_zone0")
//	path: absolute zone directory, overriding zone (mainly for tests)
package thermal

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/sensorhub/sensorhub/internal/config"
	"github.com/sensorhub/sensorhub/internal/sensor"
)

const (
	// TypeTag is the type string this variant registers under.
	TypeTag = "thermal"

	defaultZone = "thermal_zone0"
	sysfsRoot   = "/sys/class/thermal"
)

func init() {
	sensor.Register(TypeTag, New)
}

// Zone is one configured thermal zone sensor.
type Zone struct {
	spec config.SensorSpec
	dir  string
}

// New resolves the zone directory and verifies it exists.
func New(spec config.SensorSpec) (sensor.Sensor, error) {
	dir := spec.StringParam("path", "")
	if dir == "" {
		dir = filepath.Join(sysfsRoot, spec.StringParam("zone", defaultZone))
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("thermal: zone not available: %w", err)
	}
	return &Zone{spec: spec, dir: dir}, nil
}

// Read returns the zone temperature. The kernel reports millidegrees
// Celsius; some zones return EAGAIN or EIO while the sensor resamples,
// which classifies as transient.
func (z *Zone) Read() sensor.Result {
	raw, err := os.ReadFile(filepath.Join(z.dir, "temp"))
	if err != nil {
		if errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EAGAIN) {
			return sensor.Transient("temp read failed: %v", err)
		}
		return sensor.Unexpected("temp read failed: %v", err)
	}

	milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return sensor.Unexpected("parse temp: %v", err)
	}

	return sensor.Ok(map[string]float64{
		"temperature_c": math.Round(milli/1000*10) / 10,
	})
}

// Info describes the zone without touching sysfs.
func (z *Zone) Info() sensor.Info {
	return sensor.Info{
		ID:          z.spec.ID,
		Name:        z.spec.DisplayName(),
		Type:        TypeTag,
		Description: "On-board thermal zone temperature",
		Measurements: map[string]sensor.MeasurementInfo{
			"temperature_c": {Unit: "°C", Description: "Zone temperature in Celsius"},
		},
		Params:  z.spec.Params,
		Enabled: true,
	}
}

// Close is a no-op — sysfs holds no per-process resource.
func (z *Zone) Close() {}
