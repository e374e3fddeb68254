// Package dht22 reads a DHT22 temperature/humidity sensor through the Linux
// industrial I/O (IIO) sysfs interface. The kernel dht11 driver owns the
// GPIO single-wire protocol; this package only reads the channel files it
// exposes, so no bit-banging happens in-process.
//
// Params:
//
//	device: IIO device name under /sys/bus/iio/devices (default "iio:device0")
//	path:   absolute channel directory, overriding device (mainly for tests)
package dht22

import (
	"errors"
	"fmt"
	"io/fs"
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
	TypeTag = "DHT22"

	defaultDevice = "iio:device0"
	sysfsRoot     = "/sys/bus/iio/devices"

	tempFile     = "in_temp_input"
	humidityFile = "in_humidityrelative_input"
)

func init() {
	sensor.Register(TypeTag, New)
}

// DHT22 is one configured DHT22 instance bound to an IIO channel directory.
type DHT22 struct {
	spec config.SensorSpec
	dir  string
}

// New validates that the IIO channel directory exists and returns the
// sensor. A missing directory means the kernel driver is not bound to the
// configured pin, which is a load-time configuration failure.
func New(spec config.SensorSpec) (sensor.Sensor, error) {
	dir := spec.StringParam("path", "")
	if dir == "" {
		dir = filepath.Join(sysfsRoot, spec.StringParam("device", defaultDevice))
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("dht22: iio device not available: %w", err)
	}
	return &DHT22{spec: spec, dir: dir}, nil
}

// Read samples temperature and humidity. The dht11 kernel driver reports a
// failed transfer (checksum mismatch, line noise, no response) as EIO or
// ETIMEDOUT on the channel read — DHT sensors are finicky and those faults
// are expected, so they classify as transient.
func (d *DHT22) Read() sensor.Result {
	tempMilli, err := d.readChannel(tempFile)
	if err != nil {
		return classify("temperature", err)
	}
	humMilli, err := d.readChannel(humidityFile)
	if err != nil {
		return classify("humidity", err)
	}

	tempC := tempMilli / 1000
	return sensor.Ok(map[string]float64{
		"temperature_c": round1(tempC),
		"temperature_f": round1(tempC*9/5 + 32),
		"humidity":      round1(humMilli / 1000),
	})
}

func (d *DHT22) readChannel(name string) (float64, error) {
	raw, err := os.ReadFile(filepath.Join(d.dir, name))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

// Info describes the sensor without touching the hardware.
func (d *DHT22) Info() sensor.Info {
	return sensor.Info{
		ID:          d.spec.ID,
		Name:        d.spec.DisplayName(),
		Type:        TypeTag,
		Description: "Temperature and humidity sensor",
		Measurements: map[string]sensor.MeasurementInfo{
			"temperature_c": {Unit: "°C", Description: "Temperature in Celsius"},
			"temperature_f": {Unit: "°F", Description: "Temperature in Fahrenheit"},
			"humidity":      {Unit: "%", Description: "Relative humidity"},
		},
		Params:  d.spec.Params,
		Enabled: true,
	}
}

// Close releases nothing — the kernel owns the GPIO line — and is safe to
// call any number of times.
func (d *DHT22) Close() {}

// classify maps a channel read failure to the contract's failure kinds.
func classify(channel string, err error) sensor.Result {
	if transient(err) {
		return sensor.Transient("%s read failed: %v", channel, err)
	}
	return sensor.Unexpected("%s read failed: %v", channel, err)
}

// transient reports whether err is an expected hardware-level fault rather
// than a configuration or software problem.
func transient(err error) bool {
	if errors.Is(err, syscall.EIO) || errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, syscall.EAGAIN) {
		return true
	}
	var pe *fs.PathError
	return errors.As(err, &pe) && pe.Timeout()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
