// Package exporter treats a device-local Prometheus exporter as a sensor.
// Many network-attached probes (power meters, air-quality boxes, UPS
// gateways) expose their readings only as a metrics endpoint; this variant
// scrapes it once per read and surfaces selected metric families as
// measurements.
//
// Params:
//
//	endpoint: metrics URL, e.g. "http://10.0.0.7:9100/metrics" (required)
//	metrics:  list of metric family names to expose (required, non-empty)
//	timeout:  per-read HTTP timeout (default "10s")
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/sensorhub/sensorhub/internal/config"
	"github.com/sensorhub/sensorhub/internal/sensor"
)

const (
	// TypeTag is the type string this variant registers under.
	TypeTag = "exporter"

	defaultTimeout = 10 * time.Second
)

// errNotMetrics marks a response body that is not Prometheus text. Unlike a
// connectivity failure it means the endpoint is not what the config claims,
// so Read reports it as unexpected rather than transient.
var errNotMetrics = errors.New("parse prometheus text")

func init() {
	sensor.Register(TypeTag, New)
}

// Exporter is one configured exporter-backed sensor. The HTTP client is
// built once and reused across reads.
type Exporter struct {
	spec     config.SensorSpec
	endpoint string
	families []string
	client   *http.Client
}

// New validates the endpoint and metric list and builds the HTTP client.
func New(spec config.SensorSpec) (sensor.Sensor, error) {
	endpoint := spec.StringParam("endpoint", "")
	if endpoint == "" {
		return nil, fmt.Errorf("exporter: endpoint param is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("exporter: invalid endpoint: %w", err)
	}
	families := spec.StringListParam("metrics")
	if len(families) == 0 {
		return nil, fmt.Errorf("exporter: metrics param must list at least one family")
	}

	return &Exporter{
		spec:     spec,
		endpoint: endpoint,
		families: families,
		client:   &http.Client{Timeout: spec.DurationParam("timeout", defaultTimeout)},
	}, nil
}

// Read scrapes the endpoint once. Connectivity problems and non-200
// responses are transient — the device is flaky or briefly away, which is
// the normal failure mode for networked probes. A response that cannot be
// parsed as Prometheus text is unexpected: it means the endpoint is not
// what the config claims.
func (e *Exporter) Read() sensor.Result {
	mfs, err := e.fetch()
	if err != nil {
		if errors.Is(err, errNotMetrics) {
			return sensor.Unexpected("scrape %s: %v", e.endpoint, err)
		}
		return sensor.Transient("scrape %s: %v", e.endpoint, err)
	}

	measurements := make(map[string]float64, len(e.families))
	for _, name := range e.families {
		mf, ok := mfs[name]
		if !ok {
			continue // family absent this cycle — expose what is present
		}
		measurements[name] = sumFamily(mf)
	}
	if len(measurements) == 0 {
		return sensor.Unexpected("none of the configured metric families present at %s", e.endpoint)
	}
	return sensor.Ok(measurements)
}

// fetch performs the HTTP GET and returns parsed metric families.
func (e *Exporter) fetch() (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, e.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning is still
// returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("%w: %v", errNotMetrics, err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
func sumFamily(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}

// Info describes the exporter without scraping it.
func (e *Exporter) Info() sensor.Info {
	measurements := make(map[string]sensor.MeasurementInfo, len(e.families))
	for _, name := range e.families {
		measurements[name] = sensor.MeasurementInfo{
			Description: fmt.Sprintf("Sum of Prometheus metric family %q", name),
		}
	}
	return sensor.Info{
		ID:           e.spec.ID,
		Name:         e.spec.DisplayName(),
		Type:         TypeTag,
		Description:  "Prometheus exporter scrape",
		Measurements: measurements,
		Params:       e.spec.Params,
		Enabled:      true,
	}
}

// Close drops any idle connections held by the client.
func (e *Exporter) Close() {
	e.client.CloseIdleConnections()
}
