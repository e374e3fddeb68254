package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sensorhub/sensorhub/internal/api"
	"github.com/sensorhub/sensorhub/internal/sensor"
)

// --- test doubles -----------------------------------------------------------

type fakeSensor struct {
	id, typ string
	res     sensor.Result
	reads   int
}

func (f *fakeSensor) Read() sensor.Result {
	f.reads++
	return f.res
}

func (f *fakeSensor) Info() sensor.Info {
	return sensor.Info{ID: f.id, Name: f.id, Type: f.typ, Enabled: true}
}

func (f *fakeSensor) Close() {}

type fakeSource struct{ sensors []*fakeSensor }

func (s *fakeSource) Get(id string) (sensor.Sensor, bool) {
	for _, f := range s.sensors {
		if f.id == id {
			return f, true
		}
	}
	return nil, false
}

func (s *fakeSource) List() []sensor.Sensor {
	out := make([]sensor.Sensor, len(s.sensors))
	for i, f := range s.sensors {
		out[i] = f
	}
	return out
}

func (s *fakeSource) FindByType(typeTag string) (sensor.Sensor, bool) {
	for _, f := range s.sensors {
		if f.typ == typeTag {
			return f, true
		}
	}
	return nil, false
}

func (s *fakeSource) totalReads() int {
	n := 0
	for _, f := range s.sensors {
		n += f.reads
	}
	return n
}

func okSensor(id, typ string) *fakeSensor {
	return &fakeSensor{id: id, typ: typ, res: sensor.Ok(map[string]float64{"temperature_c": 21.5, "humidity": 48.8})}
}

func brokenSensor(id, typ string) *fakeSensor {
	return &fakeSensor{id: id, typ: typ, res: sensor.Transient("checksum mismatch")}
}

// --- helpers ----------------------------------------------------------------

const testKey = "Bearer test_secret"

func newMux(src *fakeSource) http.Handler {
	return api.NewMux(api.NewService(src, testKey, "Authorization"), nil, nil)
}

func get(t *testing.T, h http.Handler, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("Authorization", key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /health ----------------------------------------------------------------

func TestHealth_AllHealthy(t *testing.T) {
	h := newMux(&fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}})
	rr := get(t, h, "/health", "") // no credential — health is never authenticated

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "healthy" {
		t.Errorf("status: got %q, want healthy", resp.Status)
	}
	if resp.Summary.Total != 1 || resp.Summary.Healthy != 1 || resp.Summary.Unhealthy != 0 {
		t.Errorf("summary: got %+v", resp.Summary)
	}
}

func TestHealth_Degraded503(t *testing.T) {
	h := newMux(&fakeSource{sensors: []*fakeSensor{
		okSensor("t1", "DHT22"),
		brokenSensor("t2", "thermal"),
	}})
	rr := get(t, h, "/health", "")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "degraded" {
		t.Errorf("status: got %q, want degraded", resp.Status)
	}
	if resp.Summary.Total != 2 || resp.Summary.Healthy != 1 || resp.Summary.Unhealthy != 1 {
		t.Errorf("summary: got %+v", resp.Summary)
	}
}

func TestHealth_RootAlias(t *testing.T) {
	h := newMux(&fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}})
	rr := get(t, h, "/", "")
	if rr.Code != http.StatusOK {
		t.Errorf("GET /: got %d, want 200", rr.Code)
	}
}

func TestUnknownPath404(t *testing.T) {
	h := newMux(&fakeSource{})
	rr := get(t, h, "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("GET /nope: got %d, want 404", rr.Code)
	}
}

// --- auth gate --------------------------------------------------------------

func TestAuth_MissingKey401_NoReads(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}}
	h := newMux(src)

	for _, path := range []string{"/api/sensors", "/api/sensors/t1", "/api/sensors/t1/info", "/api/temp-and-humid-sensor"} {
		rr := get(t, h, path, "")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want 401", path, rr.Code)
		}
	}
	if n := src.totalReads(); n != 0 {
		t.Errorf("reads behind failed auth: got %d, want 0", n)
	}
}

func TestAuth_WrongKey401(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}}
	h := newMux(src)

	rr := get(t, h, "/api/sensors/t1", "Bearer wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if src.totalReads() != 0 {
		t.Error("sensor was read despite failed auth")
	}
}

func TestAuth_EmptyConfiguredKeyDisablesCheck(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}}
	h := api.NewMux(api.NewService(src, "", "Authorization"), nil, nil)

	rr := get(t, h, "/api/sensors", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200 with auth disabled", rr.Code)
	}
}

func TestAuth_CustomHeader(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}}
	h := api.NewMux(api.NewService(src, "k", "x-api-key"), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sensors", nil)
	req.Header.Set("x-api-key", "k")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

// --- /api/sensors -----------------------------------------------------------

func TestListSensors(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22"), okSensor("cpu", "thermal")}}
	h := newMux(src)

	rr := get(t, h, "/api/sensors", testKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.ListResponse
	decode(t, rr, &resp)
	if resp.Count != 2 || len(resp.Sensors) != 2 {
		t.Fatalf("count: got %d/%d, want 2", resp.Count, len(resp.Sensors))
	}
	if resp.Sensors[0].ID != "t1" || resp.Sensors[1].ID != "cpu" {
		t.Errorf("order: got %q,%q, want t1,cpu", resp.Sensors[0].ID, resp.Sensors[1].ID)
	}
	// Listing is info-only and must not read any sensor.
	if src.totalReads() != 0 {
		t.Errorf("reads during listing: got %d, want 0", src.totalReads())
	}
}

// --- /api/sensors/{id} ------------------------------------------------------

func TestSensorData_OK(t *testing.T) {
	h := newMux(&fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}})

	rr := get(t, h, "/api/sensors/t1", testKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var data map[string]float64
	decode(t, rr, &data)
	if data["temperature_c"] != 21.5 {
		t.Errorf("temperature_c: got %v, want 21.5", data["temperature_c"])
	}
}

func TestSensorData_ReadFailure500(t *testing.T) {
	h := newMux(&fakeSource{sensors: []*fakeSensor{brokenSensor("t1", "DHT22")}})

	rr := get(t, h, "/api/sensors/t1", testKey)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	var resp api.ErrorResponse
	decode(t, rr, &resp)
	if resp.Error == "" {
		t.Error("error message missing")
	}
}

func TestSensorData_Unknown404_NoRead(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}}
	h := newMux(src)

	rr := get(t, h, "/api/sensors/ghost", testKey)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	if src.totalReads() != 0 {
		t.Error("a read was attempted for an unknown identifier")
	}
}

func TestSensorInfo(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{okSensor("t1", "DHT22")}}
	h := newMux(src)

	rr := get(t, h, "/api/sensors/t1/info", testKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var info sensor.Info
	decode(t, rr, &info)
	if info.ID != "t1" || info.Type != "DHT22" {
		t.Errorf("info: got %q/%q, want t1/DHT22", info.ID, info.Type)
	}
	if src.totalReads() != 0 {
		t.Error("info endpoint read the sensor")
	}
}

// --- legacy endpoint --------------------------------------------------------

func TestLegacy_ResolvesFirstDHT22(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{
		okSensor("cpu", "thermal"),
		okSensor("t1", "DHT22"),
		okSensor("t2", "DHT22"),
	}}
	h := newMux(src)

	rr := get(t, h, "/api/temp-and-humid-sensor", testKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if src.sensors[1].reads != 1 || src.sensors[2].reads != 0 {
		t.Errorf("reads: got t1=%d t2=%d, want first DHT22 only", src.sensors[1].reads, src.sensors[2].reads)
	}
}

func TestLegacy_NoDHT22_404(t *testing.T) {
	src := &fakeSource{sensors: []*fakeSensor{okSensor("cpu", "thermal")}}
	h := newMux(src)

	rr := get(t, h, "/api/temp-and-humid-sensor", testKey)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	if src.totalReads() != 0 {
		t.Error("a read was attempted with no legacy sensor present")
	}
}

// --- misc -------------------------------------------------------------------

func TestMethodNotAllowed(t *testing.T) {
	h := newMux(&fakeSource{})
	req := httptest.NewRequest(http.MethodPost, "/api/sensors", nil)
	req.Header.Set("Authorization", testKey)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/sensors: got %d, want 405", rr.Code)
	}
}

func TestMetricsEndpointUnauthenticated(t *testing.T) {
	h := newMux(&fakeSource{})
	rr := get(t, h, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Errorf("GET /metrics: got %d, want 200", rr.Code)
	}
}
