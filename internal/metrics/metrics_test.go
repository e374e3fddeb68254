package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sensorhub/sensorhub/internal/sensor"
)

func TestRecordRead_OutcomeLabels(t *testing.T) {
	RecordRead("m1", sensor.Ok(map[string]float64{"v": 1}))
	RecordRead("m1", sensor.Transient("checksum mismatch"))
	RecordRead("m1", sensor.Transient("line noise"))
	RecordRead("m1", sensor.Unexpected("driver gone"))

	cases := []struct {
		outcome string
		want    float64
	}{
		{OutcomeOK, 1},
		{OutcomeTransient, 2},
		{OutcomeUnexpected, 1},
	}
	for _, tc := range cases {
		if got := testutil.ToFloat64(readsTotal.WithLabelValues("m1", tc.outcome)); got != tc.want {
			t.Errorf("reads_total{outcome=%q}: got %v, want %v", tc.outcome, got, tc.want)
		}
	}
}

func TestSetHealthStatus_Mapping(t *testing.T) {
	cases := []struct {
		status string
		want   float64
	}{
		{"healthy", 0},
		{"degraded", 1},
		{"unhealthy", 2},
		{"something-else", 2},
	}
	for _, tc := range cases {
		SetHealthStatus(tc.status)
		if got := testutil.ToFloat64(healthStatus); got != tc.want {
			t.Errorf("health_status after %q: got %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestSetRegistered(t *testing.T) {
	SetRegistered(3)
	if got := testutil.ToFloat64(sensorsRegistered); got != 3 {
		t.Errorf("sensors_registered: got %v, want 3", got)
	}
}
