package sensor

import "fmt"

// Kind classifies a read failure.
type Kind string

const (
	// KindTransient marks expected, recoverable hardware faults: line noise,
	// checksum mismatches, bus timeouts. Physical sensors fail transiently
	// at non-trivial rates, so callers must not treat these as service-level
	// errors.
	KindTransient Kind = "transient"

	// KindUnexpected marks any other fault caught at the contract boundary.
	KindUnexpected Kind = "unexpected"
)

// ReadError is the failure half of a Result.
type ReadError struct {
	Kind    Kind
	Message string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s read error: %s", e.Kind, e.Message)
}

// Result is the tagged outcome of one read attempt: either Measurements or
// Err, never both.
type Result struct {
	Measurements map[string]float64
	Err          *ReadError
}

// OK reports whether the read succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Ok returns a successful Result carrying the given measurements.
func Ok(measurements map[string]float64) Result {
	return Result{Measurements: measurements}
}

// Transient returns a failed Result for an expected hardware fault.
func Transient(format string, args ...any) Result {
	return Result{Err: &ReadError{Kind: KindTransient, Message: fmt.Sprintf(format, args...)}}
}

// Unexpected returns a failed Result for any other fault.
func Unexpected(format string, args ...any) Result {
	return Result{Err: &ReadError{Kind: KindUnexpected, Message: fmt.Sprintf(format, args...)}}
}

// MeasurementInfo describes one measurement a sensor produces.
type MeasurementInfo struct {
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// Info is the static descriptive record for a sensor. Deriving it never
// touches hardware.
type Info struct {
	ID           string                     `json:"sensor_id"`
	Name         string                     `json:"name"`
	Type         string                     `json:"type"`
	Description  string                     `json:"description"`
	Measurements map[string]MeasurementInfo `json:"measurements"`
	Params       map[string]any             `json:"params,omitempty"`
	Enabled      bool                       `json:"enabled"`
}

// Sensor is the capability set every sensor variant implements.
//
// Read performs one hardware read. Implementations must contain every fault
// at this boundary and convert it to a failed Result — transient hardware
// faults as KindTransient, everything else as KindUnexpected. A fault must
// never escape as a panic.
//
// Info is pure and side-effect-free; it must succeed before, after, and
// between reads.
//
// Close releases the underlying resource. It must be idempotent and must
// never fail, even on an instance that never opened successfully; problems
// are logged, not propagated.
type Sensor interface {
	Read() Result
	Info() Info
	Close()
}
