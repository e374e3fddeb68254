// Package sensor defines the sensor contract and the registry that holds
// live sensor instances.
//
// A sensor variant implements the Sensor interface and self-registers a
// Factory for its type tag in init(). Build() walks the ordered spec list,
// instantiates each enabled spec through the factory table, and tolerates
// per-spec failures: a broken sensor is logged and omitted, never fatal.
//
// Every instance handed out by the registry serializes its reads, so
// non-reentrant drivers are safe even when different sensors are read
// concurrently.
package sensor
