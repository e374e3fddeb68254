// Package stream broadcasts live sensor readings to WebSocket clients.
//
// The hub reads every sensor once per tick — skipping ticks with no
// clients connected — and sends a {event: "readings"} JSON frame to every
// connection. Reads go through the registry's per-instance serialization,
// so the stream never races API-triggered reads on the same hardware.
package stream
