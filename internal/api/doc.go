// Package api implements the HTTP boundary of the sensor hub.
//
// Service holds the dispatch logic — auth gate, registry lookups, health
// aggregation, status mapping — exactly once. Two interchangeable adapters
// serialize it onto the wire: NewMux (net/http + rs/cors) and NewGin
// (gin + gin-contrib/cors). Both serve:
//
//	GET /                         — health report (alias of /health), no auth
//	GET /health                   — overall status + per-sensor statuses + summary
//	GET /api/sensors              — static info for every sensor
//	GET /api/sensors/{id}         — one fresh read: measurements, or {error} with 500
//	GET /api/sensors/{id}/info    — static info for one sensor
//	GET /api/temp-and-humid-sensor — legacy: first DHT22-typed sensor's data
//	GET /metrics                  — hub's own Prometheus metrics, no auth
//	GET /ws/readings              — live readings stream (when mounted)
//
// Status mapping: healthy→200, degraded/unhealthy→503, bad credential→401,
// unknown id→404, read failure on a known id→500. The credential check
// always precedes any sensor read.
package api
