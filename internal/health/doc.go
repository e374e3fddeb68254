// Package health reduces per-sensor read outcomes to one overall service
// status. One aggregation pass is one read per sensor — no retries, no
// memory of previous passes — so the health endpoint makes partial failure
// visible without ever refusing service itself.
package health
