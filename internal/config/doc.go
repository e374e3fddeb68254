// Package config loads and validates the sensor hub's YAML configuration.
//
// The file has two sections: `server:` (port, auth, CORS origins) and
// `sensors:` (the ordered list of SensorSpec declarations). The expected
// API credential is resolved from the environment via `key_env`, with an
// inline `key` fallback for development setups.
//
// Watch() provides fsnotify-based hot reload. Sensor instances own hardware
// handles, so a reload does not rebuild the registry — callers decide what
// to do with the new config.
package config
