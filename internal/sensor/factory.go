package sensor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sensorhub/sensorhub/internal/config"
)

// Factory constructs a Sensor from its spec. Returning an error (unknown
// parameter, resource acquisition failure) omits the sensor from the
// registry without aborting the load.
type Factory func(spec config.SensorSpec) (Sensor, error)

var (
	muFactories sync.RWMutex
	factories   = map[string]Factory{}
)

// Register installs a factory for a given sensor type tag. Each compiled-in
// variant calls Register from its init(), so adding a type never touches
// the registry itself. It panics on duplicate registration to catch
// mistakes at start-up.
func Register(typeTag string, f Factory) {
	muFactories.Lock()
	defer muFactories.Unlock()
	if typeTag == "" {
		panic("sensor: empty type tag for factory")
	}
	if f == nil {
		panic(fmt.Sprintf("sensor: nil factory for type %q", typeTag))
	}
	if _, exists := factories[typeTag]; exists {
		panic(fmt.Sprintf("sensor: factory already registered for type %q", typeTag))
	}
	factories[typeTag] = f
}

// findFactory looks up a registered factory by type tag.
func findFactory(typeTag string) (Factory, bool) {
	muFactories.RLock()
	defer muFactories.RUnlock()
	f, ok := factories[typeTag]
	return f, ok
}

// Types returns the registered type tags in sorted order.
func Types() []string {
	muFactories.RLock()
	defer muFactories.RUnlock()
	out := make([]string, 0, len(factories))
	for tag := range factories {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
