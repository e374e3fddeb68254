package sensor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sensorhub/sensorhub/internal/config"
)

// Registry is the identifier-keyed collection of live sensors, built once at
// startup and read-only afterwards until Close. Listing preserves the
// declaration order of the specs it was built from.
type Registry struct {
	byID  map[string]*guard
	order []*guard

	closeOnce sync.Once
}

// guard wraps a Sensor so reads on one instance are serialized. Hardware
// drivers are not assumed reentrant; different instances may still be read
// concurrently. It also converts a contract-violating panic into a failed
// Result so a buggy driver cannot take a caller down.
type guard struct {
	mu    sync.Mutex
	inner Sensor
}

func (g *guard) Read() (res Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			slog.Error("sensor read panicked", "sensor", g.inner.Info().ID, "panic", p)
			res = Unexpected("panic: %v", p)
		}
	}()
	return g.inner.Read()
}

func (g *guard) Info() Info { return g.inner.Info() }

func (g *guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			slog.Error("sensor cleanup panicked", "panic", p)
		}
	}()
	g.inner.Close()
}

// Build constructs a Registry from the ordered spec list. Disabled specs are
// skipped. A spec that fails to instantiate — unknown type tag, duplicate
// identifier, factory error — is logged and omitted; the load continues
// with the remaining specs so one broken sensor cannot prevent the service
// from serving the rest.
func Build(specs []config.SensorSpec) *Registry {
	reg := &Registry{byID: make(map[string]*guard, len(specs))}

	for _, spec := range specs {
		if !spec.IsEnabled() {
			slog.Info("skipping disabled sensor", "sensor", spec.ID)
			continue
		}

		s, err := buildOne(spec)
		if err != nil {
			slog.Error("failed to load sensor", "sensor", spec.ID, "type", spec.Type, "err", err)
			continue
		}
		if _, dup := reg.byID[spec.ID]; dup {
			// Duplicate identifiers are a config mistake: the first
			// declaration wins and the latecomer is released and skipped.
			slog.Error("duplicate sensor id — keeping first declaration", "sensor", spec.ID)
			(&guard{inner: s}).Close()
			continue
		}

		g := &guard{inner: s}
		reg.byID[spec.ID] = g
		reg.order = append(reg.order, g)
		slog.Info("loaded sensor", "sensor", spec.ID, "type", spec.Type)
	}

	slog.Info("sensor registry initialized", "sensors", reg.Len())
	return reg
}

// buildOne resolves the type tag and runs the factory, containing any panic
// so a misbehaving constructor degrades to a per-spec load failure.
func buildOne(spec config.SensorSpec) (s Sensor, err error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("missing sensor id")
	}
	f, ok := findFactory(spec.Type)
	if !ok {
		return nil, fmt.Errorf("unknown sensor type %q (registered: %v)", spec.Type, Types())
	}
	defer func() {
		if p := recover(); p != nil {
			s, err = nil, fmt.Errorf("factory panicked: %v", p)
		}
	}()
	return f(spec)
}

// Get returns the sensor for the given identifier. ok is false for unknown
// identifiers and for sensors that were disabled or failed at load time.
func (r *Registry) Get(id string) (Sensor, bool) {
	g, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return g, true
}

// List returns all registered sensors in declaration order.
func (r *Registry) List() []Sensor {
	out := make([]Sensor, len(r.order))
	for i, g := range r.order {
		out[i] = g
	}
	return out
}

// FindByType returns the first registered sensor whose type tag equals
// typeTag. Used by the legacy single-sensor lookup path.
func (r *Registry) FindByType(typeTag string) (Sensor, bool) {
	for _, g := range r.order {
		if g.Info().Type == typeTag {
			return g, true
		}
	}
	return nil, false
}

// Len returns the number of registered sensors.
func (r *Registry) Len() int { return len(r.order) }

// Close releases every sensor's resource exactly once, in registration
// order. A failing cleanup never blocks the rest. Safe to call multiple
// times.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		for _, g := range r.order {
			g.Close()
		}
		slog.Info("sensor registry closed", "sensors", r.Len())
	})
}
