package experiment

import (
	"slices"

	"github.com/samber/lo"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/integrators"
	"github.com/san-kum/inertial/internal/metrics"
	"github.com/san-kum/inertial/internal/physics"
	"github.com/san-kum/inertial/internal/sim"
)

// Registry resolves hull and integrator names used in scenario files.
type Registry struct {
	hulls map[string]func() physics.Hull
}

func NewRegistry() *Registry {
	r := &Registry{
		hulls: make(map[string]func() physics.Hull),
	}

	r.hulls["probe"] = physics.NewProbe
	r.hulls["rcs"] = physics.NewRCS
	r.hulls["shuttle"] = physics.NewShuttle
	r.hulls["gimbal"] = physics.NewGimbal

	return r
}

// RegisterHull adds or replaces a hull preset.
func (r *Registry) RegisterHull(name string, fn func() physics.Hull) {
	r.hulls[name] = fn
}

func (r *Registry) GetHull(name string) (physics.Hull, error) {
	fn, ok := r.hulls[name]
	if !ok {
		return physics.Hull{}, dynamo.NewConfigError("hull", "unknown hull %q", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (integrators.Integrator, error) {
	integ, ok := integrators.ByName(name)
	if !ok {
		return nil, dynamo.NewConfigError("integrator", "unknown integrator %q", name)
	}
	return integ, nil
}

func (r *Registry) ListHulls() []string {
	names := lo.Keys(r.hulls)
	slices.Sort(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

func (r *Registry) DefaultMetrics(forces []physics.ForceSource) []sim.Metric {
	return metrics.Standard(forces)
}
