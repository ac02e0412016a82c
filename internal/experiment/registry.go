package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/integrators"
)

// MethodInfo describes a registered method.
type MethodInfo struct {
	Name   string   `json:"name"`
	Order  int      `json:"order"`
	Stages []string `json:"stages"`
}

type Registry struct {
	methods map[string]func() dynamo.Method
}

func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]func() dynamo.Method)}

	r.methods["euler"] = func() dynamo.Method { return integrators.NewEuler() }
	r.methods["rk4"] = func() dynamo.Method { return integrators.NewRK4() }
	r.methods["midpoint"] = func() dynamo.Method { return integrators.NewMidpoint() }
	r.methods["heun"] = func() dynamo.Method { return integrators.NewHeun() }

	return r
}

func (r *Registry) Get(name string) (dynamo.Method, error) {
	fn, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", name)
	}
	return fn(), nil
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Info() []MethodInfo {
	names := r.List()
	out := make([]MethodInfo, 0, len(names))
	for _, name := range names {
		m := r.methods[name]()
		stages := m.Stages()
		if stages == nil {
			stages = []string{}
		}
		out = append(out, MethodInfo{Name: m.Name(), Order: m.Order(), Stages: stages})
	}
	return out
}
