package adapters

import (
	"fmt"
	"sort"
)

// Registry resolves adapters by their id.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		// Ids are fixed per type, so duplicates are a programming error.
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(a Adapter) error {
	id := a.Info().ID
	if id == "" {
		return fmt.Errorf("adapter has no id")
	}
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("adapter %q already registered", id)
	}
	r.adapters[id] = a
	return nil
}

func (r *Registry) Get(id string) (Adapter, error) {
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, id)
	}
	return a, nil
}

// List returns adapter descriptors sorted by id.
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.adapters))
	for _, a := range r.adapters {
		infos = append(infos, a.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
