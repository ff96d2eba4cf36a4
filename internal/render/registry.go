package render

import (
	"sort"
	"sync"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// Registry is a thread-safe name-to-renderer table.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Default returns a registry with every built-in format registered.
func Default() *Registry {
	r := NewRegistry()
	for _, rd := range Builtin() {
		// Built-in names are distinct, registration cannot collide.
		_ = r.Register(rd)
	}
	return r
}

// Builtin lists the built-in renderers in display order.
func Builtin() []Renderer {
	return []Renderer{
		mermaidRenderer{},
		treeRenderer{},
		layoutRenderer{},
		asciiRenderer{},
	}
}

// Register adds a renderer. Returns an error on duplicate name.
func (r *Registry) Register(rd Renderer) error {
	if rd == nil {
		return rule.NewError(rule.ErrCodeValidation, "renderer is nil")
	}
	name := rd.Name()
	if name == "" {
		return rule.NewError(rule.ErrCodeValidation, "renderer name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return rule.NewErrorf(rule.ErrCodeConflict, "format %q already registered", name)
	}

	r.renderers[name] = rd
	return nil
}

// Get retrieves a renderer by format name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rd, ok := r.renderers[name]
	if !ok {
		return nil, rule.NewErrorf(rule.ErrCodeNotFound, "format %q not registered", name)
	}
	return rd, nil
}

// List returns info for all registered formats, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.renderers))
	for _, rd := range r.renderers {
		infos = append(infos, Info{
			Name:        rd.Name(),
			Description: rd.Description(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Has checks whether a format is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.renderers[name]
	return ok
}

// Count returns the number of registered formats.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.renderers)
}
