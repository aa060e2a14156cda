package recognizer

import (
	"fmt"
	"strings"
)

// Factory builds a recognizer from free-form provider settings.
type Factory func(settings map[string]any) (Recognizer, error)

// Registry maps provider names to factories so the active backend can be
// picked by configuration.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, factory Factory) {
	r.factories[normalizeName(name)] = factory
}

func (r *Registry) Build(provider string, settings map[string]any) (Recognizer, error) {
	fn := r.factories[normalizeName(provider)]
	if fn == nil {
		return nil, fmt.Errorf("recognizer provider not registered: %s", provider)
	}
	return fn(settings)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
