package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/crystaldolphin/tomekeeper/internal/providers"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

type entry struct {
	def      schema.ToolDefinition
	handler  Handler
	compiled *jsonschema.Schema
}

// Registry holds tool definitions and their handlers keyed by name.
// Registering a name twice replaces the earlier entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{entries: make(map[string]entry), logger: logger}
}

// Register stores def and handler under def.Name. The input schema must be
// structurally sound and compile as a JSON Schema document. A nil handler
// registers the definition alone.
func (r *Registry) Register(def schema.ToolDefinition, handler Handler) error {
	if err := def.Check(); err != nil {
		return err
	}
	if def.InputSchema.Type == "" {
		def.InputSchema.Type = schema.TypeObject
	}
	compiled, err := compileSchema(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[def.Name]; ok {
		r.logger.Debug("tool replaced", zap.String("tool", def.Name))
	}
	r.entries[def.Name] = entry{def: def, handler: handler, compiled: compiled}
	return nil
}

// MustRegister is Register for static catalogs; it panics on a bad definition.
func (r *Registry) MustRegister(def schema.ToolDefinition, handler Handler) {
	if err := r.Register(def, handler); err != nil {
		panic(err)
	}
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (schema.ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.def, ok
}

// GetHandler returns the handler registered under name, or nil.
func (r *Registry) GetHandler(name string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name].handler
}

// List returns definitions sorted by name. When categories are given only
// those categories are included.
func (r *Registry) List(categories ...schema.Category) []schema.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schema.ToolDefinition, 0, len(r.entries))
	for _, e := range r.entries {
		if len(categories) > 0 && !slices.Contains(categories, e.def.Category) {
			continue
		}
		out = append(out, e.def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	defs := r.List()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Export renders the whole catalog in the declaration format of kind.
func (r *Registry) Export(kind schema.BackendKind) ([]map[string]any, error) {
	return providers.Declarations(kind, r.List())
}

// ValidateStrict checks input against the compiled JSON Schema of name.
// It reports every violation, where the executor stops at the first.
func (r *Registry) ValidateStrict(name string, input map[string]any) error {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	if input == nil {
		input = map[string]any{}
	}
	doc, err := normalizeJSON(input)
	if err != nil {
		return err
	}
	return e.compiled.Validate(doc)
}

func compileSchema(def schema.ToolDefinition) (*jsonschema.Schema, error) {
	doc, err := normalizeJSON(def.InputSchema.Map())
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", def.Name, err)
	}
	url := def.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("tool %s: add schema: %w", def.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("tool %s: compile schema: %w", def.Name, err)
	}
	return sch, nil
}

// normalizeJSON round-trips v through encoding/json so values take the
// shapes the schema validator expects. Numbers stay exact as json.Number.
func normalizeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}
