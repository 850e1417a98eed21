package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/inicache/internal/config/ini"
)

var (
	// ErrAlreadyRegistered is returned when registering a duplicate variable.
	ErrAlreadyRegistered = errors.New("console variable already registered")

	// ErrVariableNotFound is returned for unregistered variable names.
	ErrVariableNotFound = errors.New("console variable not found")

	// ErrInvalidValue is returned when text does not parse or validate.
	ErrInvalidValue = errors.New("invalid console variable value")
)

type entry struct {
	def    *Variable
	value  any
	source string
}

// Registry maintains console variable definitions and their current values.
// It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	vars map[string]*entry // keyed by folded name
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{vars: make(map[string]*entry)}
}

// NewWithDefaults creates a registry with the built-in variables.
func NewWithDefaults() *Registry {
	r := New()
	r.RegisterDefaults()
	return r
}

// Register adds a variable definition. The current value starts at Default.
func (r *Registry) Register(v Variable) error {
	if v.Default != nil {
		if err := v.Validate(v.Default); err != nil {
			return fmt.Errorf("%w: default for %s: %v", ErrInvalidValue, v.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := ini.Fold(v.Name)
	if _, exists := r.vars[key]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, v.Name)
	}
	def := v // Copy to heap
	r.vars[key] = &entry{def: &def, value: v.Default, source: "default"}
	return nil
}

// MustRegister registers a variable and panics on error.
func (r *Registry) MustRegister(v Variable) {
	if err := r.Register(v); err != nil {
		panic(err)
	}
}

// Get returns the definition for name, or nil if not registered.
func (r *Registry) Get(name string) *Variable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.vars[ini.Fold(name)]; ok {
		return e.def
	}
	return nil
}

// Has checks if a variable is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// All returns all definitions sorted by name.
func (r *Registry) All() []*Variable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Variable, 0, len(r.vars))
	for _, e := range r.vars {
		result = append(result, e.def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Search finds variables whose name, description or tags contain query.
func (r *Registry) Search(query string) []*Variable {
	query = ini.Fold(query)
	var result []*Variable
	for _, v := range r.All() {
		if matches(v, query) {
			result = append(result, v)
		}
	}
	return result
}

func matches(v *Variable, query string) bool {
	if strings.Contains(ini.Fold(v.Name), query) {
		return true
	}
	if strings.Contains(ini.Fold(v.Description), query) {
		return true
	}
	for _, tag := range v.Tags {
		if strings.Contains(ini.Fold(tag), query) {
			return true
		}
	}
	return false
}

// Set parses text for the named variable and stores it. On error the
// previous value is kept. Source records where the value came from.
func (r *Registry) Set(name, text, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.vars[ini.Fold(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariableNotFound, name)
	}
	value, err := e.def.Parse(text)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
	}
	e.value = value
	e.source = source
	return nil
}

// Reset restores the default value of name.
func (r *Registry) Reset(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.vars[ini.Fold(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariableNotFound, name)
	}
	e.value = e.def.Default
	e.source = "default"
	return nil
}

// Value returns the current value of name.
func (r *Registry) Value(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.vars[ini.Fold(name)]; ok {
		return e.value, true
	}
	return nil, false
}

// Source reports where the current value of name was set from.
func (r *Registry) Source(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.vars[ini.Fold(name)]; ok {
		return e.source
	}
	return ""
}

// GetString returns the current value of a string variable.
func (r *Registry) GetString(name string) (string, bool) {
	v, ok := r.Value(name)
	s, isString := v.(string)
	return s, ok && isString
}

// GetInt returns the current value of an int variable.
func (r *Registry) GetInt(name string) (int, bool) {
	v, ok := r.Value(name)
	n, isInt := v.(int)
	return n, ok && isInt
}

// GetFloat returns the current value of a float variable.
func (r *Registry) GetFloat(name string) (float64, bool) {
	v, ok := r.Value(name)
	switch n := v.(type) {
	case float64:
		return n, ok
	case int:
		return float64(n), ok
	}
	return 0, false
}

// GetBool returns the current value of a bool variable.
func (r *Registry) GetBool(name string) (bool, bool) {
	v, ok := r.Value(name)
	b, isBool := v.(bool)
	return b, ok && isBool
}

// RegisterDefaults registers the built-in console variables.
func (r *Registry) RegisterDefaults() {
	r.MustRegister(Variable{
		Name:        "r.VSync",
		Type:        TypeBool,
		Default:     false,
		Description: "Synchronize presentation with the display refresh",
		Tags:        []string{"rendering"},
	})
	r.MustRegister(Variable{
		Name:        "r.ScreenPercentage",
		Type:        TypeFloat,
		Default:     100.0,
		Description: "Internal render resolution as a percentage of the output",
		Minimum:     MinValue(10),
		Maximum:     MaxValue(400),
		Tags:        []string{"rendering", "scalability"},
	})
	r.MustRegister(Variable{
		Name:        "t.MaxFPS",
		Type:        TypeInt,
		Default:     0,
		Description: "Frame rate cap, 0 for unlimited",
		Minimum:     MinValue(0),
		Tags:        []string{"timing"},
	})
	r.MustRegister(Variable{
		Name:        "sg.ShadowQuality",
		Type:        TypeInt,
		Default:     3,
		Description: "Shadow scalability level",
		Minimum:     MinValue(0),
		Maximum:     MaxValue(4),
		Tags:        []string{"scalability"},
	})
	r.MustRegister(Variable{
		Name:        "sg.TextureQuality",
		Type:        TypeInt,
		Default:     3,
		Description: "Texture scalability level",
		Minimum:     MinValue(0),
		Maximum:     MaxValue(4),
		Tags:        []string{"scalability"},
	})
	r.MustRegister(Variable{
		Name:        "r.DefaultFeature.AntiAliasing",
		Type:        TypeString,
		Default:     "TAA",
		Description: "Default anti-aliasing method",
		Enum:        []string{"None", "FXAA", "TAA", "TSR", "MSAA"},
		Tags:        []string{"rendering"},
	})
	r.MustRegister(Variable{
		Name:        "au.MasterVolume",
		Type:        TypeFloat,
		Default:     1.0,
		Description: "Master audio volume",
		Minimum:     MinValue(0),
		Maximum:     MaxValue(1),
		Tags:        []string{"audio"},
	})
}
