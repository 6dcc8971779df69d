package converter

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds converter instances by name.
type Factory interface {
	Get(name string) (Converter, error)
}

// Constructor creates a fresh converter instance.
type Constructor func() Converter

// Built-in converter names.
const (
	NameBool               = "bool"
	NameInt                = "int"
	NameFlags              = "flags"
	NameUserAccountControl = "user_account_control"
	NameGroupType          = "group_type"
	NameWindowsSID         = "windows_sid"
	NameWindowsGUID        = "windows_guid"
	NameWindowsTime        = "windows_time"
	NameGeneralizedTime    = "generalized_time"
)

// UnknownConverterError is returned when no converter is registered under a name.
type UnknownConverterError struct {
	Name string
}

func (e *UnknownConverterError) Error() string {
	return fmt.Sprintf("converter %q is not registered", e.Name)
}

// Registry is a Factory keyed by case-insensitive converter name.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

var _ Factory = (*Registry)(nil)

// NewRegistry creates a registry holding the built-in converters.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}

	r.Register(NameBool, func() Converter { return &Bool{} })
	r.Register(NameInt, func() Converter { return &Int{} })
	r.Register(NameFlags, func() Converter { return NewFlags(FlagsOptions{}) })
	r.Register(NameUserAccountControl, func() Converter { return NewFlags(UserAccountControlOptions()) })
	r.Register(NameGroupType, func() Converter { return NewFlags(GroupTypeOptions()) })
	r.Register(NameWindowsSID, func() Converter { return &WindowsSID{} })
	r.Register(NameWindowsGUID, func() Converter { return &WindowsGUID{} })
	r.Register(NameWindowsTime, func() Converter { return &WindowsTime{} })
	r.Register(NameGeneralizedTime, func() Converter { return &GeneralizedTime{} })

	return r
}

// Register adds or replaces a converter constructor.
func (r *Registry) Register(name string, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[strings.ToLower(name)] = constructor
}

// Get returns a new converter instance for name.
func (r *Registry) Get(name string) (Converter, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[strings.ToLower(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownConverterError{Name: name}
	}

	return constructor(), nil
}

// Names returns the registered converter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
