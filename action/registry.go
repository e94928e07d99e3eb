package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joyremap/joyremap/input"
)

// Registration describes an action plugin.
type Registration struct {
	// Name is the human readable plugin name.
	Name string
	// Tag is the XML tag the plugin claims.
	Tag string
	// InputKinds lists the input kinds the action can be attached to.
	InputKinds []input.Kind
	// Constructor creates an empty action instance for parsing.
	Constructor func() Action
}

// Accepts reports whether the plugin can be attached to inputs of the
// given kind.
func (r Registration) Accepts(kind input.Kind) bool {
	for _, k := range r.InputKinds {
		if k == kind {
			return true
		}
	}
	return false
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Registration{}
)

// Register adds an action plugin to the registry. A duplicate tag or a
// missing constructor panics; plugins register from init.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if reg.Tag == "" || reg.Constructor == nil {
		panic(fmt.Sprintf("invalid action registration %q", reg.Name))
	}
	if _, exists := registry[reg.Tag]; exists {
		panic(fmt.Sprintf("duplicate action registration for tag %q", reg.Tag))
	}
	registry[reg.Tag] = reg
}

// Lookup returns the registration claiming the given XML tag.
func Lookup(tag string) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[tag]
	return reg, ok
}

// Registered returns all registrations, sorted by tag.
func Registered() []Registration {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Registration, 0, len(registry))
	for _, reg := range registry {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}
