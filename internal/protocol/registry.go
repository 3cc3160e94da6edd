package protocol

import (
	"fmt"
	"sort"
	"sync"

	"firestige.xyz/strix/internal/core"
)

// Registry holds the known protocol descriptors keyed by name and by IP
// protocol number. Registration is append-only and happens once at startup;
// a populated registry serves concurrent lookups without coordination.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Descriptor
	byNum  map[uint8]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Descriptor),
		byNum:  make(map[uint8]Descriptor),
	}
}

// Register adds d under both of its keys. A nil descriptor or an empty name
// is rejected, and so is a duplicate of either key: registering the same
// protocol twice is a wiring defect surfaced to the caller, never a silent
// no-op.
func (r *Registry) Register(d Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", core.ErrInvalidDescriptor)
	}
	name := d.Name()
	if name == "" {
		return fmt.Errorf("%w: empty name", core.ErrInvalidDescriptor)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", core.ErrProtocolRegistered, name)
	}
	if prev, exists := r.byNum[d.Number()]; exists {
		return fmt.Errorf("%w: number %d already held by %q",
			core.ErrProtocolRegistered, d.Number(), prev.Name())
	}

	r.byName[name] = d
	r.byNum[d.Number()] = d
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.byName[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", core.ErrProtocolNotFound, name)
	}
	return d, nil
}

// LookupNumber returns the descriptor registered under the IP protocol
// number n.
func (r *Registry) LookupNumber(n uint8) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.byNum[n]
	if !exists {
		return nil, fmt.Errorf("%w: number %d", core.ErrProtocolNotFound, n)
	}
	return d, nil
}

// Names returns the registered protocol names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byName)
}
