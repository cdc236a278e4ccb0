// Package registry holds the static table of component descriptors the
// locator engine reads its metadata from.
package registry

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

var _ interfaces.DescriptorProvider = &Registry{}

// Registry is a DescriptorProvider over registered components. It is safe
// for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components map[string]entities.ComponentDescriptor
	order      []string
	validator  interfaces.DescriptorValidator
}

// New - creates a registry holding descriptors. validator may be nil.
func New(validator interfaces.DescriptorValidator, descriptors ...entities.ComponentDescriptor) (*Registry, error) {
	r := &Registry{
		components: make(map[string]entities.ComponentDescriptor),
		validator:  validator,
	}
	if err := r.Register(descriptors...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds a batch of descriptors. Parents may be defined in the same
// batch. Nothing is added when any descriptor is rejected.
func (r *Registry) Register(descriptors ...entities.ComponentDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result *multierror.Error
	staged := make(map[string]entities.ComponentDescriptor, len(r.components)+len(descriptors))
	for name, d := range r.components {
		staged[name] = d
	}
	for _, d := range descriptors {
		if d.Name == "" {
			result = multierror.Append(result, fmt.Errorf("%w: component without name", entities.ErrMalformedDescriptor))
			continue
		}
		if _, ok := staged[d.Name]; ok {
			result = multierror.Append(result, fmt.Errorf("%w: component %q registered twice", entities.ErrMalformedDescriptor, d.Name))
			continue
		}
		if r.validator != nil {
			if err := r.validator.Validate(d); err != nil {
				result = multierror.Append(result, err)
				continue
			}
		}
		staged[d.Name] = d
	}

	for _, d := range descriptors {
		if d.Parent == "" {
			continue
		}
		if _, ok := staged[d.Parent]; !ok {
			result = multierror.Append(result, fmt.Errorf("%w: parent %q of %q is not registered", entities.ErrMalformedDescriptor, d.Parent, d.Name))
			continue
		}
		if cyclic(staged, d.Name) {
			result = multierror.Append(result, fmt.Errorf("%w: parent chain of %q is cyclic", entities.ErrMalformedDescriptor, d.Name))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	for _, d := range descriptors {
		r.components[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return nil
}

func cyclic(components map[string]entities.ComponentDescriptor, name string) bool {
	seen := map[string]bool{name: true}
	for current := components[name].Parent; current != ""; current = components[current].Parent {
		if seen[current] {
			return true
		}
		seen[current] = true
	}
	return false
}

// Descriptor returns the descriptor of a registered component.
func (r *Registry) Descriptor(component string) (entities.ComponentDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.components[component]
	if !ok {
		return entities.ComponentDescriptor{}, fmt.Errorf("%w: %q", entities.ErrUnknownComponent, component)
	}
	return d, nil
}

// Components returns the descriptors in registration order.
func (r *Registry) Components() []entities.ComponentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]entities.ComponentDescriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.components[name])
	}
	return descriptors
}

// Names returns the registered component names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}
