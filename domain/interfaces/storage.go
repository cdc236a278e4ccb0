package interfaces

import "ui_automation/domain/entities"

// DescriptorStorage persists the component descriptor table
type DescriptorStorage interface {
	// Load reads every component descriptor
	Load() ([]entities.ComponentDescriptor, error)

	// Save writes the component descriptors
	Save(descriptors []entities.ComponentDescriptor) error
}

// DescriptorProvider returns the locate metadata of registered components
type DescriptorProvider interface {
	Descriptor(component string) (entities.ComponentDescriptor, error)
}
