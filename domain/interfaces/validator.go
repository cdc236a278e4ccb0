package interfaces

import "ui_automation/domain/entities"

// DescriptorValidator defines the checks applied to locate metadata before
// it is used
type DescriptorValidator interface {
	// Validate returns an error wrapping entities.ErrMalformedDescriptor
	// listing every problem of the descriptor
	Validate(d entities.ComponentDescriptor) error
}
