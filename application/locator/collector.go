package locator

import (
	"fmt"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// ExecutionDataCollector merges a component's declared metadata with the
// caller's search options.
type ExecutionDataCollector struct {
	component string
	provider  interfaces.DescriptorProvider
	// defaults apply to fields neither the caller nor the descriptor set
	defaults entities.SearchOptions
	search   *searcher
}

// Get builds the execution data of one call. Caller fields that are set
// always win over declared ones.
func (c *ExecutionDataCollector) Get(opts entities.SearchOptions) (ExecutionData, error) {
	d, err := c.provider.Descriptor(c.component)
	if err != nil {
		return ExecutionData{}, err
	}
	caller := opts.Clone()

	data := ExecutionData{
		Component:     c.component,
		ScopeSource:   entities.ScopeParent,
		Safely:        caller.IsSafely(),
		SearchOptions: caller,
		Layers:        make([]LayerExecutionUnit, 0, len(d.Layers)),
	}

	defaultOuter := ""
	for i, layer := range d.Layers {
		unit, err := c.unit(layer.LocateDescriptor, caller, defaultOuter)
		if err != nil {
			return ExecutionData{}, fmt.Errorf("layer %d of %q: %w", i+1, c.component, err)
		}
		resolver, err := newContextResolver(layer.Resolver)
		if err != nil {
			return ExecutionData{}, fmt.Errorf("layer %d of %q: %w", i+1, c.component, err)
		}
		data.Layers = append(data.Layers, LayerExecutionUnit{ExecutionUnit: unit, ContextResolver: resolver})
		defaultOuter = resolver.DefaultOuterXPath()
	}

	data.Final, err = c.unit(d.Final, caller, defaultOuter)
	if err != nil {
		return ExecutionData{}, fmt.Errorf("final step of %q: %w", c.component, err)
	}

	switch {
	case len(d.Layers) > 0 && d.Layers[0].Scope != "":
		data.ScopeSource = d.Layers[0].Scope
	case d.Final.Scope != "":
		data.ScopeSource = d.Final.Scope
	}
	return data, nil
}

func (c *ExecutionDataCollector) unit(d entities.LocateDescriptor, caller entities.SearchOptions, defaultOuter string) (ExecutionUnit, error) {
	strategy, err := newStrategy(d.Strategy, d.Attribute, c.search)
	if err != nil {
		return ExecutionUnit{}, err
	}
	locate := d.LocateOptions()
	if locate.OuterXPath == "" {
		locate.OuterXPath = defaultOuter
	}
	if err := locate.Validate(); err != nil {
		return ExecutionUnit{}, err
	}
	return ExecutionUnit{
		Strategy:      strategy,
		LocateOptions: locate,
		SearchOptions: caller.Specialize(d.SearchOptions()).Specialize(c.defaults),
	}, nil
}
