package locator

import (
	"ui_automation/domain/entities"
)

// ExecutionUnit is one step ready to run.
type ExecutionUnit struct {
	Strategy      Strategy
	LocateOptions entities.LocateOptions
	SearchOptions entities.SearchOptions
}

// LayerExecutionUnit is an intermediate step with the resolver producing the
// root of the following step.
type LayerExecutionUnit struct {
	ExecutionUnit
	ContextResolver ContextResolver
}

// ExecutionData is everything a single Locate/LocateAll/IsAbsent call runs.
// It is built per call and discarded afterwards.
type ExecutionData struct {
	// Component is the registered name, used for lookups and diagnostics.
	Component   string
	ScopeSource entities.ScopeSource
	Safely      bool
	// SearchOptions are the caller's options, used for scope lookups.
	SearchOptions entities.SearchOptions
	Layers        []LayerExecutionUnit
	Final         ExecutionUnit
}
