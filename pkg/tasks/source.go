package tasks

import (
	"fmt"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/dispatch"
	"mercator-hq/callisto/pkg/providers"
)

// Source builds runnable tasks from task ids.
type Source interface {
	// Build returns the task for the given id.
	Build(id int) dispatch.Task

	// Name identifies the source in logs.
	Name() string
}

// NewSource constructs the source selected by the configuration.
// The provider may be nil when the simulated source is selected.
func NewSource(cfg config.TasksConfig, provider providers.Provider) (Source, error) {
	switch cfg.Source {
	case "simulated":
		return NewSimulatedSource(cfg.Simulated), nil
	case "completion":
		if provider == nil {
			return nil, fmt.Errorf("completion source requires a provider")
		}
		return NewCompletionSource(provider, cfg.Prompt), nil
	default:
		return nil, fmt.Errorf("unknown task source %q", cfg.Source)
	}
}
