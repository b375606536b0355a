// Package cloud implements the pluggable adapter interface from spec §4.3:
// each adapter maps an Active request to a Completed one by performing (or
// simulating) the external side effect.
package cloud

import (
	"context"
	"time"

	"github.com/contenox/orchestrator/orchestrator"
)

// Adapter performs the external side effect for one active request and
// returns the resulting Completed record. modelName identifies the owning
// model (e.g. as a Kubernetes namespace name); it is metadata the driver
// already holds, not part of the Action itself. Implementations must not
// mutate controller state directly and must treat a cancelled context as
// "this call never happened" — no partial completion is reported on
// cancellation.
type Adapter interface {
	Handle(ctx context.Context, modelName string, active orchestrator.Active) (orchestrator.Completed, error)
}

// Registry resolves a CloudName to its Adapter. Resolve returns
// UnknownCloudError for anything not registered.
type Registry map[orchestrator.CloudName]Adapter

// Resolve looks up the adapter for name, or UnknownCloudError if none is registered.
func (r Registry) Resolve(name orchestrator.CloudName) (Adapter, error) {
	a, ok := r[name]
	if !ok {
		return nil, &orchestrator.UnknownCloudError{Name: string(name)}
	}
	return a, nil
}

// complete builds the Completed record for a successful adapter call.
func complete(active orchestrator.Active) orchestrator.Completed {
	return active.FromActive(time.Now().UTC())
}
