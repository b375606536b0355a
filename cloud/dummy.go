package cloud

import (
	"context"

	"github.com/contenox/orchestrator/orchestrator"
)

// Dummy performs no side effect and always succeeds; used for tests and the
// end-to-end scenarios in spec §8.
type Dummy struct{}

func NewDummy() *Dummy { return &Dummy{} }

func (d *Dummy) Handle(ctx context.Context, modelName string, active orchestrator.Active) (orchestrator.Completed, error) {
	return complete(active), nil
}
