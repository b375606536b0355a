// Package controller implements the per-model action-queue engine of spec
// §4.4: a value-like handle exposing CreateModel/GetModel/UpdateModel/
// DeleteModel/AddRune, backed by a single driver goroutine that promotes each
// model's backlog through its cloud adapter one request at a time.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/contenox/orchestrator/cloud"
	"github.com/contenox/orchestrator/metrics"
	"github.com/contenox/orchestrator/orchestrator"
	"github.com/contenox/orchestrator/store"
	"github.com/contenox/orchestrator/tracker"
	"github.com/google/uuid"
)

// IdleQuantum is how long the driver loop sleeps between rehydrate passes
// when it found no newly-promoted work (spec §4.4 step 3).
const IdleQuantum = 1 * time.Second

// pendingCall is one in-flight adapter invocation the driver is waiting on.
type pendingCall struct {
	active orchestrator.Active
	result chan adapterResult
}

type adapterResult struct {
	completed orchestrator.Completed
	err       error
}

// Controller is a handle onto the store and adapter registry, shared by
// pointer (it holds a mutex and must not be copied); the
// inFlight map is the only piece of process-local, non-persisted state (spec
// §4.4's "State"). Safe for concurrent use from multiple HTTP handlers; the
// driver loop is meant to run as a single long-lived goroutine per process.
type Controller struct {
	store    store.Store
	adapters cloud.Registry
	tracker  tracker.ActivityTracker

	mu       sync.Mutex
	inFlight map[uuid.UUID]*pendingCall
}

// New builds a Controller. t may be nil, in which case a NoopTracker is used.
func New(s store.Store, adapters cloud.Registry, t tracker.ActivityTracker) *Controller {
	if t == nil {
		t = tracker.NoopTracker{}
	}
	return &Controller{
		store:    s,
		adapters: adapters,
		tracker:  t,
		inFlight: make(map[uuid.UUID]*pendingCall),
	}
}

// CreateModel writes a fresh model record directly (spec §4.4: "No CreateModel
// request is queued; creation is direct"), folding one synthetic completed
// CreateModel action into history per the §9 Open Question decision.
func (c *Controller) CreateModel(ctx context.Context, cloudName orchestrator.CloudName, name string) (*orchestrator.Model, error) {
	reportErr, end := c.tracker.Start(ctx, "CreateModel", name)
	defer end()

	if _, err := c.adapters.Resolve(cloudName); err != nil {
		reportErr(err)
		return nil, err
	}

	existing, err := c.store.LookupByName(ctx, name)
	if err != nil {
		reportErr(err)
		return nil, err
	}
	if existing != nil {
		err := &orchestrator.ModelAlreadyExistsError{Name: name}
		reportErr(err)
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()
	initial := []orchestrator.Completed{{
		ID:          uuid.New(),
		Action:      orchestrator.NewCreateModel(name),
		QueuedAt:    now,
		StartedAt:   now,
		CompletedAt: now,
	}}
	if err := c.store.CreateModel(ctx, id, name, cloudName, initial); err != nil {
		reportErr(err)
		return nil, err
	}

	model, err := c.store.GetModel(ctx, id)
	if err != nil {
		reportErr(err)
		return nil, err
	}
	return model, nil
}

// ListModelIDs returns every known model id, for the GET /models listing
// endpoint; the controller itself has no separate list-projection operation
// (spec §4.4 names only per-id reads).
func (c *Controller) ListModelIDs(ctx context.Context) ([]uuid.UUID, error) {
	return c.store.ListModelIDs(ctx)
}

// GetModel reads the full record, reporting any store error (not-found or
// otherwise) as the domain-level ModelLoadError from the §7 taxonomy.
func (c *Controller) GetModel(ctx context.Context, id uuid.UUID) (*orchestrator.Model, error) {
	model, err := c.store.GetModel(ctx, id)
	if err != nil {
		return nil, &orchestrator.ModelLoadError{ID: id.String()}
	}
	return model, nil
}

// UpdateModel appends action to id's backlog and returns the new request id.
func (c *Controller) UpdateModel(ctx context.Context, id uuid.UUID, action orchestrator.Action) (uuid.UUID, error) {
	reportErr, end := c.tracker.Start(ctx, "UpdateModel", id.String(), "kind", action.Kind)
	defer end()

	reqID, err := c.store.Append(ctx, id, action)
	if err != nil {
		reportErr(err)
		return uuid.Nil, err
	}
	return reqID, nil
}

// DeleteModel is UpdateModel(id, DestroyModel) (spec §4.4).
func (c *Controller) DeleteModel(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return c.UpdateModel(ctx, id, orchestrator.NewDestroyModel())
}

// AddRune is UpdateModel(id, AddRune{name, rune}) (spec §4.4).
func (c *Controller) AddRune(ctx context.Context, id uuid.UUID, name string, bundle *orchestrator.RuneBundle) (uuid.UUID, error) {
	return c.UpdateModel(ctx, id, orchestrator.NewAddRune(name, bundle))
}

// ConfigureRune appends a ConfigureRune action; not named explicitly among
// spec §4.4's public operations but required by the PATCH route in §6.
func (c *Controller) ConfigureRune(ctx context.Context, id uuid.UUID, name, attribute, value string) (uuid.UUID, error) {
	return c.UpdateModel(ctx, id, orchestrator.NewConfigureRune(name, attribute, value))
}

// RemoveRune appends a RemoveRune action.
func (c *Controller) RemoveRune(ctx context.Context, id uuid.UUID, name string) (uuid.UUID, error) {
	return c.UpdateModel(ctx, id, orchestrator.NewRemoveRune(name))
}

// ConfigureModel appends a ConfigureModel action.
func (c *Controller) ConfigureModel(ctx context.Context, id uuid.UUID, foo string) (uuid.UUID, error) {
	return c.UpdateModel(ctx, id, orchestrator.NewConfigureModel(foo))
}

// Run drives the controller's single promotion loop until ctx is cancelled
// (spec §4.4's driver loop: rehydrate, drain completions, idle-sleep).
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		progressed, err := c.tick(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", orchestrator.ErrUnexpectedShutdown, err)
		}
		if !progressed {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(IdleQuantum):
			}
		}
	}
}

// tick runs one rehydrate+drain pass and reports whether any model made
// forward progress (so Run can skip the idle sleep when there's more work).
func (c *Controller) tick(ctx context.Context) (bool, error) {
	metrics.DriverIterations.Inc()

	ids, err := c.store.ListModelIDs(ctx)
	if err != nil {
		return false, err
	}

	progressed := false

	for _, id := range ids {
		if c.drainIfReady(ctx, id) {
			progressed = true
		}
	}

	for _, id := range ids {
		if c.hasInFlight(id) {
			continue
		}
		model, err := c.store.GetModel(ctx, id)
		if err != nil {
			continue
		}
		if orchestrator.HasDestroyed(model.History) {
			continue
		}
		if model.Active != nil {
			// Restart equivalence (spec §5/§8): a prior process left this
			// active request persisted with no goroutine backing it. Advance
			// only promotes when active is empty, so re-spawn the adapter
			// call directly instead; Handle is required to treat a
			// cancelled context as "never happened" (spec §4.3), which is
			// exactly what a crash mid-call is equivalent to.
			c.spawn(ctx, id, model.Cloud, *model.Active)
			progressed = true
			continue
		}
		active, err := c.store.Advance(ctx, id, nil)
		if err != nil {
			continue
		}
		if active != nil {
			c.spawn(ctx, id, model.Cloud, *active)
			progressed = true
		}
	}

	return progressed, nil
}

func (c *Controller) hasInFlight(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[id]
	return ok
}

// drainIfReady checks id's in-flight call without blocking; if it has
// produced a result, folds it into the store and spawns the next one.
func (c *Controller) drainIfReady(ctx context.Context, id uuid.UUID) bool {
	c.mu.Lock()
	call, ok := c.inFlight[id]
	c.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case res := <-call.result:
		c.mu.Lock()
		delete(c.inFlight, id)
		c.mu.Unlock()

		model, err := c.store.GetModel(ctx, id)
		if err != nil {
			return true
		}

		if res.err != nil {
			// Adapter failure: the active request is discarded, not moved to
			// history (spec §4.4 step 2 / §7). Discard clears the active
			// slot itself and promotes the next backlog entry, since Advance
			// only promotes when active is already empty.
			reportErr, end := c.tracker.Start(ctx, "AdapterCall", id.String())
			reportErr(res.err)
			end()

			active, err := c.store.Discard(ctx, id, call.active.ID)
			if err != nil {
				return true
			}
			if active != nil {
				c.spawn(ctx, id, model.Cloud, *active)
			}
			return true
		}

		active, err := c.store.Advance(ctx, id, &res.completed)
		if err != nil {
			return true
		}
		if active != nil {
			c.spawn(ctx, id, model.Cloud, *active)
		}
		return true
	default:
		return false
	}
}

// spawn launches the adapter call for active in its own goroutine and
// records it in inFlight, guaranteeing at most one in-flight call per model.
func (c *Controller) spawn(ctx context.Context, id uuid.UUID, cloudName orchestrator.CloudName, active orchestrator.Active) {
	adapter, err := c.adapters.Resolve(cloudName)
	if err != nil {
		return
	}

	model, err := c.store.GetModel(ctx, id)
	modelName := ""
	if err == nil {
		modelName = model.Name
	}

	call := &pendingCall{active: active, result: make(chan adapterResult, 1)}

	c.mu.Lock()
	c.inFlight[id] = call
	c.mu.Unlock()
	metrics.InFlightAdapterCalls.Inc()

	go func() {
		start := time.Now()
		completed, err := adapter.Handle(ctx, modelName, active)
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.AdapterCallDuration.WithLabelValues(string(cloudName), outcome).Observe(time.Since(start).Seconds())
		metrics.InFlightAdapterCalls.Dec()
		call.result <- adapterResult{completed: completed, err: err}
	}()
}
