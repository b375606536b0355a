// Package orchestrator holds the domain model shared by the store, the
// controller engine, and the cloud adapters: actions, the Queued/Active/
// Completed request lifecycle, the model record, and the derived state fold.
package orchestrator

import (
	"time"

	"github.com/google/uuid"
)

// CloudName identifies which adapter a model targets.
type CloudName string

const (
	CloudDummy      CloudName = "dummy"
	CloudKubernetes CloudName = "kubernetes"
	CloudAWS        CloudName = "aws"
)

// ActionKind discriminates the Action tagged variant.
type ActionKind string

const (
	ActionCreateModel    ActionKind = "create_model"
	ActionConfigureModel ActionKind = "configure_model"
	ActionDestroyModel   ActionKind = "destroy_model"
	ActionAddRune        ActionKind = "add_rune"
	ActionConfigureRune  ActionKind = "configure_rune"
	ActionRemoveRune     ActionKind = "remove_rune"
)

// Action is the tagged variant describing a single intent appended to a
// model's log. Only the fields relevant to Kind are populated; the rest are
// left at their zero value.
type Action struct {
	Kind ActionKind `json:"kind"`

	// CreateModel.name, AddRune.name, ConfigureRune.name, RemoveRune.name
	Name string `json:"name,omitempty"`
	// ConfigureModel.foo
	Foo *string `json:"foo,omitempty"`
	// AddRune.rune
	Rune *RuneBundle `json:"rune,omitempty"`
	// ConfigureRune.attribute
	Attribute string `json:"attribute,omitempty"`
	// ConfigureRune.value
	Value string `json:"value,omitempty"`
}

// NewCreateModel builds the implicit CreateModel action folded once at model creation.
func NewCreateModel(name string) Action {
	return Action{Kind: ActionCreateModel, Name: name}
}

// NewConfigureModel builds a ConfigureModel action.
func NewConfigureModel(foo string) Action {
	return Action{Kind: ActionConfigureModel, Foo: &foo}
}

// NewDestroyModel builds a DestroyModel action.
func NewDestroyModel() Action {
	return Action{Kind: ActionDestroyModel}
}

// NewAddRune builds an AddRune action.
func NewAddRune(name string, bundle *RuneBundle) Action {
	return Action{Kind: ActionAddRune, Name: name, Rune: bundle}
}

// NewConfigureRune builds a ConfigureRune action.
func NewConfigureRune(name, attribute, value string) Action {
	return Action{Kind: ActionConfigureRune, Name: name, Attribute: attribute, Value: value}
}

// NewRemoveRune builds a RemoveRune action.
func NewRemoveRune(name string) Action {
	return Action{Kind: ActionRemoveRune, Name: name}
}

// Queued is a request sitting in the backlog, not yet promoted.
type Queued struct {
	ID       uuid.UUID `json:"id"`
	Action   Action    `json:"action"`
	QueuedAt time.Time `json:"queuedAt"`
}

// Active is the single request currently being handled by a cloud adapter.
type Active struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	QueuedAt  time.Time `json:"queuedAt"`
	StartedAt time.Time `json:"startedAt"`
}

// FromQueued promotes a Queued request to Active at the given time.
func (q Queued) FromQueued(startedAt time.Time) Active {
	return Active{ID: q.ID, Action: q.Action, QueuedAt: q.QueuedAt, StartedAt: startedAt}
}

// Completed is a request that has been successfully handled; only these
// mutate derived state.
type Completed struct {
	ID          uuid.UUID `json:"id"`
	Action      Action    `json:"action"`
	QueuedAt    time.Time `json:"queuedAt"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// FromActive completes an Active request at the given time.
func (a Active) FromActive(completedAt time.Time) Completed {
	return Completed{ID: a.ID, Action: a.Action, QueuedAt: a.QueuedAt, StartedAt: a.StartedAt, CompletedAt: completedAt}
}

// Model is the full persisted record for one logical deployment.
type Model struct {
	ID      uuid.UUID   `json:"id"`
	Name    string      `json:"name"`
	Cloud   CloudName   `json:"cloud"`
	Backlog []Queued    `json:"backlog"`
	Active  *Active     `json:"active"`
	History []Completed `json:"history"`
}

// ModelStatus is the coarse lifecycle stage folded from history.
type ModelStatus string

const (
	StatusRequested ModelStatus = "Requested"
	StatusReady     ModelStatus = "Ready"
	StatusDestroyed ModelStatus = "Destroyed"
)

// RuneState is the derived, per-attribute configuration state of one attached rune.
type RuneState struct {
	// State maps attribute name to its current value; nil means "unset" (None).
	State map[string]*string `json:"state"`
}

// ModelState is the API-visible derived state: a pure left fold over history.
type ModelState struct {
	Status ModelStatus          `json:"status"`
	Config map[string]string    `json:"config"`
	Runes  map[string]RuneState `json:"runes"`
}

// RequestEntry is one flattened, externally visible entry of a model's
// combined history ++ active ++ backlog, in that presentation order.
type RequestEntry struct {
	ID          uuid.UUID  `json:"id"`
	Action      Action     `json:"action"`
	QueuedAt    time.Time  `json:"queuedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ProjectedModel is the API-facing read model for GET /models and GET /models/{id}.
type ProjectedModel struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Cloud    CloudName      `json:"cloud"`
	State    ModelState     `json:"state"`
	Requests []RequestEntry `json:"requests"`
}
