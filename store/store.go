// Package store is the transactional, per-model persistence layer described
// in spec §4.1: a row-per-model namespace with six logically independent
// slots (id, name, cloud, backlog, active, history) that a single
// transaction can read and rewrite atomically.
package store

import (
	"context"
	_ "embed"
	"log"
	"os"
	"testing"
	"time"

	"github.com/contenox/orchestrator/libdbexec"
	"github.com/contenox/orchestrator/orchestrator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

//go:embed schema.sql
var Schema string

// Store is the per-model transactional namespace contract. Append and
// Advance are the only two operations the request log (spec §4.2) needs; both
// run inside a single row-level transaction so the six slots stay consistent.
type Store interface {
	// ListModelIDs returns every non-reserved model id known to the store.
	ListModelIDs(ctx context.Context) ([]uuid.UUID, error)

	// LookupByName scans for a model with the given name, returning nil if none exists.
	LookupByName(ctx context.Context, name string) (*uuid.UUID, error)

	// CreateModel inserts a fresh model row. The caller has already verified
	// name uniqueness via LookupByName; the partial unique index in schema.sql
	// is the last line of defense against a racing insert.
	CreateModel(ctx context.Context, id uuid.UUID, name string, cloud orchestrator.CloudName, initialHistory []orchestrator.Completed) error

	// GetModel reads the full record for id. Returns *orchestrator.ModelLoadError if unknown.
	GetModel(ctx context.Context, id uuid.UUID) (*orchestrator.Model, error)

	// Append is spec §4.2's append(action): locks the model row, rejects if
	// already destroyed, and pushes a new Queued entry onto the backlog.
	Append(ctx context.Context, id uuid.UUID, action orchestrator.Action) (uuid.UUID, error)

	// Advance is spec §4.2's advance(completed_opt): optionally folds a
	// completed request into history, then promotes the backlog head (if any)
	// into active. completed may be nil for the idle/startup path.
	Advance(ctx context.Context, id uuid.UUID, completed *orchestrator.Completed) (*orchestrator.Active, error)

	// Discard is spec §4.4 step 2's failure path: the active request
	// identified by activeID is dropped without being recorded in history,
	// then the backlog head (if any) is promoted into active. Used when a
	// cloud adapter call fails, so the driver can move on to the next
	// queued entry instead of the active slot staying permanently occupied.
	Discard(ctx context.Context, id uuid.UUID, activeID uuid.UUID) (*orchestrator.Active, error)

	Close() error
}

type store struct {
	db libdbexec.DBManager
}

// New wraps a DBManager as a Store.
func New(db libdbexec.DBManager) Store {
	if db == nil {
		panic("store: New called with nil DBManager")
	}
	return &store{db: db}
}

func (s *store) Close() error {
	return s.db.Close()
}

func quiet() func() {
	null, _ := os.Open(os.DevNull)
	sout := os.Stdout
	serr := os.Stderr
	os.Stdout = null
	os.Stderr = null
	log.SetOutput(null)
	return func() {
		defer null.Close()
		os.Stdout = sout
		os.Stderr = serr
		log.SetOutput(os.Stderr)
	}
}

// SetupStore starts a disposable Postgres container, applies Schema, and
// returns a ready Store for tests.
func SetupStore(t *testing.T) (context.Context, Store) {
	t.Helper()

	unquiet := quiet()
	t.Cleanup(unquiet)

	ctx := context.Background()
	connStr, _, cleanup, err := libdbexec.SetupLocalInstance(ctx, "test", "test", "test")
	require.NoError(t, err)

	dbManager, err := libdbexec.NewPostgresDBManager(ctx, connStr, Schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, dbManager.Close())
		cleanup()
	})

	return ctx, New(dbManager)
}

// now is overridable in tests that need deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }
