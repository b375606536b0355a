package store_test

import (
	"testing"

	"github.com/contenox/orchestrator/orchestrator"
	"github.com/contenox/orchestrator/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateModelEnforcesNameUniqueness(t *testing.T) {
	ctx, s := store.SetupStore(t)

	id1 := uuid.New()
	require.NoError(t, s.CreateModel(ctx, id1, "dup", orchestrator.CloudDummy, nil))

	id2 := uuid.New()
	err := s.CreateModel(ctx, id2, "dup", orchestrator.CloudDummy, nil)
	require.Error(t, err)

	var exists *orchestrator.ModelAlreadyExistsError
	require.ErrorAs(t, err, &exists)
	require.Equal(t, "dup", exists.Name)
}

func TestGetModelUnknownID(t *testing.T) {
	ctx, s := store.SetupStore(t)

	_, err := s.GetModel(ctx, uuid.New())
	require.Error(t, err)

	var loadErr *orchestrator.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestAppendRejectsAfterDestroy(t *testing.T) {
	ctx, s := store.SetupStore(t)

	id := uuid.New()
	require.NoError(t, s.CreateModel(ctx, id, "m", orchestrator.CloudDummy, nil))

	destroyReqID, err := s.Append(ctx, id, orchestrator.NewDestroyModel())
	require.NoError(t, err)

	active, err := s.Advance(ctx, id, nil)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, destroyReqID, active.ID)

	completed := active.FromActive(active.StartedAt)
	_, err = s.Advance(ctx, id, &completed)
	require.NoError(t, err)

	_, err = s.Append(ctx, id, orchestrator.NewConfigureModel("baz"))
	require.Error(t, err)
	var deletedErr *orchestrator.ModelAlreadyDeletedError
	require.ErrorAs(t, err, &deletedErr)
}

func TestAppendAndAdvanceOrdering(t *testing.T) {
	ctx, s := store.SetupStore(t)

	id := uuid.New()
	require.NoError(t, s.CreateModel(ctx, id, "m", orchestrator.CloudDummy, nil))

	r1, err := s.Append(ctx, id, orchestrator.NewConfigureModel("baz1"))
	require.NoError(t, err)
	r2, err := s.Append(ctx, id, orchestrator.NewConfigureModel("baz2"))
	require.NoError(t, err)

	active, err := s.Advance(ctx, id, nil)
	require.NoError(t, err)
	require.Equal(t, r1, active.ID)

	c1 := active.FromActive(active.StartedAt)
	active, err = s.Advance(ctx, id, &c1)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, r2, active.ID)

	c2 := active.FromActive(active.StartedAt)
	_, err = s.Advance(ctx, id, &c2)
	require.NoError(t, err)

	m, err := s.GetModel(ctx, id)
	require.NoError(t, err)
	require.Len(t, m.History, 2)
	require.Equal(t, r1, m.History[0].ID)
	require.Equal(t, r2, m.History[1].ID)
}

func TestAdvanceIdleWithEmptyBacklogReturnsNil(t *testing.T) {
	ctx, s := store.SetupStore(t)

	id := uuid.New()
	require.NoError(t, s.CreateModel(ctx, id, "m", orchestrator.CloudDummy, nil))

	active, err := s.Advance(ctx, id, nil)
	require.NoError(t, err)
	require.Nil(t, active)
}
