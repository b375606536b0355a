package orchestrator_test

import (
	"testing"
	"time"

	"github.com/contenox/orchestrator/orchestrator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func completed(action orchestrator.Action) orchestrator.Completed {
	now := time.Now().UTC()
	return orchestrator.Completed{ID: uuid.New(), Action: action, QueuedAt: now, StartedAt: now, CompletedAt: now}
}

func TestDeriveStateEmptyHistoryIsRequested(t *testing.T) {
	state := orchestrator.DeriveState(nil)
	require.Equal(t, orchestrator.StatusRequested, state.Status)
	require.Empty(t, state.Config)
	require.Empty(t, state.Runes)
}

func TestDeriveStateCreateModelMakesReady(t *testing.T) {
	history := []orchestrator.Completed{completed(orchestrator.NewCreateModel("m"))}
	state := orchestrator.DeriveState(history)
	require.Equal(t, orchestrator.StatusReady, state.Status)
}

func TestDeriveStateDestroyIsTerminal(t *testing.T) {
	history := []orchestrator.Completed{
		completed(orchestrator.NewCreateModel("m")),
		completed(orchestrator.NewConfigureModel("baz")),
		completed(orchestrator.NewDestroyModel()),
	}
	state := orchestrator.DeriveState(history)
	require.Equal(t, orchestrator.StatusDestroyed, state.Status)
	require.Equal(t, "baz", state.Config["foo"])
}

func TestDeriveStateAddRuneSeedsDefaults(t *testing.T) {
	bundle := &orchestrator.RuneBundle{
		Metadata: orchestrator.Metadata{
			Name: "mariadb",
			Config: map[string]orchestrator.ConfigItem{
				"database":      {Kind: orchestrator.ConfigString, Default: "mysql-db"},
				"user":          {Kind: orchestrator.ConfigString, Default: "mysql-user"},
				"password":      {Kind: orchestrator.ConfigSecret},
				"root-password": {Kind: orchestrator.ConfigSecret},
			},
		},
	}
	history := []orchestrator.Completed{completed(orchestrator.NewAddRune("mariadb", bundle))}
	state := orchestrator.DeriveState(history)

	rs, ok := state.Runes["mariadb"]
	require.True(t, ok)
	require.Equal(t, "mysql-db", *rs.State["database"])
	require.Equal(t, "mysql-user", *rs.State["user"])
	require.Nil(t, rs.State["password"])
	require.Nil(t, rs.State["root-password"])
}

func TestDeriveStateConfigureRuneSetsAttribute(t *testing.T) {
	bundle := &orchestrator.RuneBundle{
		Metadata: orchestrator.Metadata{
			Config: map[string]orchestrator.ConfigItem{"password": {Kind: orchestrator.ConfigSecret}},
		},
	}
	history := []orchestrator.Completed{
		completed(orchestrator.NewAddRune("mariadb", bundle)),
		completed(orchestrator.NewConfigureRune("mariadb", "password", "pw")),
	}
	state := orchestrator.DeriveState(history)
	require.Equal(t, "pw", *state.Runes["mariadb"].State["password"])
}

// A ConfigureRune referencing a rune key that was never added (or was already
// removed) is silently dropped rather than panicking: DeriveState has no
// error channel, so an invariant violation here is absorbed, not surfaced.
func TestDeriveStateConfigureRuneOnAbsentKeyIsSilentlySkipped(t *testing.T) {
	history := []orchestrator.Completed{
		completed(orchestrator.NewConfigureRune("ghost", "password", "pw")),
	}
	state := orchestrator.DeriveState(history)
	require.Empty(t, state.Runes)
}

func TestDeriveStateRemoveRuneDeletesEntry(t *testing.T) {
	bundle := &orchestrator.RuneBundle{}
	history := []orchestrator.Completed{
		completed(orchestrator.NewAddRune("mariadb", bundle)),
		completed(orchestrator.NewRemoveRune("mariadb")),
	}
	state := orchestrator.DeriveState(history)
	require.NotContains(t, state.Runes, "mariadb")
}

func TestDeriveStateIsIdempotentOverSameHistory(t *testing.T) {
	history := []orchestrator.Completed{
		completed(orchestrator.NewCreateModel("m")),
		completed(orchestrator.NewConfigureModel("baz")),
	}
	first := orchestrator.DeriveState(history)
	second := orchestrator.DeriveState(history)
	require.Equal(t, first, second)
}

func TestProjectOrdersHistoryThenActiveThenBacklog(t *testing.T) {
	now := time.Now().UTC()
	histEntry := completed(orchestrator.NewCreateModel("m"))
	activeReq := orchestrator.Active{ID: uuid.New(), Action: orchestrator.NewConfigureModel("x"), QueuedAt: now, StartedAt: now}
	backlogReq := orchestrator.Queued{ID: uuid.New(), Action: orchestrator.NewDestroyModel(), QueuedAt: now}

	model := &orchestrator.Model{
		History: []orchestrator.Completed{histEntry},
		Active:  &activeReq,
		Backlog: []orchestrator.Queued{backlogReq},
	}

	entries := orchestrator.Project(model)
	require.Len(t, entries, 3)
	require.Equal(t, histEntry.ID, entries[0].ID)
	require.NotNil(t, entries[0].CompletedAt)
	require.Equal(t, activeReq.ID, entries[1].ID)
	require.Nil(t, entries[1].CompletedAt)
	require.NotNil(t, entries[1].StartedAt)
	require.Equal(t, backlogReq.ID, entries[2].ID)
	require.Nil(t, entries[2].StartedAt)
}

func TestHasDestroyed(t *testing.T) {
	require.False(t, orchestrator.HasDestroyed(nil))
	require.True(t, orchestrator.HasDestroyed([]orchestrator.Completed{completed(orchestrator.NewDestroyModel())}))
}

func TestRuneBundleInitialStateDefaultsValueKindsAndUnsetsSecrets(t *testing.T) {
	bundle := &orchestrator.RuneBundle{
		Metadata: orchestrator.Metadata{
			Config: map[string]orchestrator.ConfigItem{
				"count":  {Kind: orchestrator.ConfigInteger, Default: "3"},
				"secret": {Kind: orchestrator.ConfigSecret},
			},
		},
	}
	state := bundle.InitialState()
	require.Equal(t, "3", *state.State["count"])
	require.Nil(t, state.State["secret"])
}
