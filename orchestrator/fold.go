package orchestrator

// DeriveState folds a model's history left-to-right into its API-visible
// ModelState. It never consults active or backlog; those only feed the
// request list (see Project). Repeated calls with the same history are
// idempotent by construction (pure function of its input).
func DeriveState(history []Completed) ModelState {
	state := ModelState{
		Status: StatusRequested,
		Config: map[string]string{},
		Runes:  map[string]RuneState{},
	}

	for _, c := range history {
		switch c.Action.Kind {
		case ActionCreateModel:
			state.Status = StatusReady
		case ActionConfigureModel:
			if c.Action.Foo != nil {
				state.Config["foo"] = *c.Action.Foo
			}
		case ActionDestroyModel:
			state.Status = StatusDestroyed
		case ActionAddRune:
			if c.Action.Rune != nil {
				state.Runes[c.Action.Name] = c.Action.Rune.InitialState()
			}
		case ActionConfigureRune:
			rs, ok := state.Runes[c.Action.Name]
			if !ok {
				// A ConfigureRune referencing an absent key is skipped
				// without an error: DeriveState has no error channel, and
				// Append does not check rune keys.
				continue
			}
			value := c.Action.Value
			rs.State[c.Action.Attribute] = &value
			state.Runes[c.Action.Name] = rs
		case ActionRemoveRune:
			delete(state.Runes, c.Action.Name)
		}
	}

	return state
}

// Project flattens history ++ active? ++ backlog into the externally visible
// ordered request list.
func Project(m *Model) []RequestEntry {
	entries := make([]RequestEntry, 0, len(m.History)+len(m.Backlog)+1)

	for _, c := range m.History {
		started := c.StartedAt
		completed := c.CompletedAt
		entries = append(entries, RequestEntry{
			ID:          c.ID,
			Action:      c.Action,
			QueuedAt:    c.QueuedAt,
			StartedAt:   &started,
			CompletedAt: &completed,
		})
	}

	if m.Active != nil {
		started := m.Active.StartedAt
		entries = append(entries, RequestEntry{
			ID:        m.Active.ID,
			Action:    m.Active.Action,
			QueuedAt:  m.Active.QueuedAt,
			StartedAt: &started,
		})
	}

	for _, q := range m.Backlog {
		entries = append(entries, RequestEntry{
			ID:       q.ID,
			Action:   q.Action,
			QueuedAt: q.QueuedAt,
		})
	}

	return entries
}

// ProjectModel builds the full API-facing view of a persisted model.
func ProjectModel(m *Model) ProjectedModel {
	return ProjectedModel{
		ID:       m.ID,
		Name:     m.Name,
		Cloud:    m.Cloud,
		State:    DeriveState(m.History),
		Requests: Project(m),
	}
}

// HasDestroyed reports whether history already contains a completed DestroyModel.
func HasDestroyed(history []Completed) bool {
	for _, c := range history {
		if c.Action.Kind == ActionDestroyModel {
			return true
		}
	}
	return false
}
