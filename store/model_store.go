package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/contenox/orchestrator/libdbexec"
	"github.com/contenox/orchestrator/orchestrator"
	"github.com/google/uuid"
)

func (s *store) ListModelIDs(ctx context.Context) ([]uuid.UUID, error) {
	exec := s.db.WithoutTransaction()
	rows, err := exec.QueryContext(ctx, `SELECT id FROM models`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) LookupByName(ctx context.Context, name string) (*uuid.UUID, error) {
	exec := s.db.WithoutTransaction()
	var id uuid.UUID
	err := exec.QueryRowContext(ctx, `SELECT id FROM models WHERE name = $1 AND NOT destroyed`, name).Scan(&id)
	if errors.Is(err, libdbexec.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *store) CreateModel(ctx context.Context, id uuid.UUID, name string, cloud orchestrator.CloudName, initialHistory []orchestrator.Completed) error {
	historyJSON, err := json.Marshal(initialHistory)
	if err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}

	exec, commit, release, err := s.db.WithTransaction(ctx)
	if err != nil {
		return err
	}
	defer release()

	ts := now()
	_, err = exec.ExecContext(ctx, `
		INSERT INTO models (id, name, cloud, backlog, active, history, destroyed, created_at, updated_at)
		VALUES ($1, $2, $3, '[]', NULL, $4, FALSE, $5, $5)`,
		id, name, string(cloud), historyJSON, ts,
	)
	if err != nil {
		if errors.Is(err, libdbexec.ErrUniqueViolation) {
			return &orchestrator.ModelAlreadyExistsError{Name: name}
		}
		return err
	}

	return commit(ctx)
}

func (s *store) GetModel(ctx context.Context, id uuid.UUID) (*orchestrator.Model, error) {
	exec := s.db.WithoutTransaction()
	return readModel(ctx, exec, id)
}

func readModel(ctx context.Context, exec libdbexec.Exec, id uuid.UUID) (*orchestrator.Model, error) {
	var name, cloud string
	var backlogJSON, historyJSON []byte
	var activeJSON sql.NullString

	err := exec.QueryRowContext(ctx, `
		SELECT name, cloud, backlog, active, history FROM models WHERE id = $1`,
		id,
	).Scan(&name, &cloud, &backlogJSON, &activeJSON, &historyJSON)
	if errors.Is(err, libdbexec.ErrNotFound) {
		return nil, &orchestrator.ModelLoadError{ID: id.String()}
	}
	if err != nil {
		return nil, err
	}

	m := &orchestrator.Model{ID: id, Name: name, Cloud: orchestrator.CloudName(cloud)}
	if err := json.Unmarshal(backlogJSON, &m.Backlog); err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	if err := json.Unmarshal(historyJSON, &m.History); err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	if activeJSON.Valid {
		var a orchestrator.Active
		if err := json.Unmarshal([]byte(activeJSON.String), &a); err != nil {
			return nil, fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
		}
		m.Active = &a
	}
	return m, nil
}

// Append locks the model row, rejects appends past a completed DestroyModel,
// and pushes a new Queued entry onto the backlog, all inside one transaction.
func (s *store) Append(ctx context.Context, id uuid.UUID, action orchestrator.Action) (uuid.UUID, error) {
	exec, commit, release, err := s.db.WithTransaction(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	m, destroyed, err := lockModel(ctx, exec, id)
	if err != nil {
		return uuid.Nil, err
	}
	if destroyed {
		return uuid.Nil, &orchestrator.ModelAlreadyDeletedError{ID: id.String()}
	}

	reqID := uuid.New()
	m.Backlog = append(m.Backlog, orchestrator.Queued{ID: reqID, Action: action, QueuedAt: now()})

	if err := writeBacklogAndActive(ctx, exec, id, m); err != nil {
		return uuid.Nil, err
	}

	if err := commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return reqID, nil
}

// Advance implements spec §4.2's advance: optionally fold a completed request
// into history, then promote the backlog head into active.
func (s *store) Advance(ctx context.Context, id uuid.UUID, completed *orchestrator.Completed) (*orchestrator.Active, error) {
	exec, commit, release, err := s.db.WithTransaction(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	m, _, err := lockModel(ctx, exec, id)
	if err != nil {
		return nil, err
	}

	if completed != nil {
		if m.Active == nil || m.Active.ID != completed.ID {
			return nil, &orchestrator.ExistingActiveTaskError{ActiveID: completed.ID.String()}
		}
		m.History = append(m.History, *completed)
		m.Active = nil
	}

	var newActive *orchestrator.Active
	if m.Active == nil && len(m.Backlog) > 0 {
		head := m.Backlog[0]
		m.Backlog = m.Backlog[1:]
		a := head.FromQueued(now())
		m.Active = &a
		newActive = &a
	}

	destroyed := orchestrator.HasDestroyed(m.History)
	if err := writeFull(ctx, exec, id, m, destroyed); err != nil {
		return nil, err
	}

	if err := commit(ctx); err != nil {
		return nil, err
	}
	return newActive, nil
}

// Discard implements spec §4.4 step 2: the active request is dropped, not
// folded into history, and the driver proceeds to the next queued entry.
// activeID guards against discarding a request that Advance has already
// completed or replaced out from under a racing caller.
func (s *store) Discard(ctx context.Context, id uuid.UUID, activeID uuid.UUID) (*orchestrator.Active, error) {
	exec, commit, release, err := s.db.WithTransaction(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	m, _, err := lockModel(ctx, exec, id)
	if err != nil {
		return nil, err
	}

	if m.Active == nil || m.Active.ID != activeID {
		return nil, &orchestrator.ExistingActiveTaskError{ActiveID: activeID.String()}
	}
	m.Active = nil

	var newActive *orchestrator.Active
	if len(m.Backlog) > 0 {
		head := m.Backlog[0]
		m.Backlog = m.Backlog[1:]
		a := head.FromQueued(now())
		m.Active = &a
		newActive = &a
	}

	destroyed := orchestrator.HasDestroyed(m.History)
	if err := writeFull(ctx, exec, id, m, destroyed); err != nil {
		return nil, err
	}

	if err := commit(ctx); err != nil {
		return nil, err
	}
	return newActive, nil
}

// lockModel reads a model row with FOR UPDATE, giving the caller exclusive
// write access for the remainder of the transaction (this is what makes
// Append/Advance linearizable per model while different models proceed in
// parallel).
func lockModel(ctx context.Context, exec libdbexec.Exec, id uuid.UUID) (*orchestrator.Model, bool, error) {
	var name, cloud string
	var backlogJSON, historyJSON []byte
	var activeJSON sql.NullString
	var destroyed bool

	err := exec.QueryRowContext(ctx, `
		SELECT name, cloud, backlog, active, history, destroyed
		FROM models WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&name, &cloud, &backlogJSON, &activeJSON, &historyJSON, &destroyed)
	if errors.Is(err, libdbexec.ErrNotFound) {
		return nil, false, &orchestrator.ModelLoadError{ID: id.String()}
	}
	if err != nil {
		return nil, false, err
	}

	m := &orchestrator.Model{ID: id, Name: name, Cloud: orchestrator.CloudName(cloud)}
	if err := json.Unmarshal(backlogJSON, &m.Backlog); err != nil {
		return nil, false, fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	if err := json.Unmarshal(historyJSON, &m.History); err != nil {
		return nil, false, fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	if activeJSON.Valid {
		var a orchestrator.Active
		if err := json.Unmarshal([]byte(activeJSON.String), &a); err != nil {
			return nil, false, fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
		}
		m.Active = &a
	}
	return m, destroyed, nil
}

func writeBacklogAndActive(ctx context.Context, exec libdbexec.Exec, id uuid.UUID, m *orchestrator.Model) error {
	backlogJSON, err := json.Marshal(m.Backlog)
	if err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	_, err = exec.ExecContext(ctx, `UPDATE models SET backlog = $1, updated_at = $2 WHERE id = $3`, backlogJSON, now(), id)
	return err
}

func writeFull(ctx context.Context, exec libdbexec.Exec, id uuid.UUID, m *orchestrator.Model, destroyed bool) error {
	backlogJSON, err := json.Marshal(m.Backlog)
	if err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	historyJSON, err := json.Marshal(m.History)
	if err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	var activeJSON []byte
	if m.Active != nil {
		activeJSON, err = json.Marshal(m.Active)
		if err != nil {
			return fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
		}
	}
	_, err = exec.ExecContext(ctx, `
		UPDATE models SET backlog = $1, active = $2, history = $3, destroyed = $4, updated_at = $5
		WHERE id = $6`,
		backlogJSON, activeJSON, historyJSON, destroyed, now(), id,
	)
	return err
}
