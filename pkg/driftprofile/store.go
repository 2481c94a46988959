package driftprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/tarsy/internal/xerrors"
)

// Store persists and retrieves DriftProfile rows against the
// drift_profile table. All queries are parameterized SQL; no ORM sits
// between this type and Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert persists a brand-new profile row. Profiles are created once by
// client code and thereafter mutated only via UpdateStatus/AdvanceNextRun.
func (s *Store) Insert(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return xerrors.Config("driftprofile.Insert validate", err)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return xerrors.Config("driftprofile.Insert marshal", err)
	}
	const q = `
		INSERT INTO drift_profile (entity_id, space, name, version, drift_type, profile, active, schedule, next_run)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = s.pool.Exec(ctx, q,
		p.EntityID, p.Config.Space, p.Config.Name, p.Config.Version, string(p.Config.DriftType),
		body, p.Status == StatusActive, p.Config.Schedule, p.NextRun.UTC())
	if err != nil {
		return xerrors.SQL("driftprofile.Insert", err)
	}
	return nil
}

// ClaimDue atomically claims one due, active profile using
// SELECT ... FOR UPDATE SKIP LOCKED. The caller is expected to run this
// inside a transaction (tx) obtained from the pool and to commit or
// rollback after processing; this guarantees at-most-one worker claims
// a given row even across scheduler replicas.
func (s *Store) ClaimDue(ctx context.Context, tx pgx.Tx, now time.Time) (*Profile, error) {
	const q = `
		SELECT entity_id, profile
		FROM drift_profile
		WHERE active AND next_run <= $1
		ORDER BY next_run
		FOR UPDATE SKIP LOCKED
		LIMIT 1`
	row := tx.QueryRow(ctx, q, now.UTC())

	var entityID string
	var body []byte
	if err := row.Scan(&entityID, &body); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, xerrors.SQL("driftprofile.ClaimDue", err)
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, xerrors.SQL("driftprofile.ClaimDue unmarshal", err)
	}
	p.EntityID = entityID
	return &p, nil
}

// AdvanceNextRun updates next_run within the same transaction as the
// profile's claim, so the update is linearized with any alert inserts
// made by the caller.
func (s *Store) AdvanceNextRun(ctx context.Context, tx pgx.Tx, entityID string, next time.Time) error {
	const q = `UPDATE drift_profile SET next_run = $1, previous_run = next_run WHERE entity_id = $2`
	_, err := tx.Exec(ctx, q, next.UTC(), entityID)
	if err != nil {
		return xerrors.SQL("driftprofile.AdvanceNextRun", err)
	}
	return nil
}

// UpdateStatus flips a profile's active flag (administrative action).
func (s *Store) UpdateStatus(ctx context.Context, entityID string, status Status) error {
	const q = `UPDATE drift_profile SET active = $1 WHERE entity_id = $2`
	_, err := s.pool.Exec(ctx, q, status == StatusActive, entityID)
	if err != nil {
		return xerrors.SQL("driftprofile.UpdateStatus", err)
	}
	return nil
}

// Delete removes a profile row (administrative action only).
func (s *Store) Delete(ctx context.Context, entityID string) error {
	const q = `DELETE FROM drift_profile WHERE entity_id = $1`
	_, err := s.pool.Exec(ctx, q, entityID)
	if err != nil {
		return xerrors.SQL("driftprofile.Delete", err)
	}
	return nil
}

// Get retrieves one profile by entity ID.
func (s *Store) Get(ctx context.Context, entityID string) (*Profile, error) {
	const q = `SELECT profile FROM drift_profile WHERE entity_id = $1`
	var body []byte
	if err := s.pool.QueryRow(ctx, q, entityID).Scan(&body); err != nil {
		if err == pgx.ErrNoRows {
			return nil, xerrors.SQL("driftprofile.Get", fmt.Errorf("entity %q not found", entityID))
		}
		return nil, xerrors.SQL("driftprofile.Get", err)
	}
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, xerrors.SQL("driftprofile.Get unmarshal", err)
	}
	p.EntityID = entityID
	return &p, nil
}

// Page is one page of a keyset-paginated listing.
type Page struct {
	Profiles   []*Profile
	NextCursor *Cursor
	PrevCursor *Cursor
}

// Cursor identifies a row's position for forward/backward keyset
// pagination over (created_at, id).
type Cursor struct {
	CreatedAt time.Time
	EntityID  string
}

// ListBySpace lists profiles in a space, paginated forward from the given
// cursor (nil for the first page).
func (s *Store) ListBySpace(ctx context.Context, space string, after *Cursor, limit int) (*Page, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows pgx.Rows
	var err error
	if after == nil {
		const q = `
			SELECT entity_id, profile, created_at FROM drift_profile
			WHERE space = $1 ORDER BY created_at, entity_id LIMIT $2`
		rows, err = s.pool.Query(ctx, q, space, limit+1)
	} else {
		const q = `
			SELECT entity_id, profile, created_at FROM drift_profile
			WHERE space = $1 AND (created_at, entity_id) > ($2, $3)
			ORDER BY created_at, entity_id LIMIT $4`
		rows, err = s.pool.Query(ctx, q, space, after.CreatedAt.UTC(), after.EntityID, limit+1)
	}
	if err != nil {
		return nil, xerrors.SQL("driftprofile.ListBySpace", err)
	}
	defer rows.Close()

	var out []*Profile
	var cursors []Cursor
	for rows.Next() {
		var entityID string
		var body []byte
		var createdAt time.Time
		if err := rows.Scan(&entityID, &body, &createdAt); err != nil {
			return nil, xerrors.SQL("driftprofile.ListBySpace scan", err)
		}
		var p Profile
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, xerrors.SQL("driftprofile.ListBySpace unmarshal", err)
		}
		p.EntityID = entityID
		out = append(out, &p)
		cursors = append(cursors, Cursor{CreatedAt: createdAt, EntityID: entityID})
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.SQL("driftprofile.ListBySpace rows", err)
	}

	page := &Page{}
	if len(out) > limit {
		out = out[:limit]
		cursors = cursors[:limit]
		next := cursors[len(cursors)-1]
		page.NextCursor = &next
	}
	page.Profiles = out
	if after != nil {
		page.PrevCursor = after
	}
	return page, nil
}

// InsertAlert inserts a row into drift_alert keyed on entity_id, timestamp
// and JSON body.
func InsertAlert(ctx context.Context, tx pgx.Tx, entityID string, body map[string]string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return xerrors.Config("driftprofile.InsertAlert marshal", err)
	}
	const q = `
		INSERT INTO drift_alert (entity_id, created_at, active, alert)
		VALUES ($1, $2, TRUE, $3)`
	_, err = tx.Exec(ctx, q, entityID, time.Now().UTC(), payload)
	if err != nil {
		return xerrors.SQL("driftprofile.InsertAlert", err)
	}
	return nil
}
