package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/ports"
)

// ErrDuplicate is returned when a record with the same ID already exists.
var ErrDuplicate = errors.New("already exists")

// stateTransitions maps action terms to the resource state they leave
// behind. Terms not listed keep the current state.
var stateTransitions = map[string]string{
	"start":   "active",
	"stop":    "inactive",
	"restart": "active",
	"suspend": "suspended",
	"up":      "active",
	"down":    "inactive",
	"online":  "online",
	"offline": "offline",
}

// Store implements ports.Backend using SQLite. Mixins and attributes
// persist as JSON columns; uniqueness probes run against the attribute
// JSON with json_extract.
type Store struct {
	db  *DB
	now func() time.Time
}

// NewStore creates a new SQLite entity store.
func NewStore(db *DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock substitutes the time source (for testing).
func (s *Store) WithClock(c ports.Clock) *Store {
	s.now = c.Now
	return s
}

// Name identifies the backend.
func (s *Store) Name() string {
	return "sqlite"
}

// Create provisions a new resource.
func (s *Store) Create(ctx context.Context, rec ports.Record) (ports.Record, error) {
	now := s.now()
	rec.State = "active"
	rec.CreatedAt = now
	rec.UpdatedAt = now

	mixins, attrs, err := encodeRecord(rec)
	if err != nil {
		return ports.Record{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, kind, mixins, attributes, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Kind, mixins, attrs, rec.State, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ports.Record{}, fmt.Errorf("record %q: %w", rec.ID, ErrDuplicate)
		}
		return ports.Record{}, err
	}
	return rec, nil
}

// Get retrieves a record by entity ID.
func (s *Store) Get(ctx context.Context, id string) (ports.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, mixins, attributes, state, created_at, updated_at
		FROM entities
		WHERE id = ?
	`, id)
	return scanRecord(row.Scan)
}

// List returns records matching the filter in creation order.
func (s *Store) List(ctx context.Context, filter ports.ListFilter) ([]ports.Record, error) {
	query := `
		SELECT id, kind, mixins, attributes, state, created_at, updated_at
		FROM entities
	`
	var conds []string
	var args []any
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Mixin != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(entities.mixins) WHERE json_each.value = ?)")
		args = append(args, filter.Mixin)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Update replaces the stored attributes and mixins of a record.
func (s *Store) Update(ctx context.Context, rec ports.Record) (ports.Record, error) {
	mixins, attrs, err := encodeRecord(rec)
	if err != nil {
		return ports.Record{}, err
	}
	updatedAt := s.now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE entities
		SET mixins = ?, attributes = ?, updated_at = ?
		WHERE id = ?
	`, mixins, attrs, updatedAt, rec.ID)
	if err != nil {
		return ports.Record{}, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ports.Record{}, err
	}
	if rows == 0 {
		return ports.Record{}, ports.ErrNotFound
	}

	return s.Get(ctx, rec.ID)
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// InvokeAction applies the transition table to the resource state
// inside a transaction.
func (s *Store) InvokeAction(ctx context.Context, id string, action category.Identifier, attributes map[string]any) (ports.ActionResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.ActionResult{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, kind, mixins, attributes, state, created_at, updated_at
		FROM entities
		WHERE id = ?
	`, id)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		return ports.ActionResult{}, err
	}

	state, ok := stateTransitions[action.Term]
	if !ok {
		state = rec.State
	}

	changed := make(map[string]any)
	for name := range rec.Attributes {
		if strings.HasSuffix(name, ".state") {
			rec.Attributes[name] = state
			changed[name] = state
		}
	}

	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		return ports.ActionResult{}, fmt.Errorf("encode attributes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE entities
		SET attributes = ?, state = ?, updated_at = ?
		WHERE id = ?
	`, string(attrs), state, s.now(), id); err != nil {
		return ports.ActionResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ports.ActionResult{}, err
	}

	return ports.ActionResult{State: state, Attributes: changed}, nil
}

// ExistsWithAttributeValue reports whether any record of the kind holds
// the value for the attribute.
func (s *Store) ExistsWithAttributeValue(ctx context.Context, kind category.Identifier, attribute string, value any) (bool, error) {
	// Attribute names contain dots, so the JSON path needs quoting.
	path := `$."` + strings.ReplaceAll(attribute, `"`, `""`) + `"`

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM entities
		WHERE kind = ? AND json_extract(attributes, ?) = ?
	`, kind.String(), path, category.Normalize(value)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HealthCheck verifies the database answers queries.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func encodeRecord(rec ports.Record) (mixins, attrs string, err error) {
	if rec.Mixins == nil {
		rec.Mixins = []string{}
	}
	if rec.Attributes == nil {
		rec.Attributes = map[string]any{}
	}
	m, err := json.Marshal(rec.Mixins)
	if err != nil {
		return "", "", fmt.Errorf("encode mixins: %w", err)
	}
	a, err := json.Marshal(rec.Attributes)
	if err != nil {
		return "", "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(m), string(a), nil
}

func scanRecord(scan func(dest ...any) error) (ports.Record, error) {
	var rec ports.Record
	var mixins, attrs string

	err := scan(&rec.ID, &rec.Kind, &mixins, &attrs, &rec.State, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Record{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.Record{}, err
	}

	if err := json.Unmarshal([]byte(mixins), &rec.Mixins); err != nil {
		return ports.Record{}, fmt.Errorf("decode mixins: %w", err)
	}
	if err := json.Unmarshal([]byte(attrs), &rec.Attributes); err != nil {
		return ports.Record{}, fmt.Errorf("decode attributes: %w", err)
	}
	return rec, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure interface compliance.
var _ ports.Backend = (*Store)(nil)
