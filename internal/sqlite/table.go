package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// unitsTable implements types.Table for unit specs. Get and Fetch return
// *types.UnitSpec; Set accepts *types.UnitSpec or types.UnitSpec.
type unitsTable struct {
	backend *Backend
}

const selectUnit = "SELECT unit_id, name, family, r, created_at FROM units"

// Get retrieves a unit spec by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *unitsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}

	spec, err := t.getUnit(id)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func (t *unitsTable) getUnit(id string) (*types.UnitSpec, error) {
	row := t.backend.db.QueryRow(selectUnit+" WHERE unit_id = ?", id)
	spec, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unit %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := t.loadSources(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUnit(row scanner) (*types.UnitSpec, error) {
	var spec types.UnitSpec
	var family, createdAt string
	if err := row.Scan(&spec.UnitID, &spec.Name, &family, &spec.Width, &createdAt); err != nil {
		return nil, err
	}
	spec.Family = types.Family(family)
	var err error
	spec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at of %s: %w", spec.UnitID, err)
	}
	return &spec, nil
}

func (t *unitsTable) loadSources(spec *types.UnitSpec) error {
	rows, err := t.backend.db.Query(
		"SELECT source_unit_id, items FROM unit_sources WHERE unit_id = ? ORDER BY position", spec.UnitID)
	if err != nil {
		return fmt.Errorf("loading sources of %s: %w", spec.UnitID, err)
	}
	defer rows.Close()

	spec.Sources = nil
	for rows.Next() {
		var srcID, items sql.NullString
		if err := rows.Scan(&srcID, &items); err != nil {
			return fmt.Errorf("scanning source of %s: %w", spec.UnitID, err)
		}
		var src types.SourceSpec
		if srcID.Valid {
			src.UnitID = srcID.String
		} else {
			if src.Items, err = decodeItems(items.String); err != nil {
				return fmt.Errorf("source of %s: %w", spec.UnitID, err)
			}
		}
		spec.Sources = append(spec.Sources, src)
	}
	return rows.Err()
}

// Set creates or updates a unit spec. When both id and the spec's UnitID are
// empty a new UUID v7 is assigned. The spec must be valid, its unit sources
// must exist, and it must not lead back to itself through them.
// Returns the ID used.
func (t *unitsTable) Set(id string, data any) (string, error) {
	var spec *types.UnitSpec
	switch v := data.(type) {
	case *types.UnitSpec:
		spec = v
	case types.UnitSpec:
		spec = &v
	default:
		return "", types.ErrInvalidData
	}
	if spec == nil {
		return "", types.ErrInvalidData
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrStoreDetached
	}

	now := time.Now().UTC()
	switch {
	case id != "":
		spec.UnitID = id
	case spec.UnitID == "":
		spec.UnitID = generateUUID()
		spec.CreatedAt = now
	}
	if err := spec.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}

	existing, err := t.getUnit(spec.UnitID)
	switch {
	case err == nil:
		spec.CreatedAt = existing.CreatedAt
	case errors.Is(err, types.ErrNotFound):
		if spec.CreatedAt.IsZero() {
			spec.CreatedAt = now
		}
	default:
		return "", err
	}

	if err := t.checkSources(spec); err != nil {
		return "", err
	}
	if err := t.writeUnit(spec); err != nil {
		return "", err
	}
	if err := t.backend.persistLocked(); err != nil {
		return "", err
	}
	t.backend.logger.Debug("unit saved", "unit_id", spec.UnitID, "family", spec.Family)
	return spec.UnitID, nil
}

// checkSources verifies that every referenced unit exists and that none of
// them reaches spec through its own sources.
func (t *unitsTable) checkSources(spec *types.UnitSpec) error {
	for _, src := range spec.SourceIDs() {
		var one int
		err := t.backend.db.QueryRow("SELECT 1 FROM units WHERE unit_id = ?", src).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("unit %s: %w: %s", spec.UnitID, types.ErrSourceNotFound, src)
		}
		if err != nil {
			return fmt.Errorf("checking source %s: %w", src, err)
		}

		// UNION drops repeated IDs, so the walk ends even on a damaged graph.
		err = t.backend.db.QueryRow(`
			WITH RECURSIVE reach(id) AS (
				SELECT ?
				UNION
				SELECT s.source_unit_id FROM unit_sources s JOIN reach r ON s.unit_id = r.id
				WHERE s.source_unit_id IS NOT NULL
			)
			SELECT 1 FROM reach WHERE id = ? LIMIT 1`, src, spec.UnitID).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: %s -> %s leads back to %s", types.ErrCycle, spec.UnitID, src, spec.UnitID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking cycle through %s: %w", src, err)
		}
	}
	return nil
}

func (t *unitsTable) writeUnit(spec *types.UnitSpec) error {
	tx, err := t.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning write: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO units (unit_id, name, family, r, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(unit_id) DO UPDATE SET
			name = excluded.name,
			family = excluded.family,
			r = excluded.r`,
		spec.UnitID, spec.Name, string(spec.Family), spec.Width,
		spec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upserting unit: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM unit_sources WHERE unit_id = ?", spec.UnitID); err != nil {
		return fmt.Errorf("clearing sources: %w", err)
	}
	for i, src := range spec.Sources {
		var srcID, items any
		if src.IsUnit() {
			srcID = src.UnitID
		} else {
			enc, err := encodeItems(src.Items)
			if err != nil {
				return err
			}
			items = enc
		}
		if _, err := tx.Exec(
			"INSERT INTO unit_sources (unit_id, position, source_unit_id, items) VALUES (?, ?, ?, ?)",
			spec.UnitID, i, srcID, items); err != nil {
			return fmt.Errorf("inserting source %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Delete removes a unit spec by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found, and
// ErrUnitInUse if another unit uses it as a source.
func (t *unitsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrStoreDetached
	}

	if _, err := t.getUnit(id); err != nil {
		return err
	}
	users, err := t.users(id)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return fmt.Errorf("unit %s: %w: used by %s", id, types.ErrUnitInUse, strings.Join(users, ", "))
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM unit_sources WHERE unit_id = ?", id); err != nil {
		return fmt.Errorf("deleting sources: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM units WHERE unit_id = ?", id); err != nil {
		return fmt.Errorf("deleting unit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if err := t.backend.persistLocked(); err != nil {
		return err
	}
	t.backend.logger.Debug("unit deleted", "unit_id", id)
	return nil
}

func (t *unitsTable) users(id string) ([]string, error) {
	rows, err := t.backend.db.Query(
		"SELECT DISTINCT unit_id FROM unit_sources WHERE source_unit_id = ? ORDER BY unit_id", id)
	if err != nil {
		return nil, fmt.Errorf("finding users of %s: %w", id, err)
	}
	defer rows.Close()
	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Fetch returns unit specs matching the filter, oldest first. Supported
// keys: "family" (string or types.Family), "name" (string), "source_unit_id"
// (units using that unit as a source), "limit" and "offset". An empty
// filter matches every unit.
func (t *unitsTable) Fetch(filter map[string]any) ([]any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}

	query := selectUnit
	var conditions []string
	var args []any

	if v, ok := filter["family"]; ok {
		var family types.Family
		switch f := v.(type) {
		case string:
			family = types.Family(f)
		case types.Family:
			family = f
		default:
			return nil, types.ErrInvalidFilter
		}
		if parsed, err := types.ParseFamily(string(family)); err == nil {
			family = parsed
		}
		conditions = append(conditions, "family = ?")
		args = append(args, string(family))
	}

	if v, ok := filter["name"]; ok {
		name, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		conditions = append(conditions, "name = ?")
		args = append(args, name)
	}

	if v, ok := filter["source_unit_id"]; ok {
		src, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		conditions = append(conditions,
			"unit_id IN (SELECT unit_id FROM unit_sources WHERE source_unit_id = ?)")
		args = append(args, src)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, unit_id"

	limit := -1
	if v, ok := filter["limit"]; ok {
		l, ok := toInt(v)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		if l > 0 {
			limit = l
		}
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if v, ok := filter["offset"]; ok {
		o, ok := toInt(v)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		if o > 0 {
			query += fmt.Sprintf(" OFFSET %d", o)
		}
	}

	specs, err := t.queryUnits(query, args...)
	if err != nil {
		return nil, err
	}
	results := make([]any, 0, len(specs))
	for _, s := range specs {
		results = append(results, s)
	}
	return results, nil
}

func (t *unitsTable) queryUnits(query string, args ...any) ([]*types.UnitSpec, error) {
	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching units: %w", err)
	}
	var specs []*types.UnitSpec
	for rows.Next() {
		spec, err := scanUnit(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		specs = append(specs, spec)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// Sources load after the cursor closes; the pool holds one connection.
	for _, spec := range specs {
		if err := t.loadSources(spec); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

// persistAllJSONL rewrites units.jsonl and unit_sources.jsonl from SQLite.
func (b *Backend) persistAllJSONL() error {
	t := &unitsTable{backend: b}
	specs, err := t.queryUnits(selectUnit + " ORDER BY created_at, unit_id")
	if err != nil {
		return err
	}

	var units, sources []json.RawMessage
	for _, spec := range specs {
		rec, err := dehydrateUnit(spec)
		if err != nil {
			return err
		}
		units = append(units, rec)
		for i, src := range spec.Sources {
			var srcID *string
			var items string
			if src.IsUnit() {
				id := src.UnitID
				srcID = &id
			} else if items, err = encodeItems(src.Items); err != nil {
				return err
			}
			rec, err := dehydrateSource(spec.UnitID, i, srcID, items)
			if err != nil {
				return err
			}
			sources = append(sources, rec)
		}
	}

	if err := writeJSONL(filepath.Join(b.dataDir, unitsJSONL), units); err != nil {
		return fmt.Errorf("persisting %s: %w", unitsJSONL, err)
	}
	if err := writeJSONL(filepath.Join(b.dataDir, unitSourcesJSONL), sources); err != nil {
		return fmt.Errorf("persisting %s: %w", unitSourcesJSONL, err)
	}
	b.logger.Debug("persisted JSONL", "units", len(units), "sources", len(sources))
	return nil
}

// toInt converts numeric filter values.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
