package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL files to their SQLite tables and columns.
// Referenced tables load first.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{unitsJSONL, "units", []string{"unit_id", "name", "family", "r", "created_at"}},
	{unitSourcesJSONL, "unit_sources", []string{"unit_id", "position", "source_unit_id", "items"}},
}

// loadAllJSONL reads each JSONL file from dataDir into its table inside one
// transaction: either every file loads or the database stays empty.
// Malformed lines and unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return 0, fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	var loaded int
	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if len(records) == 0 {
			continue
		}
		n, err := insertRecords(tx, mapping.table, mapping.columns, records)
		if err != nil {
			return 0, fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
		if mapping.table == "units" {
			loaded = n
		}
	}

	// Source rows whose unit did not load would otherwise linger.
	if _, err := tx.Exec("DELETE FROM unit_sources WHERE unit_id NOT IN (SELECT unit_id FROM units)"); err != nil {
		return 0, fmt.Errorf("dropping orphaned sources: %w", err)
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return 0, fmt.Errorf("re-enabling foreign keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

// insertRecords inserts parsed JSONL records into table and returns how many
// were accepted. Only the listed columns are read; array and object values
// are stored as JSON text. Records that fail to parse or violate a
// constraint are skipped.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	var n int
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			switch v := obj[col].(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					continue
				}
				args[i] = string(b)
			default:
				args[i] = v
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
		n++
	}
	return n, nil
}
