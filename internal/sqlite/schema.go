package sqlite

// Schema DDL. Units are rebuilt from JSONL on every attach, so there are no
// migrations.
const (
	createUnits = `CREATE TABLE units (
    unit_id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    family TEXT NOT NULL,
    r INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	// Exactly one of source_unit_id and items is set per row.
	createUnitSources = `CREATE TABLE unit_sources (
    unit_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    source_unit_id TEXT,
    items TEXT,
    PRIMARY KEY (unit_id, position),
    FOREIGN KEY (unit_id) REFERENCES units(unit_id) ON DELETE CASCADE,
    FOREIGN KEY (source_unit_id) REFERENCES units(unit_id)
);`
)

// Index DDL for common queries.
const (
	idxUnitsFamily       = `CREATE INDEX idx_units_family ON units(family);`
	idxUnitsName         = `CREATE INDEX idx_units_name ON units(name);`
	idxUnitSourcesSource = `CREATE INDEX idx_unit_sources_source ON unit_sources(source_unit_id);`
	idxUnitsCreatedAt    = `CREATE INDEX idx_units_created_at ON units(created_at, unit_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createUnits,
	createUnitSources,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxUnitsFamily,
	idxUnitsName,
	idxUnitSourcesSource,
	idxUnitsCreatedAt,
}
