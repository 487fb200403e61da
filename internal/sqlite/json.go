package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// timeLayout is RFC 3339 with a fixed-width fraction so that timestamps
// sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// JSONL file names in the data directory.
const (
	unitsJSONL       = "units.jsonl"
	unitSourcesJSONL = "unit_sources.jsonl"
)

// unitJSON is one line of units.jsonl.
type unitJSON struct {
	UnitID    string `json:"unit_id"`
	Name      string `json:"name"`
	Family    string `json:"family"`
	R         int    `json:"r"`
	CreatedAt string `json:"created_at"`
}

// unitSourceJSON is one line of unit_sources.jsonl. Items is the literal
// element list of a terminal source.
type unitSourceJSON struct {
	UnitID       string          `json:"unit_id"`
	Position     int             `json:"position"`
	SourceUnitID *string         `json:"source_unit_id"`
	Items        json.RawMessage `json:"items"`
}

// dehydrateUnit renders the units.jsonl record for spec.
func dehydrateUnit(spec *types.UnitSpec) (json.RawMessage, error) {
	b, err := json.Marshal(unitJSON{
		UnitID:    spec.UnitID,
		Name:      spec.Name,
		Family:    string(spec.Family),
		R:         spec.Width,
		CreatedAt: spec.CreatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling unit %s: %w", spec.UnitID, err)
	}
	return b, nil
}

// dehydrateSource renders the unit_sources.jsonl record for one source row.
// items is the JSON text stored in SQLite, or empty for unit references.
func dehydrateSource(unitID string, position int, sourceUnitID *string, items string) (json.RawMessage, error) {
	rec := unitSourceJSON{UnitID: unitID, Position: position, SourceUnitID: sourceUnitID}
	if items != "" {
		rec.Items = json.RawMessage(items)
	} else {
		rec.Items = json.RawMessage("null")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshaling source %d of unit %s: %w", position, unitID, err)
	}
	return b, nil
}

// encodeItems renders a terminal source's items for the items column.
func encodeItems(items []any) (string, error) {
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("%w: items: %v", types.ErrInvalidData, err)
	}
	return string(b), nil
}

// decodeItems parses the items column.
func decodeItems(s string) ([]any, error) {
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	if items == nil {
		items = []any{}
	}
	return items, nil
}
