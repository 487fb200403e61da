package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// UnitSpec holds the construction parameters of one combinatorial unit: the
// part of a unit that is persisted, exported, and rebuilt. Sources refer to
// other units by ID or carry literal items.
type UnitSpec struct {
	UnitID    string       `json:"unit_id" yaml:"unit_id"`
	Name      string       `json:"name,omitempty" yaml:"name,omitempty"`
	Family    Family       `json:"family" yaml:"family"`
	Width     int          `json:"r" yaml:"r"`
	Sources   []SourceSpec `json:"sources" yaml:"sources"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
}

// SourceSpec is one source of a unit. Exactly one of UnitID and Items is set.
// A literal source with no items is valid and encodes as an empty list.
type SourceSpec struct {
	UnitID string `json:"unit_id,omitempty" yaml:"unit_id,omitempty"`
	Items  []any  `json:"items" yaml:"items"`
}

type unitSourceDoc struct {
	UnitID string `json:"unit_id" yaml:"unit_id"`
}

type itemsSourceDoc struct {
	Items []any `json:"items" yaml:"items"`
}

func (s SourceSpec) doc() any {
	if s.IsUnit() {
		return unitSourceDoc{UnitID: s.UnitID}
	}
	items := s.Items
	if items == nil {
		items = []any{}
	}
	return itemsSourceDoc{Items: items}
}

// MarshalJSON writes only the field that is set.
func (s SourceSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.doc())
}

// MarshalYAML writes only the field that is set.
func (s SourceSpec) MarshalYAML() (any, error) {
	return s.doc(), nil
}

// IsUnit reports whether the source refers to another unit.
func (s SourceSpec) IsUnit() bool {
	return s.UnitID != ""
}

// Validate checks the shape of the source.
func (s SourceSpec) Validate() error {
	if s.UnitID != "" && s.Items != nil {
		return fmt.Errorf("%w: source has both unit_id and items", ErrInvalidSource)
	}
	if s.UnitID == "" && s.Items == nil {
		return fmt.Errorf("%w: source has neither unit_id nor items", ErrInvalidSource)
	}
	return nil
}

// Validate checks the spec without resolving its sources. It returns an
// error wrapping ErrConfiguration on failure.
func (u UnitSpec) Validate() error {
	if !u.Family.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFamily, u.Family)
	}
	if u.Width < 0 {
		return fmt.Errorf("%w: r=%d", ErrInvalidWidth, u.Width)
	}
	if len(u.Sources) == 0 {
		return ErrNoSources
	}
	if u.Family.MultiSource() {
		if u.Width < 1 || u.Width > len(u.Sources) {
			return fmt.Errorf("%w: r=%d with %d sources", ErrInvalidWidth, u.Width, len(u.Sources))
		}
	} else if len(u.Sources) != 1 {
		return fmt.Errorf("%w: %s has %d sources", ErrTooManySources, u.Family, len(u.Sources))
	}
	for i, s := range u.Sources {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
		if s.UnitID != "" && s.UnitID == u.UnitID {
			return fmt.Errorf("source %d: %w: unit refers to itself", i, ErrCycle)
		}
	}
	return nil
}

// SourceIDs returns the IDs of the units this spec refers to, in source order.
func (u UnitSpec) SourceIDs() []string {
	var ids []string
	for _, s := range u.Sources {
		if s.IsUnit() {
			ids = append(ids, s.UnitID)
		}
	}
	return ids
}
