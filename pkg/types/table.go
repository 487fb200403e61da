package types

import "errors"

// Table stores one kind of record under string IDs. The units table holds
// *UnitSpec records: Get and Fetch return them as any, and Set accepts a
// *UnitSpec or a UnitSpec.
type Table interface {
	// Get returns the record stored under id, or ErrNotFound.
	Get(id string) (any, error)

	// Set stores data under id, replacing any record already there. An empty
	// id stores data under a new UUID v7. Set returns the ID used. Data that
	// fails validation is rejected with ErrInvalidData.
	Set(id string, data any) (string, error)

	// Delete removes the record stored under id. It returns ErrNotFound for
	// an unknown id and ErrUnitInUse while another unit uses it as a source.
	Delete(id string) error

	// Fetch returns the records matching every key of filter, oldest first.
	// A nil or empty filter matches everything; an unsupported value type
	// gives ErrInvalidFilter.
	Fetch(filter map[string]any) ([]any, error)
}

// Table operation errors.
var (
	ErrNotFound       = errors.New("entity not found")
	ErrInvalidID      = errors.New("invalid entity ID")
	ErrInvalidData    = errors.New("invalid entity data")
	ErrInvalidFilter  = errors.New("invalid filter value type")
	ErrSourceNotFound = errors.New("source unit not found")
	ErrUnitInUse      = errors.New("unit is a source of another unit")
)
