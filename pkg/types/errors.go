package types

import (
	"errors"
	"fmt"
)

// Error classes. Every engine error wraps exactly one of these so callers can
// tell bad configuration from a bad query, and an unsupported reverse lookup
// from a term that simply does not exist.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrDomain        = errors.New("domain error")
	ErrCapability    = errors.New("capability error")
	ErrRecursion     = errors.New("recursion error")
)

// Configuration errors, raised at construction or range validation time.
var (
	ErrUnknownFamily   = fmt.Errorf("%w: unknown family", ErrConfiguration)
	ErrInvalidWidth    = fmt.Errorf("%w: invalid term width", ErrConfiguration)
	ErrNoSources       = fmt.Errorf("%w: no sources", ErrConfiguration)
	ErrTooManySources  = fmt.Errorf("%w: family takes a single source", ErrConfiguration)
	ErrInvalidSource   = fmt.Errorf("%w: invalid source", ErrConfiguration)
	ErrLengthOverflow  = fmt.Errorf("%w: term count overflows int64", ErrConfiguration)
	ErrInvalidRadix    = fmt.Errorf("%w: invalid radix", ErrConfiguration)
	ErrRangeSyntax     = fmt.Errorf("%w: malformed range", ErrConfiguration)
	ErrRangeOrder      = fmt.Errorf("%w: ranges out of order", ErrConfiguration)
	ErrRangeOverlap    = fmt.Errorf("%w: ranges overlap", ErrConfiguration)
	ErrInvalidStep     = fmt.Errorf("%w: slice step must not be zero", ErrConfiguration)
	ErrInvalidCapacity = fmt.Errorf("%w: cache capacity must be positive", ErrConfiguration)
)

// Domain errors, raised by the lookup that received the bad input.
var (
	ErrRankOutOfRange = fmt.Errorf("%w: rank out of range", ErrDomain)
	ErrInvalidRank    = fmt.Errorf("%w: rank must be a non-negative integer", ErrDomain)
	ErrTermWidth      = fmt.Errorf("%w: term has the wrong width", ErrDomain)
	ErrNotMember      = fmt.Errorf("%w: element not found in source", ErrDomain)
	ErrInvalidDigits  = fmt.Errorf("%w: digit out of range for its radix", ErrDomain)
)

// ErrIndexUnsupported is returned by reverse lookups when a contributing
// source cannot map elements back to positions.
var ErrIndexUnsupported = fmt.Errorf("%w: reverse lookup not supported", ErrCapability)

// Recursion errors for unit graphs.
var (
	ErrCycle         = fmt.Errorf("%w: cycle in unit graph", ErrRecursion)
	ErrDepthExceeded = fmt.Errorf("%w: unit nesting too deep", ErrRecursion)
)
