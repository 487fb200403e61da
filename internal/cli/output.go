package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mesh-intelligence/slowcomb/pkg/comb"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// formatTerm renders a term for human output: JSON, or the elements joined
// with no separator when compact.
func formatTerm(t types.Term, compact bool) (string, error) {
	if compact {
		return comb.Compact(t), nil
	}
	out, err := json.Marshal(t)
	if err != nil {
		return "", sysError("marshal term: %w", err)
	}
	return string(out), nil
}
