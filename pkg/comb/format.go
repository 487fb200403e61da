package comb

import (
	"fmt"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Compact renders a term by joining its string elements with no separator,
// descending into nested terms. Other elements are formatted with fmt.
func Compact(t types.Term) string {
	var b []byte
	for _, el := range t {
		switch v := el.(type) {
		case string:
			b = append(b, v...)
		case types.Term:
			b = append(b, Compact(v)...)
		default:
			b = fmt.Append(b, v)
		}
	}
	return string(b)
}
