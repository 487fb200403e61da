// Package codec implements the rank/term bijections behind every
// combinatorial family. A codec knows nothing about elements: it maps a rank
// in [0, Len()) to the source positions of a term and back.
//
//	Permutation             factoradic digits pick from a shrinking pool
//	PermutationWithRepeats  base-n digits index the full source
//	Combination             combinadic over increasing position tuples
//	CombinationWithRepeats  combinadic over positions shifted by their index
//	Product                 per-source mixed radix (concatenation of sources)
//
// Codecs are immutable and safe for concurrent use.
package codec
