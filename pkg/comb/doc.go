// Package comb builds randomly addressable combinatorial sequences.
//
// A Unit enumerates the terms of one combinatorial family (permutations,
// combinations, their with-repeats variants, and concatenations of several
// sources) drawn from a source sequence. Terms are never materialized as a
// whole: the term at any rank is computed directly, and when every source
// supports reverse lookup the rank of a term is computed directly too.
//
// Because a Unit is itself a types.Sequence, it can be the source of another
// Unit. Such compound units resolve their terms by asking the source unit for
// the term at each decoded position.
//
//	src := comb.Letters("ABCD")
//	perm, _ := comb.NewPermutation(src, 4)
//	t, _ := perm.TermAt(11)                          // [B D C A]
//	r, _ := perm.RankOf(comb.Letters("DCBA").Term()) // 23
//
// Units are immutable after construction and safe for concurrent use.
// Sources are referenced, not copied, and must not change while a unit
// uses them.
package comb
