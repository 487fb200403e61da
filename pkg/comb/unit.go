package comb

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/slowcomb/internal/codec"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// MaxDepth bounds how deeply units may nest through their sources.
const MaxDepth = 64

// Unit is one combinatorial family over one or more sources. It is a
// types.Sequence of Terms, so a Unit can be the source of another Unit.
type Unit struct {
	family  types.Family
	r       int
	name    string
	sources []types.Sequence
	codec   codec.Codec

	width   int
	spliced []bool // per source, CatCombination only
	widths  []int  // per source, CatCombination only
	depth   int
	indexed bool
}

// Option configures a Unit at construction.
type Option func(*Unit)

// WithName labels the unit. The name shows up in String and in errors.
func WithName(name string) Option {
	return func(u *Unit) { u.name = name }
}

// NewPermutation returns the unit of ordered selections of r distinct
// positions of src.
func NewPermutation(src types.Sequence, r int, opts ...Option) (*Unit, error) {
	return New(types.FamilyPermutation, r, []types.Sequence{src}, opts...)
}

// NewPermutationWithRepeats returns the unit of ordered selections of r
// positions of src where positions may repeat.
func NewPermutationWithRepeats(src types.Sequence, r int, opts ...Option) (*Unit, error) {
	return New(types.FamilyPermutationWithRepeats, r, []types.Sequence{src}, opts...)
}

// NewCombination returns the unit of r-subsets of the positions of src, in
// lexicographic order of the increasing position tuples.
func NewCombination(src types.Sequence, r int, opts ...Option) (*Unit, error) {
	return New(types.FamilyCombination, r, []types.Sequence{src}, opts...)
}

// NewCombinationWithRepeats returns the unit of r-multisets of the positions
// of src, in lexicographic order of the non-decreasing position tuples.
func NewCombinationWithRepeats(src types.Sequence, r int, opts ...Option) (*Unit, error) {
	return New(types.FamilyCombinationWithRepeats, r, []types.Sequence{src}, opts...)
}

// NewCatCombination returns the unit that picks one element from each of
// srcs and concatenates the picks.
func NewCatCombination(srcs []types.Sequence, opts ...Option) (*Unit, error) {
	return New(types.FamilyCatCombination, len(srcs), srcs, opts...)
}

// New builds a unit of the given family. Single-source families take exactly
// one source; CatCombination uses the first r of srcs.
func New(family types.Family, r int, srcs []types.Sequence, opts ...Option) (*Unit, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownFamily, family)
	}
	if r < 0 {
		return nil, fmt.Errorf("%w: r=%d", types.ErrInvalidWidth, r)
	}
	if len(srcs) == 0 {
		return nil, types.ErrNoSources
	}
	for i, s := range srcs {
		if s == nil {
			return nil, fmt.Errorf("%w: source %d is nil", types.ErrInvalidSource, i)
		}
		if s.Len() < 0 {
			return nil, fmt.Errorf("%w: source %d has negative length", types.ErrInvalidSource, i)
		}
	}

	u := &Unit{family: family, r: r}
	for _, opt := range opts {
		opt(u)
	}

	var err error
	if family.MultiSource() {
		if r < 1 || r > len(srcs) {
			return nil, fmt.Errorf("%w: r=%d with %d sources", types.ErrInvalidWidth, r, len(srcs))
		}
		u.sources = append([]types.Sequence(nil), srcs[:r]...)
		err = u.initProduct()
	} else {
		if len(srcs) != 1 {
			return nil, fmt.Errorf("%w: %s got %d sources", types.ErrTooManySources, family, len(srcs))
		}
		u.sources = []types.Sequence{srcs[0]}
		u.width = r
		u.codec, err = codec.New(family, srcs[0].Len(), r)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", u.label(), err)
	}

	u.depth = 1
	u.indexed = true
	for _, s := range u.sources {
		if d := depthOf(s) + 1; d > u.depth {
			u.depth = d
		}
		if !types.SupportsIndex(s) {
			u.indexed = false
		}
	}
	if u.depth > MaxDepth {
		return nil, fmt.Errorf("%w: %s nests %d levels, limit %d", types.ErrDepthExceeded, u.label(), u.depth, MaxDepth)
	}
	return u, nil
}

func (u *Unit) initProduct() error {
	lengths := make([]int64, len(u.sources))
	u.spliced = make([]bool, len(u.sources))
	u.widths = make([]int, len(u.sources))
	for i, s := range u.sources {
		lengths[i] = s.Len()
		u.widths[i], u.spliced[i] = types.WidthOf(s)
		u.width += u.widths[i]
	}
	c, err := codec.NewProduct(lengths)
	if err != nil {
		return err
	}
	u.codec = c
	return nil
}

// depthOf returns the nesting depth of s: zero for terminal sources.
func depthOf(s types.Sequence) int {
	for {
		if d, ok := s.(interface{ Depth() int }); ok {
			return d.Depth()
		}
		w, ok := s.(types.Unwrapper)
		if !ok {
			return 0
		}
		s = w.Unwrap()
	}
}

// Len returns the number of terms.
func (u *Unit) Len() int64 { return u.codec.Len() }

// Width returns the number of elements in every term.
func (u *Unit) Width() int { return u.width }

// R returns the family parameter: the selection size for single-source
// families, the number of sources used for CatCombination.
func (u *Unit) R() int { return u.r }

// Family returns the unit's combinatorial family.
func (u *Unit) Family() types.Family { return u.family }

// Name returns the label set with WithName.
func (u *Unit) Name() string { return u.name }

// Depth returns 1 plus the depth of the deepest unit source.
func (u *Unit) Depth() int { return u.depth }

// Sources returns the sources in use. The returned slice is a copy; the
// sources themselves are shared.
func (u *Unit) Sources() []types.Sequence {
	out := make([]types.Sequence, len(u.sources))
	copy(out, u.sources)
	return out
}

// SupportsIndex reports whether RankOf and Index can work, which is the case
// when every source supports reverse lookup.
func (u *Unit) SupportsIndex() bool { return u.indexed }

// TermAt returns the term at rank.
func (u *Unit) TermAt(rank int64) (types.Term, error) {
	positions, err := u.codec.Decode(rank)
	if err != nil {
		return nil, fmt.Errorf("%s term %d: %w", u.label(), rank, err)
	}
	term := make(types.Term, 0, u.width)
	for i, p := range positions {
		src := u.sources[0]
		if u.family.MultiSource() {
			src = u.sources[i]
		}
		el, err := src.At(p)
		if err != nil {
			return nil, fmt.Errorf("%s term %d: source element %d: %w", u.label(), rank, p, err)
		}
		if u.family.MultiSource() && u.spliced[i] {
			sub, ok := types.AsTerm(el)
			if !ok || len(sub) != u.widths[i] {
				return nil, fmt.Errorf("%w: %s source %d returned %T, want a term of width %d",
					types.ErrInvalidSource, u.label(), i, el, u.widths[i])
			}
			term = append(term, sub...)
			continue
		}
		term = append(term, el)
	}
	return term, nil
}

// At implements types.Sequence; the element is the Term at rank i.
func (u *Unit) At(i int64) (any, error) {
	t, err := u.TermAt(i)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// RankOf returns the rank of term. When a source holds equal elements at
// several positions, the smallest rank producing term is returned.
// Returns ErrIndexUnsupported when a source lacks reverse lookup, and a
// domain error when term is not produced by this unit.
func (u *Unit) RankOf(term types.Term) (int64, error) {
	if !u.indexed {
		return 0, fmt.Errorf("%w: %s", types.ErrIndexUnsupported, u.label())
	}
	if len(term) != u.width {
		return 0, fmt.Errorf("%w: %s got %d elements, want %d", types.ErrTermWidth, u.label(), len(term), u.width)
	}
	positions, err := u.positions(term)
	if err != nil {
		return 0, fmt.Errorf("%s rank: %w", u.label(), err)
	}
	rank, err := u.codec.Encode(positions)
	if err != nil {
		return 0, fmt.Errorf("%s rank: %w", u.label(), err)
	}
	return rank, nil
}

// positions maps each element of term back to a source position, honoring
// the family's ordering constraint so that equal elements resolve to the
// first position that keeps the tuple valid.
func (u *Unit) positions(term types.Term) ([]int64, error) {
	if u.family.MultiSource() {
		return u.productPositions(term)
	}

	idx, ok := u.sources[0].(types.Indexer)
	if !ok {
		return nil, types.ErrIndexUnsupported
	}
	out := make([]int64, len(term))
	used := make(map[int64]bool, len(term))
	for i, x := range term {
		var from int64
		switch u.family {
		case types.FamilyCombination:
			if i > 0 {
				from = out[i-1] + 1
			}
		case types.FamilyCombinationWithRepeats:
			if i > 0 {
				from = out[i-1]
			}
		}
		p, err := idx.Index(x, from)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if u.family == types.FamilyPermutation {
			for used[p] {
				if p, err = idx.Index(x, p+1); err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
			}
			used[p] = true
		}
		out[i] = p
	}
	return out, nil
}

func (u *Unit) productPositions(term types.Term) ([]int64, error) {
	out := make([]int64, len(u.sources))
	off := 0
	for i, s := range u.sources {
		idx, ok := s.(types.Indexer)
		if !ok {
			return nil, types.ErrIndexUnsupported
		}
		var x any = term[off]
		if u.spliced[i] {
			x = term[off : off+u.widths[i] : off+u.widths[i]]
		}
		off += u.widths[i]
		p, err := idx.Index(x, 0)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Index implements types.Indexer, letting a parent unit look up one of this
// unit's terms. x must be a Term or []any. When the smallest rank holding x
// is below from, later ranks are compared term by term, since equal source
// elements can make a unit produce the same term more than once.
func (u *Unit) Index(x any, from int64) (int64, error) {
	t, ok := types.AsTerm(x)
	if !ok {
		return 0, fmt.Errorf("%w: %s holds terms, got %T", types.ErrNotMember, u.label(), x)
	}
	rank, err := u.RankOf(t)
	if err != nil {
		return 0, err
	}
	if rank >= from {
		return rank, nil
	}
	for r := from; r < u.Len(); r++ {
		got, err := u.TermAt(r)
		if err != nil {
			return 0, err
		}
		if got.Equal(t) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %s has no term %v at or after rank %d", types.ErrNotMember, u.label(), t, from)
}

// String describes the unit without enumerating it.
func (u *Unit) String() string {
	var b strings.Builder
	b.WriteString(string(u.family))
	b.WriteByte('(')
	if u.name != "" {
		fmt.Fprintf(&b, "%s, ", u.name)
	}
	lens := make([]string, len(u.sources))
	for i, s := range u.sources {
		lens[i] = fmt.Sprint(s.Len())
	}
	fmt.Fprintf(&b, "r=%d, n=%s, len=%d)", u.r, strings.Join(lens, "x"), u.Len())
	return b.String()
}

func (u *Unit) label() string {
	if u.name != "" {
		return fmt.Sprintf("%s %q", u.family, u.name)
	}
	return string(u.family)
}
