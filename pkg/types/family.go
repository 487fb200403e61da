package types

import "fmt"

// Family selects the combinatorial rule of a unit.
type Family string

// Supported families.
const (
	FamilyPermutation            Family = "permutation"
	FamilyPermutationWithRepeats Family = "permutation_with_repeats"
	FamilyCombination            Family = "combination"
	FamilyCombinationWithRepeats Family = "combination_with_repeats"
	FamilyCatCombination         Family = "cat_combination"
)

// Families lists all supported families for enumeration.
var Families = []Family{
	FamilyPermutation,
	FamilyPermutationWithRepeats,
	FamilyCombination,
	FamilyCombinationWithRepeats,
	FamilyCatCombination,
}

// familyAliases accepts the short names used on the command line.
var familyAliases = map[string]Family{
	"perm":                   FamilyPermutation,
	"permr":                  FamilyPermutationWithRepeats,
	"comb":                   FamilyCombination,
	"combr":                  FamilyCombinationWithRepeats,
	"cat":                    FamilyCatCombination,
	"Permutation":            FamilyPermutation,
	"PermutationWithRepeats": FamilyPermutationWithRepeats,
	"Combination":            FamilyCombination,
	"CombinationWithRepeats": FamilyCombinationWithRepeats,
	"CatCombination":         FamilyCatCombination,
}

// ParseFamily resolves a family name or alias.
// Returns ErrUnknownFamily if the name is not recognized.
func ParseFamily(name string) (Family, error) {
	f := Family(name)
	if f.Valid() {
		return f, nil
	}
	if f, ok := familyAliases[name]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// Valid reports whether f is one of the supported families.
func (f Family) Valid() bool {
	for _, known := range Families {
		if f == known {
			return true
		}
	}
	return false
}

// Repeats reports whether terms may reuse a source element.
func (f Family) Repeats() bool {
	return f == FamilyPermutationWithRepeats || f == FamilyCombinationWithRepeats
}

// MultiSource reports whether the family concatenates several sources.
func (f Family) MultiSource() bool {
	return f == FamilyCatCombination
}
