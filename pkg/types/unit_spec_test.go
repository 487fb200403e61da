package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestUnitSpecValidate(t *testing.T) {
	letters := SourceSpec{Items: []any{"A", "B", "C"}}

	tests := []struct {
		name    string
		spec    UnitSpec
		wantErr error
	}{
		{
			name: "valid combination",
			spec: UnitSpec{Family: FamilyCombination, Width: 2, Sources: []SourceSpec{letters}},
		},
		{
			name: "valid cat using first two sources",
			spec: UnitSpec{Family: FamilyCatCombination, Width: 2, Sources: []SourceSpec{letters, {UnitID: "x"}, letters}},
		},
		{
			name:    "unknown family",
			spec:    UnitSpec{Family: "bogus", Width: 1, Sources: []SourceSpec{letters}},
			wantErr: ErrUnknownFamily,
		},
		{
			name:    "negative width",
			spec:    UnitSpec{Family: FamilyPermutation, Width: -1, Sources: []SourceSpec{letters}},
			wantErr: ErrInvalidWidth,
		},
		{
			name:    "no sources",
			spec:    UnitSpec{Family: FamilyPermutation, Width: 1},
			wantErr: ErrNoSources,
		},
		{
			name:    "two sources on single-source family",
			spec:    UnitSpec{Family: FamilyPermutation, Width: 1, Sources: []SourceSpec{letters, letters}},
			wantErr: ErrTooManySources,
		},
		{
			name:    "cat width beyond sources",
			spec:    UnitSpec{Family: FamilyCatCombination, Width: 3, Sources: []SourceSpec{letters, letters}},
			wantErr: ErrInvalidWidth,
		},
		{
			name:    "cat width zero",
			spec:    UnitSpec{Family: FamilyCatCombination, Width: 0, Sources: []SourceSpec{letters}},
			wantErr: ErrInvalidWidth,
		},
		{
			name:    "source with both shapes",
			spec:    UnitSpec{Family: FamilyCombination, Width: 1, Sources: []SourceSpec{{UnitID: "x", Items: []any{"A"}}}},
			wantErr: ErrInvalidSource,
		},
		{
			name:    "empty source",
			spec:    UnitSpec{Family: FamilyCombination, Width: 1, Sources: []SourceSpec{{}}},
			wantErr: ErrInvalidSource,
		},
		{
			name:    "self reference",
			spec:    UnitSpec{UnitID: "u1", Family: FamilyCombination, Width: 1, Sources: []SourceSpec{{UnitID: "u1"}}},
			wantErr: ErrCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUnitSpecSourceIDs(t *testing.T) {
	spec := UnitSpec{Sources: []SourceSpec{{UnitID: "a"}, {Items: []any{1}}, {UnitID: "b"}}}
	assert.Equal(t, []string{"a", "b"}, spec.SourceIDs())
}

func TestSourceSpecEncoding(t *testing.T) {
	tests := []struct {
		name     string
		src      SourceSpec
		wantJSON string
		wantYAML string
	}{
		{name: "unit", src: SourceSpec{UnitID: "u1"}, wantJSON: `{"unit_id":"u1"}`, wantYAML: "unit_id: u1\n"},
		{name: "items", src: SourceSpec{Items: []any{"A"}}, wantJSON: `{"items":["A"]}`, wantYAML: "items:\n    - A\n"},
		{name: "empty items", src: SourceSpec{Items: []any{}}, wantJSON: `{"items":[]}`, wantYAML: "items: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.src)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, string(b))

			var fromJSON SourceSpec
			require.NoError(t, json.Unmarshal(b, &fromJSON))
			assert.NoError(t, fromJSON.Validate())
			assert.Equal(t, tt.src.IsUnit(), fromJSON.IsUnit())
			assert.Len(t, fromJSON.Items, len(tt.src.Items))

			y, err := yaml.Marshal(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.wantYAML, string(y))

			var fromYAML SourceSpec
			require.NoError(t, yaml.Unmarshal(y, &fromYAML))
			assert.NoError(t, fromYAML.Validate())
			assert.Equal(t, tt.src.IsUnit(), fromYAML.IsUnit())
			assert.Len(t, fromYAML.Items, len(tt.src.Items))
		})
	}
}
