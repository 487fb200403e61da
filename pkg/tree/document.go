package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// App is the signature every document carries.
const App = "slowcomb"

// Document errors.
var (
	ErrUnknownFormat = errors.New("unknown document format")
	ErrBadSignature  = errors.New("document is not a slowcomb unit tree")
)

// Format names a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json", "jsonl":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Document is the exported form of a tree.
type Document struct {
	App     string           `json:"app" yaml:"app"`
	Version string           `json:"version" yaml:"version"`
	Comment string           `json:"comment,omitempty" yaml:"comment,omitempty"`
	Units   []types.UnitSpec `json:"units" yaml:"units"`
}

// Document returns the tree's specs as a signed document.
func (t *Tree) Document(version, comment string) Document {
	return Document{App: App, Version: version, Comment: comment, Units: t.Specs()}
}

// FromDocument builds a tree from doc's units. Units may appear in any order
// but the result must be acyclic.
func FromDocument(doc Document) (*Tree, error) {
	t := New()
	for i, spec := range doc.Units {
		if err := t.Put(spec); err != nil {
			return nil, fmt.Errorf("unit %d: %w", i, err)
		}
	}
	return t, nil
}

// Encode writes doc to w.
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode reads a document from r and checks its signature.
func Decode(r io.Reader, format Format) (Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("decode %s document: %w", format, err)
	}
	if doc.App != App {
		return Document{}, fmt.Errorf("%w: app %q", ErrBadSignature, doc.App)
	}
	return doc, nil
}
