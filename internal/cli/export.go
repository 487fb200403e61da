package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slowcomb/pkg/tree"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format  string
		comment string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored unit as a tree document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if format == "" && output != "" {
				format = filepath.Ext(output)
			}
			if format == "" {
				format = string(tree.FormatJSON)
			}
			f, err := tree.ParseFormat(format)
			if err != nil {
				return err
			}

			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer a.detach(store, &err)
			table, err := unitsTable(store)
			if err != nil {
				return err
			}
			t, err := loadTree(table)
			if err != nil {
				return err
			}
			doc := t.Document(Version, comment)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return sysError("create %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}
			if err := tree.Encode(w, doc, f); err != nil {
				return sysError("encode document: %w", err)
			}
			a.logger.Debug("units exported", "count", len(doc.Units), "format", f)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "document format: json or yaml (default: from --output, else json)")
	cmd.Flags().StringVar(&comment, "comment", "", "comment stored in the document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store the units of a tree document",
		Long: `Read a document written by export and store its units. Units already stored
under the same ID are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path := args[0]
			if format == "" {
				format = filepath.Ext(path)
			}
			f, err := tree.ParseFormat(format)
			if err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return sysError("open %s: %w", path, err)
			}
			defer file.Close()
			doc, err := tree.Decode(file, f)
			if err != nil {
				return classify(err, "import")
			}
			t, err := tree.FromDocument(doc)
			if err != nil {
				return classify(err, "import")
			}

			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer a.detach(store, &err)
			table, err := unitsTable(store)
			if err != nil {
				return err
			}
			stored, err := loadTree(table)
			if err != nil {
				return err
			}
			specs := t.Sorted()
			for _, spec := range specs {
				if err := stored.Put(spec); err != nil {
					return classify(err, "import")
				}
			}
			// Replacements may change units that stored units depend on.
			for _, spec := range stored.Specs() {
				if _, err := stored.Build(spec.UnitID); err != nil {
					return classify(err, "import")
				}
			}
			for _, spec := range specs {
				if _, err := table.Set(spec.UnitID, &spec); err != nil {
					return classify(err, fmt.Sprintf("import unit %s", spec.UnitID))
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d units\n", len(specs))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "document format: json or yaml (default: from the file extension)")
	return cmd
}
