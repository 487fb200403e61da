package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

var errBadSourceFlag = fmt.Errorf("%w: bad source flag", types.ErrInvalidSource)

func newUnitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unit",
		Short: "Manage stored units",
	}
	cmd.AddCommand(newUnitAddCmd(a))
	cmd.AddCommand(newUnitListCmd(a))
	cmd.AddCommand(newUnitShowCmd(a))
	cmd.AddCommand(newUnitDeleteCmd(a))
	return cmd
}

// sourceFlag appends a source to a shared list each time the flag is given,
// so --items, --letters and --source keep their command-line order.
type sourceFlag struct {
	dst  *[]types.SourceSpec
	kind string
}

func (f sourceFlag) String() string { return "" }

func (f sourceFlag) Type() string { return f.kind }

func (f sourceFlag) Set(v string) error {
	switch f.kind {
	case "id":
		if v == "" {
			return fmt.Errorf("%w: empty unit ID", errBadSourceFlag)
		}
		*f.dst = append(*f.dst, types.SourceSpec{UnitID: v})
	case "letters":
		if v == "" {
			return fmt.Errorf("%w: no letters", errBadSourceFlag)
		}
		items := make([]any, 0, len(v))
		for _, r := range v {
			items = append(items, string(r))
		}
		*f.dst = append(*f.dst, types.SourceSpec{Items: items})
	default:
		parts := strings.Split(v, ",")
		items := make([]any, len(parts))
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				return fmt.Errorf("%w: empty item in %q", errBadSourceFlag, v)
			}
			items[i] = p
		}
		*f.dst = append(*f.dst, types.SourceSpec{Items: items})
	}
	return nil
}

func newUnitAddCmd(a *app) *cobra.Command {
	var (
		id      string
		name    string
		family  string
		r       int
		sources []types.SourceSpec
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new unit",
		Long: `Store a unit built from one or more sources. Each --items, --letters or
--source flag adds one source, in the order given.

Example:
  slowcomb unit add --family permutation --r 2 --letters ABCD --name pairs
  slowcomb unit add --family combination --r 2 --source <unit-id>
  slowcomb unit add --family cat_combination --letters AB --items x,y,z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			fam, err := types.ParseFamily(family)
			if err != nil {
				return err
			}
			if fam.MultiSource() && !cmd.Flags().Changed("r") {
				r = len(sources)
			}
			spec := &types.UnitSpec{
				UnitID:  id,
				Name:    name,
				Family:  fam,
				Width:   r,
				Sources: sources,
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
			u, err := stored.Preview(*spec)
			if err != nil {
				return classify(err, "add unit")
			}
			newID, err := table.Set(id, spec)
			if err != nil {
				return classify(err, "add unit")
			}
			a.logger.Debug("unit added", "unit_id", newID, "unit", u.String())

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), spec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), newID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "unit ID (default: generated)")
	cmd.Flags().StringVar(&name, "name", "", "unit name")
	cmd.Flags().StringVarP(&family, "family", "f", "", "family: permutation, permutation_with_repeats, combination, combination_with_repeats, cat_combination")
	cmd.Flags().IntVarP(&r, "r", "r", 0, "term width; for cat_combination the number of sources used (default: all)")
	cmd.Flags().Var(sourceFlag{dst: &sources, kind: "items"}, "items", "comma-separated items forming one source")
	cmd.Flags().Var(sourceFlag{dst: &sources, kind: "letters"}, "letters", "a string whose characters form one source")
	cmd.Flags().Var(sourceFlag{dst: &sources, kind: "id"}, "source", "ID of a stored unit to use as a source")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}

func newUnitListCmd(a *app) *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			filter := map[string]any{}
			if family != "" {
				fam, err := types.ParseFamily(family)
				if err != nil {
					return err
				}
				filter["family"] = fam
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
			records, err := table.Fetch(filter)
			if err != nil {
				return classify(err, "list units")
			}

			specs := make([]*types.UnitSpec, 0, len(records))
			for _, rec := range records {
				spec, ok := rec.(*types.UnitSpec)
				if !ok {
					return sysError("list units: unexpected record %T", rec)
				}
				specs = append(specs, spec)
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), specs)
			}
			if len(specs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No units found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tFAMILY\tR\tSOURCES")
			fmt.Fprintln(w, "--\t----\t------\t-\t-------")
			for _, s := range specs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.UnitID, s.Name, s.Family, s.Width, describeSources(s.Sources))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&family, "family", "f", "", "only list units of this family")
	return cmd
}

func newUnitShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display a stored unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer a.detach(store, &err)
			table, err := unitsTable(store)
			if err != nil {
				return err
			}
			rec, err := table.Get(args[0])
			if err != nil {
				return classify(err, "show unit")
			}
			spec, ok := rec.(*types.UnitSpec)
			if !ok {
				return sysError("show unit: unexpected record %T", rec)
			}
			users, err := table.Fetch(map[string]any{"source_unit_id": spec.UnitID})
			if err != nil {
				return classify(err, "show unit")
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), spec)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", spec.UnitID)
			fmt.Fprintf(out, "Name:     %s\n", spec.Name)
			fmt.Fprintf(out, "Family:   %s\n", spec.Family)
			fmt.Fprintf(out, "R:        %d\n", spec.Width)
			fmt.Fprintf(out, "Created:  %s\n", spec.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintln(out, "Sources:")
			for i, s := range spec.Sources {
				fmt.Fprintf(out, "  %d. %s\n", i, describeSource(s))
			}
			if len(users) > 0 {
				fmt.Fprintln(out, "Used by:")
				for _, u := range users {
					if us, ok := u.(*types.UnitSpec); ok {
						fmt.Fprintf(out, "  %s\n", us.UnitID)
					}
				}
			}
			return nil
		},
	}
}

func newUnitDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer a.detach(store, &err)
			table, err := unitsTable(store)
			if err != nil {
				return err
			}
			if err := table.Delete(args[0]); err != nil {
				return classify(err, "delete unit")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted unit %s\n", args[0])
			return nil
		},
	}
}

func describeSource(s types.SourceSpec) string {
	if s.IsUnit() {
		return "unit " + s.UnitID
	}
	parts := make([]string, len(s.Items))
	for i, it := range s.Items {
		parts[i] = fmt.Sprint(it)
	}
	return "items " + strings.Join(parts, ",")
}

func describeSources(srcs []types.SourceSpec) string {
	parts := make([]string, len(srcs))
	for i, s := range srcs {
		parts[i] = describeSource(s)
	}
	return strings.Join(parts, "; ")
}
