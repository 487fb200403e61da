package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slowcomb/pkg/comb"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// termResult is the JSON form of one looked-up term.
type termResult struct {
	Rank int64      `json:"rank"`
	Term types.Term `json:"term"`
}

func newTermCmd(a *app) *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "term <id> <rank>",
		Short: "Print the term at a rank",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rank, err := parseRank(args[1])
			if err != nil {
				return err
			}
			return a.withUnit(args[0], func(u *comb.Unit) error {
				t, err := u.TermAt(rank)
				if err != nil {
					return classify(err, "term")
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), termResult{Rank: rank, Term: t})
				}
				s, err := formatTerm(t, compact)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "join string elements with no separator")
	return cmd
}

func newTermsCmd(a *app) *cobra.Command {
	var (
		limit   int
		workers int
		compact bool
	)
	cmd := &cobra.Command{
		Use:   "terms <id> [ranges]",
		Short: "Print the terms at a set of ranks",
		Long: `Print the terms at the given ranks. Ranges are comma-separated ranks or
inclusive intervals in ascending order, for example "0-9,20,30-32". Without
ranges every term is printed, up to the limit.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rs comb.RangeSet
			if len(args) > 1 {
				var err error
				if rs, err = comb.ParseRanges(args[1]); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.GetInt(cfgKeyTermLimit)
			} else if limit < 1 {
				return fmt.Errorf("%w: --limit %d must be positive", errBadConfigValue, limit)
			}

			return a.withUnit(args[0], func(u *comb.Unit) error {
				if rs == nil {
					rs = comb.Span(0, u.Len())
				}
				if err := rs.Validate(u.Len()); err != nil {
					return classify(err, "terms")
				}
				var ranks []int64
				for r := range rs.Ranks() {
					if len(ranks) == limit {
						break
					}
					ranks = append(ranks, r)
				}

				var seq types.Sequence = u
				var cached *comb.Cached
				if size := a.cfg.GetInt(cfgKeyCacheSize); size > 0 {
					c, err := comb.NewCached(u, size)
					if err != nil {
						return classify(err, "terms")
					}
					seq, cached = c, c
				}
				els, err := comb.Collect(cmd.Context(), seq, ranks, workers)
				if err != nil {
					return classify(err, "terms")
				}
				if cached != nil {
					st := cached.Stats()
					a.logger.Debug("term cache", "hits", st.Hits, "misses", st.Misses, "evictions", st.Evictions)
				}

				results := make([]termResult, len(ranks))
				for i, el := range els {
					t, ok := types.AsTerm(el)
					if !ok {
						return sysError("terms: rank %d gave %T", ranks[i], el)
					}
					results[i] = termResult{Rank: ranks[i], Term: t}
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), results)
				}
				out := cmd.OutOrStdout()
				for _, res := range results {
					s, err := formatTerm(res.Term, compact)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%d\t%s\n", res.Rank, s)
				}
				if rest := rs.Count() - int64(len(ranks)); rest > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d more terms not shown; raise --limit\n", rest)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of terms to print, at least 1 (default: term_limit from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent lookups")
	cmd.Flags().BoolVar(&compact, "compact", false, "join string elements with no separator")
	return cmd
}

func newRankCmd(a *app) *cobra.Command {
	var chars bool
	cmd := &cobra.Command{
		Use:   "rank <id> <term>",
		Short: "Print the rank of a term",
		Long: `Print the rank of a term given as a JSON array, for example '["B","D"]'.
With --chars the term is a plain string and each character is one element.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			term, err := parseTerm(args[1], chars)
			if err != nil {
				return err
			}
			return a.withUnit(args[0], func(u *comb.Unit) error {
				rank, err := u.RankOf(term)
				if err != nil {
					return classify(err, "rank")
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), termResult{Rank: rank, Term: term})
				}
				fmt.Fprintln(cmd.OutOrStdout(), rank)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&chars, "chars", false, "read the term as a string of one-character elements")
	return cmd
}

var errBadTerm = fmt.Errorf("%w: term must be a JSON array", types.ErrTermWidth)

func parseTerm(s string, chars bool) (types.Term, error) {
	if chars {
		t := make(types.Term, 0, len(s))
		for _, r := range s {
			t = append(t, string(r))
		}
		return t, nil
	}
	var t []any
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadTerm, err)
	}
	return types.Term(t), nil
}

// unitInfo is the JSON form of the info command.
type unitInfo struct {
	UnitID        string       `json:"unit_id"`
	Name          string       `json:"name,omitempty"`
	Family        types.Family `json:"family"`
	R             int          `json:"r"`
	Length        int64        `json:"length"`
	Width         int          `json:"width"`
	Depth         int          `json:"depth"`
	Sources       int          `json:"sources"`
	SupportsIndex bool         `json:"supports_index"`
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Describe a unit without listing its terms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUnit(args[0], func(u *comb.Unit) error {
				info := unitInfo{
					UnitID:        args[0],
					Name:          u.Name(),
					Family:        u.Family(),
					R:             u.R(),
					Length:        u.Len(),
					Width:         u.Width(),
					Depth:         u.Depth(),
					Sources:       len(u.Sources()),
					SupportsIndex: u.SupportsIndex(),
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), info)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Unit:           %s\n", u)
				fmt.Fprintf(out, "Length:         %d\n", info.Length)
				fmt.Fprintf(out, "Width:          %d\n", info.Width)
				fmt.Fprintf(out, "Depth:          %d\n", info.Depth)
				fmt.Fprintf(out, "Reverse lookup: %t\n", info.SupportsIndex)
				return nil
			})
		},
	}
}
