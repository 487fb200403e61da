package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/slowcomb/pkg/comb"
	"github.com/mesh-intelligence/slowcomb/pkg/sqlite"
	"github.com/mesh-intelligence/slowcomb/pkg/tree"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// attachStore validates the configured backend and attaches it. The caller
// must Detach the returned store.
func (a *app) attachStore() (types.Store, error) {
	cfg := a.storeConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadConfigValue, err)
	}
	store := sqlite.NewBackend(a.logger)
	if err := store.Attach(cfg); err != nil {
		return nil, sysError("attach store: %w", err)
	}
	return store, nil
}

// unitsTable returns the units table of an attached store.
func unitsTable(store types.Store) (types.Table, error) {
	table, err := store.GetTable(types.UnitsTable)
	if err != nil {
		return nil, sysError("get table: %w", err)
	}
	return table, nil
}

// detach releases the store and folds a detach failure into err.
func (a *app) detach(store types.Store, err *error) {
	if derr := store.Detach(); derr != nil {
		a.logger.Error("detach store", "error", derr)
		if *err == nil {
			*err = sysError("detach store: %w", derr)
		}
	}
}

// loadTree reads every stored spec into a tree.
func loadTree(table types.Table) (*tree.Tree, error) {
	records, err := table.Fetch(nil)
	if err != nil {
		return nil, sysError("fetch units: %w", err)
	}
	t := tree.New()
	for _, rec := range records {
		spec, ok := rec.(*types.UnitSpec)
		if !ok {
			return nil, sysError("fetch units: unexpected record %T", rec)
		}
		if err := t.Put(*spec); err != nil {
			return nil, classify(err, "load units")
		}
	}
	return t, nil
}

// withUnit attaches the store, builds the unit stored under id, and calls fn
// with it. The store is detached before withUnit returns.
func (a *app) withUnit(id string, fn func(*comb.Unit) error) (err error) {
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
	u, err := t.Build(id)
	if err != nil {
		return classify(err, "build unit")
	}
	a.logger.Debug("unit built", "unit_id", id, "unit", u.String())
	return fn(u)
}

var errBadRank = fmt.Errorf("%w: not an integer", types.ErrInvalidRank)

// parseRank reads a decimal rank argument.
func parseRank(s string) (int64, error) {
	rank, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %s", types.ErrRankOutOfRange, s)
		}
		return 0, fmt.Errorf("%w: %q", errBadRank, s)
	}
	if rank < 0 {
		return 0, fmt.Errorf("%w: %d", types.ErrInvalidRank, rank)
	}
	return rank, nil
}
