package comb

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Collect resolves seq.At for every rank concurrently with at most workers
// lookups in flight, returning the elements in input order. It stops at the
// first error or when ctx is done. workers < 1 means one worker.
func Collect(ctx context.Context, seq types.Sequence, ranks []int64, workers int) ([]any, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]any, len(ranks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rank := range ranks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := seq.At(rank)
			if err != nil {
				return fmt.Errorf("rank %d: %w", rank, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CollectTerms is Collect for a unit, returning typed terms.
func CollectTerms(ctx context.Context, u *Unit, ranks []int64, workers int) ([]types.Term, error) {
	els, err := Collect(ctx, u, ranks, workers)
	if err != nil {
		return nil, err
	}
	out := make([]types.Term, len(els))
	for i, el := range els {
		out[i] = el.(types.Term)
	}
	return out, nil
}
