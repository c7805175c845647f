// pkg/compare/compare.go
package compare

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/dattu/rollsim/pkg/fingerprint"
	"github.com/dattu/rollsim/pkg/source"
	"golang.org/x/sync/errgroup"
)

// Result is the similarity of two named inputs.
type Result struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// Pair returns the similarity of a and b. Both are read under ctx, so
// cancelling ctx aborts the comparison at the next chunk.
func Pair(ctx context.Context, a, b source.Source, cfg fingerprint.Config) (float64, error) {
	ea, err := fingerprint.New(source.WithContext(ctx, a), cfg)
	if err != nil {
		return 0, err
	}
	eb, err := fingerprint.New(source.WithContext(ctx, b), cfg)
	if err != nil {
		return 0, err
	}
	return ea.Similarity(eb)
}

// Matrix fingerprints every path once, at most workers at a time, and
// returns the similarity of every unordered pair sorted by descending
// score. Paths are opened with source.Open, so compressed files are
// compared by content. workers <= 0 means one per CPU.
func Matrix(ctx context.Context, paths []string, cfg fingerprint.Config, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sets := make([]*fingerprint.Set, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			e, err := fingerprint.New(source.WithContext(gctx, source.Open(p)), cfg)
			if err != nil {
				return err
			}
			set, err := e.Fingerprints()
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(paths)*(len(paths)-1)/2)
	for i := range paths {
		for j := i + 1; j < len(paths); j++ {
			s, err := fingerprint.Similarity(sets[i], sets[j])
			if err != nil {
				return nil, err
			}
			results = append(results, Result{A: paths[i], B: paths[j], Score: s})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}
