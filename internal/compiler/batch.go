package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"topogen/internal/source"
)

// DefaultWorkers bounds CompileAll when workers <= 0.
const DefaultWorkers = 4

// CompileAll compiles every path with at most workers compilations in
// flight. Results come back in input order. A failed compilation is
// recorded in its Result; the returned error is only set when ctx ends
// first.
func CompileAll(ctx context.Context, paths []string, opts Options, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log := opts.logger()
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, _ := CompileFile(path, opts)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch cancelled: %w", err)
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	log.Info("batch finished", zap.Int("topologies", len(paths)), zap.Int("errors", failed))
	return results, nil
}

// Discover walks dir and returns every topology file in lexical order.
// skip is called with each path relative to dir (slash-separated) and
// drops the file, or the whole directory, when it returns true.
func Discover(dir string, skip func(rel string) bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if skip != nil && skip(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, err := source.FormatOf(path); err == nil {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover topologies in %s: %w", dir, err)
	}
	return paths, nil
}
