package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/fburn/internal/model"
	"github.com/theirongolddev/fburn/internal/source"
)

// LoadResult holds the output of loading one or more statement files.
type LoadResult struct {
	Transactions []model.Transaction
	Files        []string
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses every statement under paths. Files are parsed in
// parallel; rows are concatenated in discovery order and numbered from 1.
// The first failing file fails the whole load.
func Load(ctx context.Context, paths []string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.Discover(paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .csv or .xlsx statements found in %v", paths)
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	results := make([]source.ParseResult, len(files))
	var processed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = source.ParseFile(f)
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(int(n), len(files))
			}
			return results[i].Err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &LoadResult{}
	for _, pr := range results {
		out.Files = append(out.Files, pr.File.Name)
		out.Transactions = append(out.Transactions, pr.Transactions...)
	}
	renumber(out.Transactions)
	return out, nil
}

// LoadReader parses a single uploaded statement. The format follows name's
// extension.
func LoadReader(r io.Reader, name string) (*LoadResult, error) {
	txs, err := source.Parse(r, name, source.FormatFor(name))
	if err != nil {
		return nil, err
	}
	return &LoadResult{Transactions: txs, Files: []string{name}}, nil
}

func renumber(txs []model.Transaction) {
	for i := range txs {
		txs[i].ID = i + 1
	}
}
