// File: pkg/combine/worker.go
package combine

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"omnichunk/pkg/plan"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// chunkWriter renders one plan and returns the written path.
type chunkWriter interface {
	FileName(pl plan.Plan) string
	Write(pl plan.Plan) (string, error)
}

// writerPool writes plans concurrently while the planner is still producing
// them. Results are collected by ordinal.
type writerPool struct {
	group  *errgroup.Group
	ctx    context.Context
	writer chunkWriter
	dryRun bool
	logger *zap.Logger

	mu      sync.Mutex
	results []ChunkResult
}

func newWriterPool(ctx context.Context, writer chunkWriter, workers int, dryRun bool, logger *zap.Logger) *writerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
		logger.Debug("Adjusted worker count", zap.Int("workers", workers))
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	logger.Debug("Initializing writer pool", zap.Int("workers", workers), zap.Bool("dryRun", dryRun))

	return &writerPool{group: g, ctx: gctx, writer: writer, dryRun: dryRun, logger: logger}
}

// Submit is a plan.Emitter. It blocks while every worker is busy and fails
// once any write has failed or the context is done.
func (p *writerPool) Submit(pl plan.Plan) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	if p.dryRun {
		p.record(pl, p.writer.FileName(pl))
		return nil
	}

	p.group.Go(func() error {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		path, err := p.writer.Write(pl)
		if err != nil {
			p.logger.Error("Worker failed to write chunk", zap.Int("ordinal", pl.Ordinal), zap.Error(err))
			return err
		}
		p.record(pl, filepath.Base(path))
		return nil
	})
	return nil
}

// Wait blocks until every submitted write has finished and returns the
// results sorted by ordinal.
func (p *writerPool) Wait() ([]ChunkResult, error) {
	if err := p.group.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(p.results, func(i, j int) bool {
		return p.results[i].Ordinal < p.results[j].Ordinal
	})
	return p.results, nil
}

func (p *writerPool) record(pl plan.Plan, file string) {
	paths := make([]string, len(pl.Files))
	for i, f := range pl.Files {
		paths[i] = f.Path
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, ChunkResult{
		Ordinal:   pl.Ordinal,
		File:      file,
		GroupKeys: pl.GroupKeys,
		Files:     paths,
		Tokens:    pl.TotalSize,
		Oversize:  pl.Oversize,
	})
}
