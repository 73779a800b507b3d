// Package plan partitions a manifest into an ordered list of chunk plans
// that respect a token budget.
//
// Three strategies are available, one per grouping mode:
//
//   - directory: whole directories are packed greedily, largest first, so small
//     directories share chunks. A directory larger than the budget on its own
//     is split file by file.
//   - type: files are split in scan order; a category change always starts
//     a new chunk.
//   - size: the whole corpus is split file by file in scan order.
//
// Every strategy first checks whether the entire corpus fits the budget, in
// which case exactly one plan is produced.
package plan

import (
	"errors"
	"fmt"

	"omnichunk/pkg/manifest"

	"go.uber.org/zap"
)

// ErrInvalidBudget is returned for a non-positive budget.
var ErrInvalidBudget = errors.New("budget must be a positive integer")

// Plan is one finalized chunk. Plans are immutable once emitted.
type Plan struct {
	Ordinal   int                 // 1-based, contiguous
	GroupKeys []string            // contributing group keys; empty in size mode
	Files     []manifest.FileUnit // in emission order
	TotalSize int                 // sum of Files sizes
	Oversize  bool                // TotalSize exceeds the budget
}

// Emitter receives each plan as soon as it is finalized. A non-nil error
// stops planning and is returned from Planner.Plan.
type Emitter func(Plan) error

// Strategy partitions a manifest for one grouping mode.
type Strategy interface {
	Plan(m *manifest.Manifest, budget int, seq *Sequencer) error
}

// strategies maps each mode to its implementation.
var strategies = map[manifest.Mode]Strategy{
	manifest.ModeDirectory: directoryStrategy{},
	manifest.ModeType:      typeStrategy{},
	manifest.ModeSize:      sizeStrategy{},
}

// StrategyFor returns the strategy registered for mode.
func StrategyFor(mode manifest.Mode) (Strategy, error) {
	s, ok := strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", manifest.ErrUnknownMode, mode)
	}
	return s, nil
}

// Planner runs the strategy matching a manifest's mode.
type Planner struct {
	budget int
	logger *zap.Logger
}

// New returns a Planner for budget.
func New(budget int, logger *zap.Logger) (*Planner, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, budget)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{budget: budget, logger: logger}, nil
}

// Budget returns the configured token budget.
func (p *Planner) Budget() int {
	return p.budget
}

// Plan streams the plans for m to emit in ordinal order.
func (p *Planner) Plan(m *manifest.Manifest, emit Emitter) error {
	strategy, err := StrategyFor(m.Mode)
	if err != nil {
		return err
	}

	seq := NewSequencer(p.budget, func(pl Plan) error {
		p.logger.Debug("Finalized chunk plan",
			zap.Int("ordinal", pl.Ordinal),
			zap.Strings("groupKeys", pl.GroupKeys),
			zap.Int("files", len(pl.Files)),
			zap.Int("tokens", pl.TotalSize),
			zap.Bool("oversize", pl.Oversize))
		return emit(pl)
	})

	if err := strategy.Plan(m, p.budget, seq); err != nil {
		return err
	}
	p.logger.Debug("Planning complete",
		zap.String("mode", string(m.Mode)),
		zap.Int("chunks", seq.Count()),
		zap.Int("budget", p.budget))
	return nil
}

// Collect runs Plan and returns every plan.
func (p *Planner) Collect(m *manifest.Manifest) ([]Plan, error) {
	var plans []Plan
	err := p.Plan(m, func(pl Plan) error {
		plans = append(plans, pl)
		return nil
	})
	return plans, err
}

// Sequencer assigns ordinals and forwards finalized plans.
type Sequencer struct {
	budget int
	next   int
	emit   Emitter
}

// NewSequencer returns a Sequencer starting at ordinal 1.
func NewSequencer(budget int, emit Emitter) *Sequencer {
	return &Sequencer{budget: budget, next: 1, emit: emit}
}

// Count returns how many plans have been emitted.
func (s *Sequencer) Count() int {
	return s.next - 1
}

// Finalize copies keys and files into a new plan and emits it. Empty file
// lists are dropped.
func (s *Sequencer) Finalize(keys []string, files []manifest.FileUnit) error {
	if len(files) == 0 {
		return nil
	}

	pl := Plan{
		Ordinal:   s.next,
		GroupKeys: append([]string(nil), keys...),
		Files:     append([]manifest.FileUnit(nil), files...),
	}
	for _, f := range files {
		pl.TotalSize += f.Size
	}
	pl.Oversize = pl.TotalSize > s.budget
	s.next++
	return s.emit(pl)
}

// wholeCorpus emits a single plan holding every file when the corpus fits
// the budget. Directory manifests keep their files together by bucket; type
// and size manifests keep scan order.
func wholeCorpus(m *manifest.Manifest, budget int, seq *Sequencer) (bool, error) {
	if m.TotalSize > budget {
		return false, nil
	}
	switch m.Mode {
	case manifest.ModeSize:
		return true, seq.Finalize(nil, m.Files)
	case manifest.ModeType:
		return true, seq.Finalize(m.Keys(), m.Files)
	}

	files := make([]manifest.FileUnit, 0, m.Len())
	for _, b := range m.Buckets {
		files = append(files, b.Members...)
	}
	return true, seq.Finalize(m.Keys(), files)
}
