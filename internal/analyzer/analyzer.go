// Package analyzer runs the trace pipeline: segmentation, deduplication,
// table inference and grouping.
package analyzer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Nao-Mk2/xdebug-race-inspector/internal/group"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/model"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/table"
	"github.com/Nao-Mk2/xdebug-race-inspector/internal/trace"
)

// Analysis is the outcome of one run.
type Analysis struct {
	// Tables lists the table universe in report order.
	Tables []string
	// Paths holds the deduplicated reduced traces per table.
	Paths model.GroupedResult
	// Traces is the number of unique closed traces.
	Traces int
}

// Analyzer wires the pipeline stages together.
type Analyzer struct {
	segmenter *trace.Segmenter
	extractor *table.Extractor
	unique    func([]model.Trace) []model.Trace
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithSegmenter replaces the default segmenter.
func WithSegmenter(s *trace.Segmenter) Option {
	return func(a *Analyzer) { a.segmenter = s }
}

// WithExtractor replaces the default table extractor.
func WithExtractor(e *table.Extractor) Option {
	return func(a *Analyzer) { a.extractor = e }
}

// WithStableOrder keeps traces in first occurrence order when deduplicating.
func WithStableOrder(stable bool) Option {
	return func(a *Analyzer) {
		if stable {
			a.unique = group.StableUnique
		} else {
			a.unique = group.Unique
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		segmenter: trace.NewSegmenter(),
		extractor: table.NewExtractor(),
		unique:    group.Unique,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze runs the pipeline over the log lines.
func (a *Analyzer) Analyze(lines []string) (*Analysis, error) {
	return a.AnalyzeStreams([][]string{lines})
}

// AnalyzeStreams segments every stream on its own, so a trace never spans
// two streams, then runs the rest of the pipeline over all their traces.
func (a *Analyzer) AnalyzeStreams(streams [][]string) (*Analysis, error) {
	var all []model.Trace
	var lines int
	for i, s := range streams {
		seg, err := a.segmenter.Segment(s)
		if err != nil {
			return nil, fmt.Errorf("segment traces of stream %d: %w", i+1, err)
		}
		if seg.Pending > 0 {
			a.logger.Warn("dropping unterminated trailing trace", "stream", i+1, "calls", seg.Pending, "marker", a.segmenter.EndMarker)
		}
		all = append(all, seg.Traces...)
		lines += len(s)
	}

	traces := a.unique(all)
	a.logger.Debug("segmented log", "streams", len(streams), "lines", lines, "traces", len(all), "unique", len(traces))

	universe := a.extractor.Universe(traces)
	grouped := group.Group(a.extractor, traces, universe)
	for t, paths := range grouped {
		grouped[t] = a.unique(paths)
	}
	a.logger.Debug("grouped traces", "tables", len(universe))

	return &Analysis{
		Tables: universe.Sorted(),
		Paths:  grouped,
		Traces: len(traces),
	}, nil
}
