// Package process drives layout of a report definition: it traverses the
// report depth first feeding style resolver, model builder and group size
// recorder, expands sub-reports and aligns paragraphs of the result.
package process

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rptl/layout"
	"rptl/layout/align"
	"rptl/layout/build"
	"rptl/pagination"
	"rptl/report"
	"rptl/style"
)

// EventKind tells what traversal just did.
type EventKind int

const (
	EventBand EventKind = iota
	EventEnterGroup
	EventLeaveGroup
	EventItem
)

func (k EventKind) String() string {
	switch k {
	case EventBand:
		return "band"
	case EventEnterGroup:
		return "enter-group"
	case EventLeaveGroup:
		return "leave-group"
	case EventItem:
		return "item"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is delivered to the listener after the traversal step is done.
// Recorder and Builder are live, listener which wants to keep them has to
// Clone and Derive.
type Event struct {
	Kind       EventKind
	Definition *report.Definition
	Band       *report.Band
	Group      *report.Group
	Row        int
	Recorder   *pagination.GroupSizeRecorder
	Builder    *build.ModelBuilder
}

// Listener observes traversal of the master report, pagination driver uses
// it to take snapshots.
type Listener func(Event)

// Options of a processing run.
type Options struct {
	DesignTime             bool
	LimitedSubReports      bool
	CollapseProgressMarker bool
	SplitSentences         bool
	// Stats enables style resolver instrumentation.
	Stats    bool
	Metrics  layout.Metrics
	Strategy build.Strategy
	Listener Listener
}

// Result of a processing run.
type Result struct {
	Root     *layout.RenderBox
	Recorder *pagination.GroupSizeRecorder
	Markers  []build.InlineSubReportMarker
	Warnings error
	// Stats of the master report resolver, nil unless requested.
	Stats *style.Stats
}

// Processor lays out one report definition.
type Processor struct {
	log  *zap.Logger
	def  *report.Definition
	opts Options
}

// New creates processor for linked report definition.
func New(def *report.Definition, opts Options, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = layout.DefaultMetrics
	}
	if opts.Strategy == nil {
		opts.Strategy = build.DefaultStrategy{}
	}
	return &Processor{log: log.Named("process"), def: def, opts: opts}
}

func (p *Processor) newResolver() *style.Resolver {
	opts := []func(*style.Resolver){style.WithDesignTime(p.opts.DesignTime)}
	if p.opts.Stats {
		opts = append(opts, style.WithStats())
	}
	return style.NewResolver(p.log, opts...)
}

// Run processes report. Cancelling ctx stops traversal between bands, partially
// built tree is discarded.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	res := &Result{
		Root:     layout.NewRoot(p.def.Name),
		Recorder: pagination.NewGroupSizeRecorder(),
		Warnings: p.def.Warnings,
	}
	resolver := p.newResolver()

	markers, err := p.runPass(ctx, p.def, res.Root, resolver, res.Recorder, p.opts.Listener)
	if err != nil {
		return nil, fmt.Errorf("unable to process report %q: %w", p.def.Name, err)
	}
	res.Markers = markers
	res.Stats = resolver.Stats()

	if !p.opts.LimitedSubReports {
		if err := p.expand(ctx, res.Root, markers); err != nil {
			return nil, fmt.Errorf("unable to expand sub-reports of %q: %w", p.def.Name, err)
		}
	}

	align.Paragraphs(res.Root)

	p.log.Debug("Report processed",
		zap.String("report", p.def.Name),
		zap.Int("sub-reports", len(markers)),
		zap.Duration("elapsed", time.Since(start)))
	if res.Stats != nil {
		p.log.Debug("Style resolution", zap.Stringer("stats", res.Stats))
	}
	return res, nil
}

// expand lays out every recorded sub-report in its own pass with a fresh
// resolver and places result into the tree. Nested sub-reports are expanded
// before their parent content is placed.
func (p *Processor) expand(ctx context.Context, root *layout.RenderBox, markers []build.InlineSubReportMarker) error {
	for _, m := range markers {
		def := m.SubReport.Definition

		sub := layout.NewRoot(def.Name)
		nested, err := p.runPass(ctx, def, sub, p.newResolver(), pagination.NewGroupSizeRecorder(), nil)
		if err != nil {
			return fmt.Errorf("%s: %w", m.SubReport, err)
		}
		if err := p.expand(ctx, sub, nested); err != nil {
			return err
		}
		if err := m.Expand(root, sub); err != nil {
			return err
		}
		if ce := p.log.Check(zap.DebugLevel, "Sub-report expanded"); ce != nil {
			ce.Write(zap.Stringer("sub-report", m.SubReport), zap.Bool("inline", m.Inline()), zap.Int("nested", len(nested)))
		}
	}
	return nil
}

func (p *Processor) runPass(ctx context.Context, def *report.Definition, root *layout.RenderBox,
	resolver *style.Resolver, rec *pagination.GroupSizeRecorder, listener Listener) ([]build.InlineSubReportMarker, error) {

	ps := &pass{
		log:      p.log.With(zap.String("report", def.Name)),
		def:      def,
		resolver: resolver,
		metrics:  p.opts.Metrics,
	}
	b := build.NewModelBuilder(ps.log)
	b.Initialize(ps, root, build.NewNodeFactory(p.opts.Metrics, p.opts.SplitSentences, ps.log))
	b.SetCollapseProgressMarker(p.opts.CollapseProgressMarker)
	b.SetLimitedSubReports(p.opts.LimitedSubReports)

	w := &walker{
		ctx:      ctx,
		pass:     ps,
		strategy: p.opts.Strategy,
		builder:  b,
		rec:      rec,
		listener: listener,
	}

	rows := make([]int, def.Data.Len())
	for i := range rows {
		rows[i] = i
	}
	if def.Data == nil {
		// static report, items are laid out once with no data row
		rows = []int{-1}
	}

	first, last := -1, -1
	if len(rows) > 0 {
		first, last = rows[0], rows[len(rows)-1]
	}

	ps.setRow(first)
	if err := w.band(def.PageHeader, report.BandPageHeader); err != nil {
		return nil, err
	}
	if err := w.band(def.ReportHeader, report.BandReportHeader); err != nil {
		return nil, err
	}
	if err := w.group(def.Group, rows); err != nil {
		return nil, err
	}
	ps.setRow(last)
	if err := w.band(def.ReportFooter, report.BandReportFooter); err != nil {
		return nil, err
	}
	if err := w.band(def.PageFooter, report.BandPageFooter); err != nil {
		return nil, err
	}
	b.Close()
	return w.markers, nil
}
