package process

import (
	"context"
	"fmt"

	"rptl/layout/build"
	"rptl/pagination"
	"rptl/report"
	"rptl/style"
)

type walker struct {
	ctx      context.Context
	pass     *pass
	strategy build.Strategy
	builder  *build.ModelBuilder
	rec      *pagination.GroupSizeRecorder
	listener Listener
	markers  []build.InlineSubReportMarker
}

func (w *walker) emit(kind EventKind, band *report.Band, group *report.Group) {
	if w.listener == nil {
		return
	}
	w.listener(Event{
		Kind:       kind,
		Definition: w.pass.def,
		Band:       band,
		Group:      group,
		Row:        w.pass.index,
		Recorder:   w.rec,
		Builder:    w.builder,
	})
}

// band lays out band in its own section. Invisible bands produce nothing.
func (w *walker) band(band *report.Band, kind report.BandKind) error {
	if band == nil {
		return nil
	}
	if err := w.ctx.Err(); err != nil {
		return err
	}
	st, err := w.builder.ResolveStyle(band)
	if err != nil {
		return err
	}
	if !st.Bool(style.Visible) {
		return nil
	}
	if _, err := w.builder.StartSectionFor(band, kind); err != nil {
		return err
	}
	if err := w.strategy.Add(w.pass, w.builder, band, &w.markers); err != nil {
		return err
	}
	w.builder.EndSection()
	w.emit(EventBand, band, nil)
	return nil
}

// group lays out one section per run of rows with the same group field
// value. Group without data still produces its header and footer once.
func (w *walker) group(g *report.Group, rows []int) error {
	runs := splitRuns(w.pass.def.Data, g.Field, rows)
	if len(runs) == 0 {
		runs = [][]int{nil}
	}
	for _, run := range runs {
		w.rec.EnterGroup()
		w.emit(EventEnterGroup, nil, g)

		if _, err := w.builder.StartSectionFor(g, report.BandNested); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		if len(run) > 0 {
			w.pass.setRow(run[0])
		}
		if err := w.band(g.Header, report.BandGroupHeader); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		if g.Group != nil {
			if err := w.group(g.Group, run); err != nil {
				return fmt.Errorf("group %q: %w", g.Name, err)
			}
		} else if err := w.items(run); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		if len(run) > 0 {
			w.pass.setRow(run[len(run)-1])
		}
		if err := w.band(g.Footer, report.BandGroupFooter); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		w.builder.EndSection()

		w.rec.LeaveGroup()
		w.emit(EventLeaveGroup, nil, g)
	}
	return nil
}

// items lays out item band once per row. Every row is followed by a progress
// marker, a slot where page may be broken.
func (w *walker) items(rows []int) error {
	w.rec.EnterItems()
	for _, i := range rows {
		w.pass.setRow(i)
		if err := w.band(w.pass.def.ItemBand, report.BandItems); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		w.builder.AddProgressMarkerBox()
		w.rec.AdvanceItems()
		w.emit(EventItem, w.pass.def.ItemBand, nil)
	}
	w.rec.LeaveItems()
	return nil
}

func splitRuns(ds *report.DataSet, field string, rows []int) [][]int {
	if len(rows) == 0 {
		return nil
	}
	if field == "" {
		return [][]int{rows}
	}
	var (
		runs  [][]int
		start int
	)
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || ds.Row(rows[i])[field] != ds.Row(rows[start])[field] {
			runs = append(runs, rows[start:i])
			start = i
		}
	}
	return runs
}
