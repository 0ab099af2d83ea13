package build

import (
	"fmt"

	"github.com/google/uuid"

	"rptl/layout"
	"rptl/report"
	"rptl/style"
)

// InlineSubReportMarker remembers where content of a sub-report has to be
// placed once it is laid out.
type InlineSubReportMarker struct {
	SubReport *report.SubReport
	// InsertionPoint is the id of the sub-flow box, or of the placeholder
	// box for limited and non-inline sub-reports.
	InsertionPoint uuid.UUID
	// Marker is the id of the progress marker inside the sub-flow,
	// uuid.Nil when there is none.
	Marker  uuid.UUID
	Limited bool
}

// Inline reports whether sub-report content flows with the master report.
func (m InlineSubReportMarker) Inline() bool {
	return m.SubReport.Inline
}

// Strategy decides what a band contributes to the render tree.
type Strategy interface {
	// Add appends content of band to the innermost open box of the builder
	// and records sub-reports found on the way.
	Add(rt Runtime, b *ModelBuilder, band *report.Band, markers *[]InlineSubReportMarker) error
}

// DefaultStrategy walks band depth first skipping invisible elements. Nested
// bands get their own boxes. Invisible band contributes nothing.
type DefaultStrategy struct{}

func (s DefaultStrategy) Add(rt Runtime, b *ModelBuilder, band *report.Band, markers *[]InlineSubReportMarker) error {
	if markers == nil {
		panic("default strategy: markers destination is nil")
	}
	st, err := b.ResolveStyle(band)
	if err != nil {
		return fmt.Errorf("band %s: %w", band, err)
	}
	if !st.Bool(style.Visible) {
		return nil
	}
	for _, n := range band.Elements {
		if err := s.add(rt, b, n, markers); err != nil {
			return fmt.Errorf("band %s: %w", band, err)
		}
	}
	return nil
}

func (s DefaultStrategy) add(rt Runtime, b *ModelBuilder, n report.Node, markers *[]InlineSubReportMarker) error {
	st, err := b.ResolveStyle(n)
	if err != nil {
		return err
	}
	if !st.Bool(style.Visible) {
		return nil
	}

	switch x := n.(type) {
	case *report.Element:
		content, err := rt.Content(x)
		if err != nil {
			return fmt.Errorf("unable to get content of %s: %w", x, err)
		}
		return b.AddStyledElement(x, st, content)

	case *report.Band:
		if _, err := b.StartBox(x); err != nil {
			return err
		}
		for _, c := range x.Elements {
			if err := s.add(rt, b, c, markers); err != nil {
				b.FinishBox()
				return fmt.Errorf("band %s: %w", x, err)
			}
		}
		b.FinishBox()
		return nil

	case *report.SubReport:
		m, err := addSubReport(b, x)
		if err != nil {
			return err
		}
		*markers = append(*markers, m)
		return nil
	}
	// this should never happen
	panic(fmt.Sprintf("default strategy: unexpected band content %T", n))
}

func addSubReport(b *ModelBuilder, sr *report.SubReport) (InlineSubReportMarker, error) {
	m := InlineSubReportMarker{SubReport: sr, Limited: b.LimitedSubReports()}
	if m.Limited || !sr.Inline {
		box, err := b.AddSubReportPlaceholder(sr)
		if err != nil {
			return m, err
		}
		m.InsertionPoint = box.ID()
		return m, nil
	}

	flow, err := b.StartSubFlow(sr)
	if err != nil {
		return m, err
	}
	marker := b.AddProgressMarkerBox()
	b.FinishSubFlow()

	m.InsertionPoint, m.Marker = flow.ID(), marker.ID()
	return m, nil
}

// Expand places laid out sub-report content into the tree under root:
// children of src are moved into the sub-flow in place of the progress
// marker. Placeholder is replaced by a section holding children of src.
func (m InlineSubReportMarker) Expand(root, src *layout.RenderBox) error {
	target := layout.FindBox(root, m.InsertionPoint)
	if target == nil {
		return fmt.Errorf("insertion point of %s not found", m.SubReport)
	}
	if m.Marker == uuid.Nil {
		if target.BoxKind != layout.BoxPlaceholder {
			return fmt.Errorf("placeholder of %s not found", m.SubReport)
		}
		section := layout.NewBox(layout.BoxSection, target.Name(), target.Style())
		section.Origin = target.Origin
		for n := range src.Children() {
			src.Remove(n)
			section.AppendChild(n)
		}
		target.Parent().Replace(target, section)
		return nil
	}
	marker := layout.FindBox(target, m.Marker)
	if marker == nil || !marker.IsProgressMarker() {
		return fmt.Errorf("progress marker of %s not found", m.SubReport)
	}
	marker.Parent().Splice(marker, src)
	return nil
}
