package align

import (
	"rptl/layout"
	"rptl/style"
)

// Extent is the vertical size of an aligned line in line coordinates.
type Extent struct {
	Baseline layout.Unit // position of the common baseline
	Top      layout.Unit
	Bottom   layout.Unit
}

// Height returns line box height.
func (e Extent) Height() layout.Unit {
	return e.Bottom - e.Top
}

func edges(c Context) (top, bottom layout.Unit) {
	top, bottom = c.BeforeEdge(), c.AfterEdge()
	if _, ok := c.(*NodeContext); ok {
		bottom += c.Node().Height()
	}
	return top, bottom
}

func verticalAlign(c Context) string {
	if _, ok := c.(*NodeContext); !ok {
		return style.AlignBaseline
	}
	return c.Node().Style().Text(style.VerticalAlign)
}

// AlignLine positions contexts of one line. Baseline aligned contexts are
// shifted so their baseline b sits on the common baseline, which is placed
// as high as the tallest ascent permits; atomic nodes sit on the baseline
// with their bottom edge. Nodes aligned to top, middle or bottom are placed
// against the line box formed by the rest and may extend it.
func AlignLine(ctxs []Context, b layout.Baseline) Extent {
	var ext Extent

	// common baseline
	for _, c := range ctxs {
		if verticalAlign(c) != style.AlignBaseline {
			continue
		}
		ascent := c.Node().Height()
		if _, ok := c.(*InlineBlockContext); ok {
			ascent = c.BaselineDistance(b) - c.BaselineDistance(layout.BaselineBeforeEdge)
		}
		ext.Baseline = max(ext.Baseline, ascent)
	}

	for _, c := range ctxs {
		if verticalAlign(c) != style.AlignBaseline {
			continue
		}
		var top layout.Unit
		if ic, ok := c.(*InlineBlockContext); ok {
			top = ext.Baseline - (ic.BaselineDistance(b) - ic.BaselineDistance(layout.BaselineBeforeEdge))
		} else {
			top = ext.Baseline - c.Node().Height()
		}
		c.Shift(top - c.BeforeEdge())
		_, bottom := edges(c)
		ext.Bottom = max(ext.Bottom, bottom)
	}

	// the rest is placed against the line box
	for _, c := range ctxs {
		if verticalAlign(c) == style.AlignBaseline {
			continue
		}
		ext.Bottom = max(ext.Bottom, c.Node().Height())
	}
	for _, c := range ctxs {
		h := c.Node().Height()
		var top layout.Unit
		switch verticalAlign(c) {
		case style.AlignTop:
			top = 0
		case style.AlignMiddle:
			top = (ext.Bottom - h) / 2
		case style.AlignBottom:
			top = ext.Bottom - h
		default:
			continue
		}
		c.Shift(top - c.BeforeEdge())
	}
	return ext
}

// Paragraphs runs alignment over the whole tree. Paragraph children are
// broken into lines after every forced line break and aligned line by line,
// other boxes stack their children vertically. Every node gets its offset
// inside the parent, every box its height and every paragraph the number
// of lines.
func Paragraphs(root *layout.RenderBox) {
	root.SetHeight(arrange(root))
}

func arrange(box *layout.RenderBox) layout.Unit {
	st := box.Style()
	em := st.FontSizePoints()
	padTop := lengthPoints(st, style.PaddingTop, em)
	padBottom := lengthPoints(st, style.PaddingBottom, em)

	var h layout.Unit
	if box.BoxKind == layout.BoxParagraph {
		h = paragraph(box, padTop)
	} else {
		h = padTop
		for n := range box.Children() {
			if child, ok := n.(*layout.RenderBox); ok {
				child.SetHeight(arrange(child))
			}
			n.SetY(h)
			h += n.Height()
		}
	}
	h += padBottom

	if fixed, ok := st.Length(style.Height); ok {
		return layout.FromPoints(fixed.Points(em))
	}
	if minimum, ok := st.Length(style.MinHeight); ok {
		h = max(h, layout.FromPoints(minimum.Points(em)))
	}
	return h
}

func lengthPoints(st *style.Resolved, k *style.Key, em float64) layout.Unit {
	l, ok := st.Length(k)
	if !ok {
		return 0
	}
	return layout.FromPoints(l.Points(em))
}

func paragraph(box *layout.RenderBox, y layout.Unit) layout.Unit {
	b := layout.BaselineAlphabetic
	if st := box.Style(); st != nil {
		if d, ok := layout.ParseBaseline(st.Text(style.DominantBaseline)); ok {
			b = d
		}
	}

	lines := 0
	var line []Context
	flush := func() {
		if len(line) == 0 {
			return
		}
		ext := AlignLine(line, b)
		for _, c := range line {
			c.Node().SetY(y + c.BeforeEdge())
		}
		y += ext.Height()
		lines++
		line = line[:0]
	}
	for n := range box.Children() {
		if child, ok := n.(*layout.RenderBox); ok {
			child.SetHeight(arrange(child))
		}
		line = append(line, NewContext(n))
		if t, ok := n.(*layout.RenderText); ok && t.ForceLinebreak {
			flush()
		}
	}
	flush()
	box.Lines = lines
	return y
}
