package layout

import (
	"unicode/utf8"

	"rptl/style"
)

// Metrics provides font dependent measurements for resolved styles.
type Metrics interface {
	// Baselines returns baseline table of a single line of text.
	Baselines(st *style.Resolved) BaselineInfo
	// TextWidth returns advance width of text.
	TextWidth(st *style.Resolved, text string) Unit
}

// ProportionalMetrics derives measurements from font size and line height
// alone, with fixed ratios of a typical latin font. It is good enough for
// structure level layout and tests, not for typesetting.
type ProportionalMetrics struct {
	Ascent      float64 // em fraction above alphabetic baseline
	Descent     float64 // em fraction below alphabetic baseline
	XHeight     float64
	AdvanceRate float64 // average glyph advance as em fraction
}

// DefaultMetrics is the metrics used when nothing else is configured.
var DefaultMetrics = &ProportionalMetrics{
	Ascent:      0.8,
	Descent:     0.2,
	XHeight:     0.5,
	AdvanceRate: 0.5,
}

func (m *ProportionalMetrics) Baselines(st *style.Resolved) BaselineInfo {
	em := st.FontSizePoints()
	lh := st.Float(style.LineHeight)
	if lh <= 0 {
		lh = 1
	}
	lineBox := em * lh
	leading := (lineBox - em*(m.Ascent+m.Descent)) / 2
	alphabetic := leading + em*m.Ascent

	var bi BaselineInfo
	bi.Positions[BaselineBeforeEdge] = 0
	bi.Positions[BaselineHanging] = FromPoints(leading + em*m.Ascent*0.2)
	bi.Positions[BaselineMathematical] = FromPoints(alphabetic - em*m.XHeight*0.6)
	bi.Positions[BaselineMiddle] = FromPoints(alphabetic - em*m.XHeight/2)
	bi.Positions[BaselineCentral] = FromPoints(leading + em*(m.Ascent+m.Descent)/2)
	bi.Positions[BaselineAlphabetic] = FromPoints(alphabetic)
	bi.Positions[BaselineIdeographic] = FromPoints(alphabetic + em*m.Descent)
	bi.Positions[BaselineAfterEdge] = FromPoints(lineBox)

	if b, ok := ParseBaseline(st.Text(style.DominantBaseline)); ok {
		bi.Dominant = b
	}
	return bi
}

func (m *ProportionalMetrics) TextWidth(st *style.Resolved, text string) Unit {
	return FromPoints(float64(utf8.RuneCountInString(text)) * st.FontSizePoints() * m.AdvanceRate)
}
