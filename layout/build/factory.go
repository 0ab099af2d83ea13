package build

import (
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"rptl/layout"
	"rptl/report"
	"rptl/style"
)

// NodeFactory converts styled report content into render nodes. Text runs
// of one element are bracketed by StartText and FinishText.
type NodeFactory interface {
	StartText()
	// CreateText returns zero or more nodes for a text run.
	CreateText(el report.Node, st *style.Resolved, text string) ([]layout.RenderNode, error)
	// CreateNode returns nodes for atomic content.
	CreateNode(el report.Node, st *style.Resolved, content any) ([]layout.RenderNode, error)
	FinishText()
}

// DefaultNodeFactory produces one text node per line of text, or per
// sentence when sentence splitting is on, and one content node for images
// and shapes. Sentences are split by the rules of the run's language.
type DefaultNodeFactory struct {
	log       *zap.Logger
	metrics   layout.Metrics
	split     bool
	splitters map[language.Tag]*Splitter
	inText    bool
	runNodes  int
}

// NewNodeFactory creates factory. Nil metrics means layout.DefaultMetrics.
func NewNodeFactory(metrics layout.Metrics, splitSentences bool, log *zap.Logger) *DefaultNodeFactory {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = layout.DefaultMetrics
	}
	return &DefaultNodeFactory{
		log:       log.Named("node-factory"),
		metrics:   metrics,
		split:     splitSentences,
		splitters: make(map[language.Tag]*Splitter),
	}
}

// splitter returns sentence splitter for lang, nil when splitting is off or
// no model fits the language. Splitters are created once per language.
func (f *DefaultNodeFactory) splitter(lang language.Tag) *Splitter {
	if !f.split {
		return nil
	}
	if s, ok := f.splitters[lang]; ok {
		return s
	}
	s := NewSplitter(lang, f.log)
	f.splitters[lang] = s
	return s
}

func (f *DefaultNodeFactory) StartText() {
	if f.inText {
		panic("node factory: text run is already started")
	}
	f.inText = true
	f.runNodes = 0
}

func (f *DefaultNodeFactory) FinishText() {
	if !f.inText {
		panic("node factory: text run was not started")
	}
	f.inText = false
	if ce := f.log.Check(zap.DebugLevel, "Text run finished"); ce != nil {
		ce.Write(zap.Int("nodes", f.runNodes))
	}
}

func (f *DefaultNodeFactory) CreateText(el report.Node, st *style.Resolved, text string) ([]layout.RenderNode, error) {
	if !f.inText {
		panic("node factory: text created outside of text run")
	}
	if text == "" {
		return nil, nil
	}
	if strings.ContainsRune(text, 0) {
		return nil, fmt.Errorf("%s: %w: text contains NUL", el.StyleName(), ErrContent)
	}

	bi := f.metrics.Baselines(st)
	name := nodeName(el)
	splitter := f.splitter(st.Language(style.Lang))

	var nodes []layout.RenderNode
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		var last *layout.RenderText
		for sentence := range splitter.Sentences(line) {
			last = layout.NewText(name, sentence, st, bi)
			nodes = append(nodes, last)
		}
		if last == nil {
			// keep empty lines
			last = layout.NewText(name, "", st, bi)
			nodes = append(nodes, last)
		}
		if i < len(lines)-1 {
			last.ForceLinebreak = true
		}
	}
	f.runNodes += len(nodes)
	return nodes, nil
}

func (f *DefaultNodeFactory) CreateNode(el report.Node, st *style.Resolved, content any) ([]layout.RenderNode, error) {
	em := st.FontSizePoints()
	width, height := layout.Unit(0), layout.FromPoints(em)
	if l, ok := st.Length(style.Width); ok {
		width = layout.FromPoints(l.Points(em))
	}
	if l, ok := st.Length(style.Height); ok {
		height = layout.FromPoints(l.Points(em))
	} else if l, ok := st.Length(style.MinHeight); ok {
		height = layout.FromPoints(l.Points(em))
	}

	switch data := content.(type) {
	case nil:
		return []layout.RenderNode{layout.NewContent(nodeName(el), st, nil, "", width, height)}, nil
	case []byte:
		if len(data) == 0 {
			return nil, nil
		}
		kind, err := filetype.Match(data)
		if err != nil || kind == filetype.Unknown {
			return nil, fmt.Errorf("%s: %w: unrecognized binary content", el.StyleName(), ErrContent)
		}
		if !filetype.IsImage(data) {
			return nil, fmt.Errorf("%s: %w: %s is not an image", el.StyleName(), ErrContent, kind.MIME.Value)
		}
		return []layout.RenderNode{layout.NewContent(nodeName(el), st, data, kind.MIME.Value, width, height)}, nil
	default:
		return nil, fmt.Errorf("%s: %w: unsupported content %T", el.StyleName(), ErrContent, content)
	}
}

func nodeName(el report.Node) string {
	if s, ok := el.(fmt.Stringer); ok {
		return s.String()
	}
	return el.StyleName()
}
