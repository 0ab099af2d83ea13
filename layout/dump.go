package layout

import (
	"strconv"

	"rptl/utils/debug"
)

// DumpOptions controls what Dump includes.
type DumpOptions struct {
	IDs      bool // node instance ids
	Geometry bool // y offsets and heights
	Styles   bool // resolved styles, long
}

// Dump renders subtree of n in readable form.
func Dump(n RenderNode, opts DumpOptions) string {
	tw := debug.NewTreeWriter()
	Walk(n, func(node RenderNode, depth int) bool {
		dumpNode(tw, depth, node, opts)
		return true
	})
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, depth int, n RenderNode, opts DumpOptions) {
	head := n.Kind().String()
	switch x := n.(type) {
	case *RenderBox:
		head = x.BoxKind.String()
		if x.Origin != "" {
			head += " <" + x.Origin + ">"
		}
	case *RenderContent:
		if x.ContentType != "" {
			head += " " + x.ContentType
		}
	}
	if n.Name() != "" {
		head += " " + strconv.Quote(n.Name())
	}
	tw.Line(depth, "%s", head)

	attrs := map[string]string{}
	if opts.IDs {
		attrs["id"] = n.ID().String()
	}
	if opts.Geometry {
		attrs["y"] = n.Y().String()
		attrs["height"] = n.Height().String()
	}
	switch x := n.(type) {
	case *RenderBox:
		if x.BoxKind == BoxParagraph && opts.Geometry {
			attrs["lines"] = strconv.Itoa(x.Lines)
		}
	case *RenderText:
		if x.ForceLinebreak {
			attrs["break"] = "true"
		}
		if opts.Geometry {
			attrs["dominant"] = x.Baselines.Dominant.String()
		}
	case *RenderContent:
		if len(x.Content) > 0 {
			attrs["bytes"] = strconv.Itoa(len(x.Content))
		}
	}
	tw.Attrs(depth+1, attrs)

	if t, ok := n.(*RenderText); ok {
		tw.TextBlock(depth+1, "text", t.Text)
	}
	if opts.Styles && n.Style() != nil {
		tw.TextBlock(depth+1, "style", n.Style().String())
	}
}
