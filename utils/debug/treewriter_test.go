package debug

import (
	"bytes"
	"testing"
)

func TestTreeWriter(t *testing.T) {
	tests := []struct {
		name  string
		write func(tw *TreeWriter)
		want  string
	}{
		{
			name:  "empty",
			write: func(*TreeWriter) {},
			want:  "",
		},
		{
			name: "lines",
			write: func(tw *TreeWriter) {
				tw.Line(0, "root %q", "orders")
				tw.Line(1, "section <%s>", "page-header")
				tw.Line(3, "deep")
			},
			want: "root \"orders\"\n  section <page-header>\n      deep\n",
		},
		{
			name: "text blocks keep control characters visible",
			write: func(tw *TreeWriter) {
				tw.TextBlock(0, "text", "page 1\tof 2")
				tw.TextBlock(1, "text", "line\nbreak")
				tw.TextBlock(1, "style", "")
				tw.TextBlock(0, "text", `"quoted"`)
			},
			want: "text: \"page 1\\tof 2\"\n  text: \"line\\nbreak\"\n  style: \n" + `text: "\"quoted\""` + "\n",
		},
		{
			name: "attrs in natural order",
			write: func(tw *TreeWriter) {
				tw.Attrs(1, map[string]string{"y": "0", "height": "12000", "col10": "b", "col2": "a"})
				tw.Attrs(1, nil)
			},
			want: "  col2=a col10=b height=12000 y=0\n",
		},
		{
			name: "box tree",
			write: func(tw *TreeWriter) {
				tw.Line(0, "root")
				tw.Line(1, "paragraph")
				tw.Attrs(2, map[string]string{"lines": "2"})
				tw.TextBlock(2, "text", "Orders")
			},
			want: "root\n  paragraph\n    lines=2\n    text: \"Orders\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tt.write(tw)
			if got := tw.String(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_WriteTo(t *testing.T) {
	tw := NewTreeWriter()
	tw.Line(0, "root")

	var buf bytes.Buffer
	n, err := tw.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != 5 || buf.String() != "root\n" {
		t.Errorf("WriteTo() = %d, %q", n, buf.String())
	}
	// writer keeps its content
	if tw.String() != "root\n" {
		t.Errorf("String() after WriteTo = %q", tw.String())
	}
}
