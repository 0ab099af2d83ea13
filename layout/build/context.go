// Package build turns a depth-first traversal of a report definition into a
// render tree. ModelBuilder owns the tree under construction, Strategy
// decides what a band contributes to it and NodeFactory converts styled
// content into render nodes.
package build

import (
	"errors"

	"go.uber.org/zap"

	"rptl/layout"
	"rptl/report"
	"rptl/style"
)

// ProcessingContext is the environment of one processing pass.
type ProcessingContext interface {
	Resolver() *style.Resolver
	Metrics() layout.Metrics
	Logger() *zap.Logger
}

// Runtime gives access to the data the report is being filled with.
type Runtime interface {
	// Content returns content of element for the current data row: string
	// for text elements, []byte for images, nil for shapes.
	Content(el *report.Element) (any, error)
}

// ErrContent is returned when node factory cannot produce nodes for content.
var ErrContent = errors.New("malformed content")
