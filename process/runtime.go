package process

import (
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"rptl/layout"
	"rptl/layout/build"
	"rptl/report"
	"rptl/style"
)

// pass is environment of a single processing pass over one report
// definition. It provides both processing context and runtime data access
// to the builder.
type pass struct {
	log      *zap.Logger
	def      *report.Definition
	resolver *style.Resolver
	metrics  layout.Metrics
	row      report.Row
	index    int
}

var (
	_ build.ProcessingContext = (*pass)(nil)
	_ build.Runtime           = (*pass)(nil)
)

func (p *pass) Resolver() *style.Resolver { return p.resolver }
func (p *pass) Metrics() layout.Metrics   { return p.metrics }
func (p *pass) Logger() *zap.Logger       { return p.log }

func (p *pass) setRow(i int) {
	p.index, p.row = i, p.def.Data.Row(i)
}

// Content returns element content for the current row. Images bound to a
// field expect base64 encoded field value.
func (p *pass) Content(el *report.Element) (any, error) {
	if el.Type == nil {
		// this should never happen
		panic(fmt.Sprintf("element %s is not linked", el))
	}
	switch el.Type.Content {
	case report.ContentText:
		if el.Field != "" && p.row != nil {
			if _, ok := p.row[el.Field]; !ok {
				if ce := p.log.Check(zap.DebugLevel, "Field is missing from data row"); ce != nil {
					ce.Write(zap.Stringer("element", el), zap.String("field", el.Field), zap.Int("row", p.index))
				}
			}
		}
		return el.Content(p.row), nil
	case report.ContentImage:
		if el.Field == "" {
			return el.Data, nil
		}
		value := el.Content(p.row)
		if value == "" {
			return []byte(nil), nil
		}
		data, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("field %q of row %d: %w", el.Field, p.index, err)
		}
		return data, nil
	default:
		return nil, nil
	}
}
