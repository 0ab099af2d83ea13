package report

// Row is a single data record, field name to value.
type Row map[string]string

// DataSet is the inline data a report is filled with.
type DataSet struct {
	Fields []string
	Rows   []Row
}

// Len returns number of rows, nil data set is empty.
func (ds *DataSet) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.Rows)
}

// Row returns i-th row or nil when out of range.
func (ds *DataSet) Row(i int) Row {
	if ds == nil || i < 0 || i >= len(ds.Rows) {
		return nil
	}
	return ds.Rows[i]
}

// Add appends a row registering any new field names in order of appearance.
func (ds *DataSet) Add(row Row, order ...string) {
	for _, f := range order {
		if _, ok := row[f]; ok && !ds.hasField(f) {
			ds.Fields = append(ds.Fields, f)
		}
	}
	ds.Rows = append(ds.Rows, row)
}

func (ds *DataSet) hasField(name string) bool {
	for _, f := range ds.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Content returns field value for element, static value when the element is
// not bound to a field.
func (e *Element) Content(row Row) string {
	if e.Field == "" {
		return e.Value
	}
	return row[e.Field]
}
