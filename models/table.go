package models

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Frame is the read-only columnar view every encoder consumes.
type Frame interface {
	Len() int
	Columns() []string
	Float(col string, row int) (float64, error)
	String(col string, row int) (string, error)
}

// Table is an ordered set of named float64 columns of equal length.
type Table struct {
	n     int
	names []string
	cols  map[string][]float64
}

// NewTable returns an empty table with n rows.
func NewTable(n int) *Table {
	return &Table{n: n, cols: make(map[string][]float64)}
}

// Set adds or replaces a column. The column must have Len() values.
func (t *Table) Set(name string, values []float64) {
	if len(values) != t.n {
		panic(fmt.Sprintf("table: column %q has %d values, want %d", name, len(values), t.n))
	}
	if _, ok := t.cols[name]; !ok {
		t.names = append(t.names, name)
	}
	t.cols[name] = values
}

// Col returns the named column.
func (t *Table) Col(name string) ([]float64, bool) {
	c, ok := t.cols[name]
	return c, ok
}

func (t *Table) Len() int { return t.n }

func (t *Table) Columns() []string {
	return append([]string(nil), t.names...)
}

func (t *Table) Float(col string, row int) (float64, error) {
	c, ok := t.cols[col]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	return c[row], nil
}

func (t *Table) String(col string, row int) (string, error) {
	v, err := t.Float(col, row)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// Dense copies the table into a rows x columns matrix in column order.
func (t *Table) Dense() *mat.Dense {
	if t.n == 0 || len(t.names) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(t.n, len(t.names), nil)
	for j, name := range t.names {
		m.SetCol(j, t.cols[name])
	}
	return m
}

// HStack concatenates tables column-wise, prefixing each column with the
// matching entry of prefixes.
func HStack(prefixes []string, tables []*Table) (*Table, error) {
	if len(tables) == 0 {
		return NewTable(0), nil
	}
	out := NewTable(tables[0].n)
	for i, tbl := range tables {
		if tbl.n != out.n {
			return nil, fmt.Errorf("hstack: table %d has %d rows, want %d", i, tbl.n, out.n)
		}
		for _, name := range tbl.names {
			out.Set(prefixes[i]+name, tbl.cols[name])
		}
	}
	return out, nil
}
