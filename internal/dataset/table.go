// internal/dataset/table.go
package dataset

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the storage kind of a column.
type Kind int

const (
	KindNumeric Kind = iota
	KindText
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// Column holds one named column. Numeric columns mark missing values with NaN,
// text columns with the Missing flags.
type Column struct {
	Name     string
	Kind     Kind
	Numbers  []float64
	Texts    []string
	Missing  []bool
	integral bool
}

func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Numbers)
	}
	return len(c.Texts)
}

// IsMissing reports whether row i has no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return math.IsNaN(c.Numbers[i])
	}
	return c.Missing[i]
}

// Integral reports whether the column was read as whole numbers with no gaps,
// i.e. it behaves like an int64 column.
func (c *Column) Integral() bool {
	return c.Kind == KindNumeric && c.integral
}

// Table is an immutable, row-aligned set of columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

func newTable(columns []*Column) (*Table, error) {
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// Columns returns the columns in file order.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Names returns the column labels in file order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by label.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Describe renders a one-line-per-column schema summary for prompts.
func (t *Table) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d rows, %d columns:\n", t.rows, len(t.columns))
	for _, c := range t.columns {
		dtype := "object"
		if c.Kind == KindNumeric {
			dtype = "float64"
			if c.Integral() {
				dtype = "int64"
			}
		}
		fmt.Fprintf(&b, "- %s (%s)", c.Name, dtype)
		if sample := t.sample(c, 3); sample != "" {
			fmt.Fprintf(&b, " e.g. %s", sample)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (t *Table) sample(c *Column, n int) string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < t.rows && len(out) < n; i++ {
		if c.IsMissing(i) {
			continue
		}
		var v string
		if c.Kind == KindNumeric {
			v = FormatNumber(c.Numbers[i], c.Integral())
		} else {
			v = fmt.Sprintf("%q", c.Texts[i])
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}

// FormatNumber prints integral values without a fractional part.
func FormatNumber(v float64, integral bool) string {
	if integral && v == math.Trunc(v) && !math.IsInf(v, 0) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
