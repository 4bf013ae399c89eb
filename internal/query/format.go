// internal/query/format.go
package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxRows     = 60
	previewRows = 5
	maxColWidth = 50
)

// Format renders a value the way print() shows it in a pandas session.
func Format(v Value) string {
	switch x := v.(type) {
	case Str:
		return string(x)
	case *Series:
		return formatSeries(x)
	case *Frame:
		return formatFrame(x)
	case *GroupBy:
		return fmt.Sprintf("<pandas.core.groupby.%s object>", x.TypeName())
	case *Method:
		return fmt.Sprintf("<bound method %s.%s>", x.Owner, x.Name)
	case *Builtin:
		return fmt.Sprintf("<built-in function %s>", x.Name)
	case *Module:
		return fmt.Sprintf("<module '%s'>", x.Name)
	case *StringMethods:
		return "<pandas.core.strings.accessor.StringMethods object>"
	case *Indexer:
		return "<pandas.core.indexing._iLocIndexer object>"
	}
	return repr(v)
}

// repr renders a scalar or container element.
func repr(v Value) string {
	switch x := v.(type) {
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return pyFloat(float64(x))
	case Bool:
		if x {
			return "True"
		}
		return "False"
	case NoneType:
		return "None"
	case Str:
		if strings.Contains(string(x), "'") && !strings.Contains(string(x), `"`) {
			return `"` + string(x) + `"`
		}
		return "'" + strings.ReplaceAll(string(x), "'", `\'`) + "'"
	case Tuple:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = repr(e)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *List:
		return formatList(x)
	}
	return Format(v)
}

// pyFloat mirrors Python's float repr.
func pyFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mant, power, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(power)
	if exp < -4 || exp >= 16 {
		digits := strings.TrimLeft(power[1:], "0")
		for len(digits) < 2 {
			digits = "0" + digits
		}
		return mant + "e" + power[:1] + digits
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatList(l *List) string {
	switch l.Kind {
	case ndArray:
		cells := cellStrings(l.Items, l.DType, true)
		return "[" + strings.Join(cells, " ") + "]"
	case indexList:
		parts := make([]string, len(l.Items))
		for i, e := range l.Items {
			parts[i] = repr(e)
		}
		return fmt.Sprintf("Index([%s], dtype='%s')", strings.Join(parts, ", "), l.DType)
	}
	parts := make([]string, len(l.Items))
	for i, e := range l.Items {
		parts[i] = repr(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// cellStrings formats a column of values. Float columns share one precision,
// at most six decimals, like pandas.
func cellStrings(values []Value, dtype string, quote bool) []string {
	out := make([]string, len(values))
	if dtype == "float64" {
		decimals := 1
		for _, v := range values {
			f, _ := number(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			s := strings.TrimRight(strconv.FormatFloat(f, 'f', 6, 64), "0")
			if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > decimals {
				decimals = len(s) - i - 1
			}
		}
		for i, v := range values {
			f, _ := number(v)
			switch {
			case math.IsNaN(f):
				out[i] = "NaN"
			case math.IsInf(f, 1):
				out[i] = "inf"
			case math.IsInf(f, -1):
				out[i] = "-inf"
			default:
				out[i] = strconv.FormatFloat(f, 'f', decimals, 64)
			}
		}
		return out
	}
	for i, v := range values {
		switch x := v.(type) {
		case Str:
			if quote {
				out[i] = repr(x)
			} else {
				out[i] = truncateCell(string(x))
			}
		case Float:
			if math.IsNaN(float64(x)) {
				out[i] = "NaN"
			} else {
				out[i] = pyFloat(float64(x))
			}
		default:
			out[i] = repr(v)
		}
	}
	return out
}

func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= maxColWidth {
		return s
	}
	r := []rune(s)
	return string(r[:maxColWidth-3]) + "..."
}

func labelStrings(index []Value) [][]string {
	levels := 1
	if len(index) > 0 {
		if t, ok := index[0].(Tuple); ok {
			levels = len(t)
		}
	}
	out := make([][]string, levels)
	for l := 0; l < levels; l++ {
		out[l] = make([]string, len(index))
	}
	for i, v := range index {
		if t, ok := v.(Tuple); ok && len(t) == levels {
			for l, e := range t {
				out[l][i] = plainCell(e)
			}
			continue
		}
		out[0][i] = plainCell(v)
	}
	return out
}

func plainCell(v Value) string {
	if s, ok := v.(Str); ok {
		return truncateCell(string(s))
	}
	if f, ok := v.(Float); ok && math.IsNaN(float64(f)) {
		return "NaN"
	}
	return repr(v)
}

// rowWindow returns the row positions to show and whether rows were elided.
func rowWindow(n int) ([]int, bool) {
	if n <= maxRows {
		pos := make([]int, n)
		for i := range pos {
			pos[i] = i
		}
		return pos, false
	}
	pos := make([]int, 0, 2*previewRows)
	for i := 0; i < previewRows; i++ {
		pos = append(pos, i)
	}
	for i := n - previewRows; i < n; i++ {
		pos = append(pos, i)
	}
	return pos, true
}

func width(s string) int { return utf8.RuneCountInString(s) }

func padRight(s string, w int) string {
	if d := w - width(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

func padLeft(s string, w int) string {
	if d := w - width(s); d > 0 {
		return strings.Repeat(" ", d) + s
	}
	return s
}

func formatSeries(s *Series) string {
	positions, elided := rowWindow(s.Len())
	shown := s.take(positions)

	labels := labelStrings(shown.Index)
	cells := cellStrings(shown.Values, s.DType, false)

	labelWidths := make([]int, len(labels))
	for l, level := range labels {
		if l < len(s.IndexNames) {
			labelWidths[l] = width(s.IndexNames[l])
		}
		for _, c := range level {
			if w := width(c); w > labelWidths[l] {
				labelWidths[l] = w
			}
		}
	}
	valueWidth := 0
	for _, c := range cells {
		if w := width(c); w > valueWidth {
			valueWidth = w
		}
	}

	var b strings.Builder
	if len(s.IndexNames) > 0 && s.Len() > 0 {
		names := make([]string, len(labels))
		for l := range labels {
			if l < len(s.IndexNames) {
				names[l] = padRight(s.IndexNames[l], labelWidths[l])
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(names, " "), " "))
		b.WriteString("\n")
	}
	for i := range cells {
		if elided && i == previewRows {
			b.WriteString("...\n")
		}
		parts := make([]string, len(labels))
		for l := range labels {
			parts[l] = padRight(labels[l][i], labelWidths[l])
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("    ")
		b.WriteString(padLeft(cells[i], valueWidth))
		b.WriteString("\n")
	}
	if s.Len() == 0 {
		b.WriteString(fmt.Sprintf("Series([], dtype: %s)", s.DType))
		return b.String()
	}

	var footer []string
	if s.HasName {
		footer = append(footer, "Name: "+s.Name)
	}
	if elided {
		footer = append(footer, fmt.Sprintf("Length: %d", s.Len()))
	}
	footer = append(footer, "dtype: "+s.DType)
	b.WriteString(strings.Join(footer, ", "))
	return b.String()
}

func formatFrame(f *Frame) string {
	if len(f.Cols) == 0 || f.Len() == 0 {
		return fmt.Sprintf("Empty DataFrame\nColumns: %s\nIndex: %s",
			formatList(&List{Items: strValues(f.Names), Kind: pyList}),
			formatList(&List{Items: f.Index, Kind: pyList}))
	}
	positions, elided := rowWindow(f.Len())
	shown := f.take(positions)

	labels := labelStrings(shown.Index)
	labelWidths := make([]int, len(labels))
	for l, level := range labels {
		if l < len(f.IndexNames) {
			labelWidths[l] = width(f.IndexNames[l])
		}
		for _, c := range level {
			if w := width(c); w > labelWidths[l] {
				labelWidths[l] = w
			}
		}
	}

	columns := make([][]string, len(shown.Cols))
	widths := make([]int, len(shown.Cols))
	for j, c := range shown.Cols {
		columns[j] = cellStrings(c.Values, f.Cols[j].DType, false)
		widths[j] = width(f.Names[j])
		for _, cell := range columns[j] {
			if w := width(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}

	labelBlock := 0
	for _, w := range labelWidths {
		labelBlock += w
	}
	labelBlock += len(labelWidths) - 1

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelBlock))
	for j, name := range f.Names {
		b.WriteString("  ")
		b.WriteString(padLeft(name, widths[j]))
	}
	b.WriteString("\n")
	if len(f.IndexNames) > 0 {
		names := make([]string, len(labels))
		for l := range labels {
			name := ""
			if l < len(f.IndexNames) {
				name = f.IndexNames[l]
			}
			names[l] = padRight(name, labelWidths[l])
		}
		b.WriteString(strings.TrimRight(strings.Join(names, " "), " "))
		b.WriteString("\n")
	}
	for i := range shown.Index {
		if elided && i == previewRows {
			b.WriteString("..")
			for j := range f.Names {
				b.WriteString("  ")
				b.WriteString(padLeft("...", widths[j]))
			}
			b.WriteString("\n")
		}
		parts := make([]string, len(labels))
		for l := range labels {
			parts[l] = padRight(labels[l][i], labelWidths[l])
		}
		b.WriteString(strings.Join(parts, " "))
		for j := range f.Names {
			b.WriteString("  ")
			b.WriteString(padLeft(columns[j][i], widths[j]))
		}
		b.WriteString("\n")
	}
	if elided {
		b.WriteString(fmt.Sprintf("\n[%d rows x %d columns]", f.Len(), len(f.Names)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func strValues(names []string) []Value {
	out := make([]Value, len(names))
	for i, n := range names {
		out[i] = Str(n)
	}
	return out
}
