// internal/dataset/loader.go
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

var ErrLoadFailed = errors.New("DATASET_LOAD_FAILED")

// UnknownCabin replaces missing Cabin values.
const UnknownCabin = "Unknown"

var (
	textColumns    = []string{"Sex", "Embarked", "Cabin", "Ticket", "Name"}
	numericColumns = []string{"Age", "Fare", "SibSp", "Parch", "Pclass", "Survived"}

	// same markers pandas.read_csv treats as missing by default
	missingMarkers = map[string]bool{
		"": true, "NA": true, "N/A": true, "NaN": true, "nan": true,
		"null": true, "NULL": true, "None": true, "#N/A": true, "<NA>": true,
	}
)

// Load reads the CSV at path and applies the Titanic cleaning rules.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
	}
	return t, nil
}

// Read parses CSV from r. The first record is the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	raw := make([][]string, len(header))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		for i := range header {
			v := ""
			if i < len(record) {
				v = record[i]
			}
			raw[i] = append(raw[i], v)
		}
	}

	columns := make([]*Column, len(header))
	for i, name := range header {
		switch {
		case contains(textColumns, name):
			columns[i] = textColumn(name, raw[i])
		case contains(numericColumns, name):
			columns[i] = numericColumn(name, raw[i])
		case allNumeric(raw[i]):
			columns[i] = numericColumn(name, raw[i])
		default:
			columns[i] = textColumn(name, raw[i])
		}
	}

	t, err := newTable(columns)
	if err != nil {
		return nil, err
	}
	impute(t)
	return t, nil
}

func textColumn(name string, values []string) *Column {
	c := &Column{
		Name:    name,
		Kind:    KindText,
		Texts:   make([]string, len(values)),
		Missing: make([]bool, len(values)),
	}
	for i, v := range values {
		if missingMarkers[strings.TrimSpace(v)] {
			c.Missing[i] = true
			continue
		}
		c.Texts[i] = v
	}
	return c
}

// numericColumn coerces every value; anything unparseable becomes NaN.
func numericColumn(name string, values []string) *Column {
	c := &Column{
		Name:     name,
		Kind:     KindNumeric,
		Numbers:  make([]float64, len(values)),
		integral: true,
	}
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) {
			c.Numbers[i] = math.NaN()
			c.integral = false
			continue
		}
		c.Numbers[i] = f
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			c.integral = false
		}
	}
	return c
}

func allNumeric(values []string) bool {
	seen := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if missingMarkers[v] {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

func impute(t *Table) {
	for _, name := range []string{"Age", "Fare"} {
		if c, ok := t.Column(name); ok && c.Kind == KindNumeric {
			fillNumber(c, median(c.Numbers))
		}
	}
	if c, ok := t.Column("Embarked"); ok && c.Kind == KindText {
		if m, ok := mode(c); ok {
			fillText(c, m)
		}
	}
	if c, ok := t.Column("Cabin"); ok && c.Kind == KindText {
		fillText(c, UnknownCabin)
	}
}

func fillNumber(c *Column, v float64) {
	if math.IsNaN(v) {
		return
	}
	for i, x := range c.Numbers {
		if math.IsNaN(x) {
			c.Numbers[i] = v
		}
	}
}

func fillText(c *Column, v string) {
	for i := range c.Texts {
		if c.Missing[i] {
			c.Texts[i] = v
			c.Missing[i] = false
		}
	}
}

// median of the non-missing values, NaN when there are none
func median(values []float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	sort.Float64s(present)
	mid := len(present) / 2
	if len(present)%2 == 1 {
		return present[mid]
	}
	return (present[mid-1] + present[mid]) / 2
}

// mode returns the most frequent value; ties go to the smallest value.
func mode(c *Column) (string, bool) {
	counts := make(map[string]int)
	for i, v := range c.Texts {
		if !c.Missing[i] {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
