// Package table builds the artifact table view from run state values
package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
)

// Key is the state values field holding the table rows
const Key = "finalTable"

type cellKind int

// Kinds in sort rank order. Missing cells sort with nulls.
const (
	kindNull cellKind = iota
	kindBool
	kindNumber
	kindString
	kindOther
)

// Cell is a single table value
type Cell struct {
	kind cellKind
	num  float64
	str  string
	b    bool
	raw  []byte
}

// String returns the display form of the cell
func (c Cell) String() string {
	switch c.kind {
	case kindNull:
		return ""
	case kindBool:
		if c.b {
			return "true"
		}
		return "false"
	case kindNumber:
		return string(c.raw)
	case kindString:
		return c.str
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, c.raw); err != nil {
			return string(c.raw)
		}
		return buf.String()
	}
}

// Row maps column name to cell
type Row map[string]Cell

// Direction of a column sort
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Sort is the active sort of the view. A nil *Sort means rows are in their original order.
type Sort struct {
	Column    string
	Direction Direction
}

// View holds the rows of the artifact table and its sort state
type View struct {
	columns []string
	rows    []Row
	sort    *Sort
}

// FromValues extracts the table from raw state values. Columns are the keys of the first row in
// document order. Missing table data gives an empty view.
func FromValues(values json.RawMessage) (*View, error) {
	v := &View{}
	if len(bytes.TrimSpace(values)) == 0 {
		return v, nil
	}

	data, dataType, _, err := jsonparser.Get(values, Key)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) || dataType == jsonparser.Null {
		return v, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", Key, err)
	}
	if dataType != jsonparser.Array {
		return nil, fmt.Errorf("%s is a %s, expected an array", Key, dataType)
	}

	var rowErr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if rowErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			rowErr = fmt.Errorf("row %d of %s is a %s, expected an object", len(v.rows), Key, dataType)
			return
		}
		row, keys, err := parseRow(value)
		if err != nil {
			rowErr = fmt.Errorf("failed to parse row %d: %w", len(v.rows), err)
			return
		}
		if len(v.rows) == 0 {
			v.columns = keys
		}
		v.rows = append(v.rows, row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", Key, err)
	}
	if rowErr != nil {
		return nil, rowErr
	}
	return v, nil
}

func parseRow(data []byte) (Row, []string, error) {
	row := Row{}
	var keys []string
	err := jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		cell, err := parseCell(value, dataType)
		if err != nil {
			return fmt.Errorf("column '%s': %w", name, err)
		}
		if _, dup := row[name]; !dup {
			keys = append(keys, name)
		}
		row[name] = cell
		return nil
	})
	return row, keys, err
}

func parseCell(value []byte, dataType jsonparser.ValueType) (Cell, error) {
	switch dataType {
	case jsonparser.Null:
		return Cell{kind: kindNull}, nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		return Cell{kind: kindBool, b: b}, err
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(value)
		return Cell{kind: kindNumber, num: f, raw: append([]byte(nil), value...)}, err
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		return Cell{kind: kindString, str: s}, err
	default:
		return Cell{kind: kindOther, raw: append([]byte(nil), value...)}, nil
	}
}

// Columns returns the column names in display order
func (v *View) Columns() []string {
	return v.columns
}

// Len returns the number of rows
func (v *View) Len() int {
	return len(v.rows)
}

// Empty reports whether there is any table data to show
func (v *View) Empty() bool {
	return len(v.rows) == 0
}

// CurrentSort returns the active sort, or nil
func (v *View) CurrentSort() *Sort {
	return v.sort
}

// SetSort restores a previously active sort, e.g. after the rows were replaced by a new state update
func (v *View) SetSort(s *Sort) {
	v.sort = s
}

// RequestSort advances the sort for column: unsorted, ascending, descending, then unsorted again.
// Choosing a different column starts over at ascending.
func (v *View) RequestSort(column string) {
	switch {
	case v.sort == nil || v.sort.Column != column:
		v.sort = &Sort{Column: column, Direction: Ascending}
	case v.sort.Direction == Ascending:
		v.sort = &Sort{Column: column, Direction: Descending}
	default:
		v.sort = nil
	}
}

// SortIndicator returns the header marker for column
func (v *View) SortIndicator(column string) string {
	if v.sort == nil || v.sort.Column != column {
		return "↕"
	}
	if v.sort.Direction == Ascending {
		return "↑"
	}
	return "↓"
}

// Sorted returns the rows in display order. The view's own rows are never reordered.
func (v *View) Sorted() []Row {
	rows := make([]Row, len(v.rows))
	copy(rows, v.rows)
	if v.sort == nil {
		return rows
	}
	column, desc := v.sort.Column, v.sort.Direction == Descending
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(rows[i][column], rows[j][column])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return rows
}

// Cells returns the display strings of row in column order
func (v *View) Cells(row Row) []string {
	out := make([]string, len(v.columns))
	for i, c := range v.columns {
		out[i] = row[c].String()
	}
	return out
}

func compare(a, b Cell) int {
	if a.kind != b.kind {
		return int(a.kind) - int(b.kind)
	}
	switch a.kind {
	case kindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case kindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	case kindString:
		return strings.Compare(a.str, b.str)
	case kindOther:
		return bytes.Compare(a.raw, b.raw)
	default:
		return 0
	}
}
