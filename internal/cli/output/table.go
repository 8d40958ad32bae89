package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats data as an aligned text table.
type TableFormatter struct {
	NoHeaders bool
}

// Format renders a *Table directly. Other values are converted through
// their JSON form: objects become FIELD/VALUE rows, arrays of objects
// become one row per element.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	if t, ok := data.(*Table); ok {
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	generic, err := toGeneric(data)
	if err != nil {
		return err
	}

	var table *Table
	switch v := generic.(type) {
	case map[string]any:
		table = objectTable(v)
	case []any:
		table = arrayTable(v)
	default:
		_, err := fmt.Fprintln(w, formatValue(v))
		return err
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func objectTable(obj map[string]any) *Table {
	flat := make(map[string]any)
	flattenInto(flat, "", obj)

	keys := sortedKeys(flat)
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, k := range keys {
		t.AddRow(k, formatValue(flat[k]))
	}
	return t
}

func arrayTable(items []any) *Table {
	if len(items) == 0 {
		return &Table{}
	}

	columns := map[string]struct{}{}
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			for k := range obj {
				columns[k] = struct{}{}
			}
		}
	}
	if len(columns) == 0 {
		t := &Table{Headers: []string{"VALUE"}}
		for _, item := range items {
			t.AddRow(formatValue(item))
		}
		return t
	}

	keys := make([]string, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &Table{}
	for _, k := range keys {
		t.Headers = append(t.Headers, strings.ToUpper(k))
	}
	for _, item := range items {
		obj, _ := item.(map[string]any)
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = formatValue(obj[k])
		}
		t.AddRow(row...)
	}
	return t
}

func flattenInto(dst map[string]any, prefix string, obj map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			flattenInto(dst, key, sub)
			continue
		}
		dst[key] = v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatValue formats a decoded JSON value for a table cell.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case bool:
		return fmt.Sprintf("%t", x)
	case []any:
		if len(x) == 0 {
			return "-"
		}
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		if len(x) == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", len(x))
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
