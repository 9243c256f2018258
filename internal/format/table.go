package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
)

// MaxCellWidth bounds every table cell; longer values are truncated with an ellipsis.
const MaxCellWidth = 48

// Table is a pre-shaped table.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabular values choose their own columns. Anything else is shaped from its JSON form.
type Tabular interface {
	Table() Table
}

// WriteTable renders v as a table. The envelope's "data" is the table body; "meta" is
// printed below it as key: value lines.
func WriteTable(w io.Writer, v any) error {
	data, meta, err := unwrap(v)
	if err != nil {
		return err
	}
	t, err := shape(data)
	if err != nil {
		return err
	}
	if len(t.Headers) > 0 {
		if _, err := fmt.Fprintln(w, Render(t)); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(meta) {
		if _, err := fmt.Fprintf(w, "%s: %s\n", k, cell(meta[k])); err != nil {
			return err
		}
	}
	return nil
}

// Render draws t with a normal border and truncated cells.
func Render(t Table) string {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out := make([]string, len(r))
		for i, c := range r {
			out[i] = Truncate(c, MaxCellWidth)
		}
		rows = append(rows, out)
	}
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	body := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return body
		}).
		String()
}

// Truncate shortens s to width terminal cells, keeping escape sequences intact.
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func unwrap(v any) (data any, meta map[string]any, err error) {
	if env, ok := v.(map[string]any); ok {
		if d, ok := env["data"]; ok {
			m, _ := env["meta"].(map[string]any)
			return d, m, nil
		}
	}
	return v, nil, nil
}

func shape(data any) (Table, error) {
	if t, ok := data.(Tabular); ok {
		return t.Table(), nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return Table{}, err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return Table{}, err
	}
	switch t := x.(type) {
	case []any:
		return listTable(t), nil
	case map[string]any:
		out := Table{Headers: []string{"key", "value"}}
		for _, k := range sortedKeys(t) {
			out.Rows = append(out.Rows, []string{k, cell(t[k])})
		}
		return out, nil
	case nil:
		return Table{}, nil
	default:
		return Table{Headers: []string{"value"}, Rows: [][]string{{cell(t)}}}, nil
	}
}

func listTable(items []any) Table {
	cols := map[string]struct{}{}
	scalar := false
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			for k := range m {
				cols[k] = struct{}{}
			}
		} else {
			scalar = true
		}
	}
	if scalar || len(cols) == 0 {
		out := Table{Headers: []string{"value"}}
		for _, it := range items {
			out.Rows = append(out.Rows, []string{cell(it)})
		}
		return out
	}
	headers := make([]string, 0, len(cols))
	for k := range cols {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	out := Table{Headers: headers}
	for _, it := range items {
		m := it.(map[string]any)
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = cell(m[h])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if float64(int64(t)) == t {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
