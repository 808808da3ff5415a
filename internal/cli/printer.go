package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

var recordLabel = color.New(color.FgHiMagenta, color.Bold)
var keyLabel = color.New(color.FgCyan)
var plateLabel = color.New(color.FgHiYellow, color.Bold)

// printRecords writes one block per record: a header with the record time,
// then its members sorted by name. Nested values are printed as JSON.
func printRecords(w io.Writer, records []map[string]any) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found")
		return
	}
	for i, rec := range records {
		recordLabel.Fprintf(w, "Record %d", i+1)
		if t, ok := int64From(rec["Time"]); ok {
			fmt.Fprintf(w, "  %s", time.Unix(t, 0).Local().Format("2006-01-02 15:04:05 MST"))
		}
		fmt.Fprintln(w)

		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			keyLabel.Fprintf(w, "  %-20s", k)
			v := formatValue(rec[k])
			if strings.Contains(strings.ToLower(k), "plate") {
				plateLabel.Fprintln(w, v)
			} else {
				fmt.Fprintln(w, indentMultiline(v, strings.Repeat(" ", 22)))
			}
		}
	}
	fmt.Fprintf(w, "\n%d record(s)\n", len(records))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]any, []any:
		b, err := json.MarshalIndent(x, "", "  ")
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

// int64From converts a decoded JSON number to int64
func int64From(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	}
	return 0, false
}

// indentMultiline adds indentation to all lines except the first in a multiline string
func indentMultiline(text, indent string) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return text
	}
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}
