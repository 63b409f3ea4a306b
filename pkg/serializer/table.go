package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// writeTable flattens data into dotted FIELD paths, one row per leaf.
func writeTable(out io.Writer, data any) error {
	// Round-trip through JSON so field names follow the json tags and
	// custom marshalers apply.
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize to table: %w", err)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return fmt.Errorf("failed to serialize to table: %w", err)
	}

	rows := make(map[string]string)
	flatten("", generic, rows)

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tVALUE")
	if len(keys) == 0 {
		fmt.Fprintln(tw, "<empty>\t")
	}
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, rows[k])
	}
	return tw.Flush()
}

func flatten(prefix string, v any, rows map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 && prefix != "" {
			rows[prefix] = "{}"
		}
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, rows)
		}
	case []any:
		if len(t) == 0 && prefix != "" {
			rows[prefix] = "[]"
		}
		for i, child := range t {
			flatten(fmt.Sprintf("%s[%d]", prefix, i), child, rows)
		}
	case nil:
		if prefix != "" {
			rows[prefix] = "<nil>"
		}
	default:
		rows[prefix] = fmt.Sprint(t)
	}
}
