package orchestrator

import (
	"fmt"
	"strings"

	"hybridqa/internal/domain"
)

// maxRenderedRows caps how many rows the text rendering of a structured
// result shows; the full set stays available in Structured.Rows.
const maxRenderedRows = 20

// Combine merges adapter outputs into the final answer object. For a
// BOTH route both sub-answers are presented, clearly labeled, with no
// attempt to reconcile numbers between them; a failed side is absent and
// noted in the final answer instead of being dropped silently.
func Combine(cls domain.Classification, sr *domain.StructuredResult, dr *domain.DocumentResult, structuredErr, documentErr error) *domain.CombinedResponse {
	resp := &domain.CombinedResponse{
		Classification: cls,
		Structured:     sr,
		Document:       dr,
	}

	switch cls.Route {
	case domain.RouteStructured:
		resp.FinalAnswer = renderStructured(sr)
	case domain.RouteDocument:
		resp.FinalAnswer = dr.Answer
	default:
		var parts []string
		if structuredErr != nil {
			resp.Structured = nil
			parts = append(parts, "## Analytics Results\n\nAnalytics query failed: "+structuredErr.Error())
		} else {
			parts = append(parts, "## Analytics Results\n\n"+renderStructured(sr))
		}
		if documentErr != nil {
			resp.Document = nil
			parts = append(parts, "## Document Answer\n\nDocument query failed: "+documentErr.Error())
		} else {
			parts = append(parts, "## Document Answer\n\n"+dr.Answer)
		}
		resp.FinalAnswer = strings.Join(parts, "\n\n---\n\n")
	}
	return resp
}

// renderStructured formats a result set as an aligned text table.
func renderStructured(sr *domain.StructuredResult) string {
	if sr == nil || len(sr.Rows) == 0 {
		return "Query completed but returned no results."
	}
	cols := sr.Columns
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	shown := sr.Rows
	if len(shown) > maxRenderedRows {
		shown = shown[:maxRenderedRows]
	}
	cells := make([][]string, len(shown))
	for r, row := range shown {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			v := formatValue(row[c])
			cells[r][i] = v
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%-*s", widths[i], c)
	}
	b.WriteByte('\n')
	for i := range cols {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("-", widths[i]))
	}
	for _, row := range cells {
		b.WriteByte('\n')
		for i, v := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], v)
		}
	}
	if n := len(sr.Rows) - len(shown); n > 0 {
		fmt.Fprintf(&b, "\n... and %d more row(s)", n)
	}
	return b.String()
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case []byte:
		return string(x)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", x), "0"), ".")
	default:
		return fmt.Sprintf("%v", x)
	}
}
