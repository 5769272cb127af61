// Package report renders analytics results into a single bounded text block
// suitable for both humans and agents.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/querylens/querylens/internal/domain"
)

const (
	// maxCellRunes bounds individual cell values so very wide tables stay
	// readable. Columns are never dropped: the column set is already bounded
	// by query validation (at most 3 dimensions plus the 4 fixed metrics).
	maxCellRunes = 64

	truncationNotice = "\n[output truncated]"
)

var metricHeaders = []string{"clicks", "impressions", "ctr", "position"}

// Formatter renders reports. MaxRows bounds the number of table rows shown;
// MaxBytes bounds the total output size. Both bounds are announced in the
// text when they bite, never applied silently.
type Formatter struct {
	MaxRows  int
	MaxBytes int
}

// New creates a Formatter.
func New(maxRows, maxBytes int) *Formatter {
	return &Formatter{MaxRows: maxRows, MaxBytes: maxBytes}
}

// Format produces the report text: what the data means, how it is used, the
// resolved timeframe, the request as explicit parameters, and the result
// rows as an aligned table. Output is always valid UTF-8 and never exceeds
// MaxBytes.
func (f *Formatter) Format(question string, tr domain.Translation, rep domain.Report) string {
	var b strings.Builder

	b.WriteString("Search Console Report\n")
	b.WriteString("=====================\n\n")
	b.WriteString("About this data: Google Search Console search analytics measures how your site performs in Google Search. ")
	b.WriteString("Clicks count visits from search results, impressions count how often the site appeared, ")
	b.WriteString("CTR is clicks divided by impressions, and position is the average ranking in results.\n\n")
	b.WriteString("How to use it: compare rows across the timeframe to spot rising or fading queries and pages, ")
	b.WriteString("find high-impression low-CTR content worth improving, and track average position over time.\n\n")

	fmt.Fprintf(&b, "Timeframe: %s\n", tr.Window.Label())
	fmt.Fprintf(&b, "Request: %q\n", question)
	fmt.Fprintf(&b, "Interpreted as: %s\n", tr.Restatement)
	b.WriteString("Parameters:\n")
	writeParameters(&b, rep.Query)
	b.WriteString("\n")

	f.writeTable(&b, rep)

	return f.enforceByteBound(b.String())
}

func writeParameters(b *strings.Builder, q domain.SearchQuery) {
	fmt.Fprintf(b, "  startDate: %s\n", q.StartDate)
	fmt.Fprintf(b, "  endDate: %s\n", q.EndDate)
	fmt.Fprintf(b, "  dimensions: %s\n", strings.Join(q.Dimensions, ", "))
	fmt.Fprintf(b, "  type: %s\n", q.SearchType)
	fmt.Fprintf(b, "  rowLimit: %d\n", q.RowLimit)
	if q.StartRow > 0 {
		fmt.Fprintf(b, "  startRow: %d\n", q.StartRow)
	}
	fmt.Fprintf(b, "  aggregationType: %s\n", q.AggregationType)
	for _, g := range q.DimensionFilterGroups {
		for _, flt := range g.Filters {
			op := flt.Operator
			if op == "" {
				op = "equals"
			}
			fmt.Fprintf(b, "  filter: %s %s %q\n", flt.Dimension, op, flt.Expression)
		}
	}
}

func (f *Formatter) writeTable(b *strings.Builder, rep domain.Report) {
	if len(rep.Rows) == 0 {
		b.WriteString("No data for this range.\n")
		return
	}

	shown := rep.Rows
	omitted := 0
	if f.MaxRows > 0 && len(shown) > f.MaxRows {
		omitted = len(shown) - f.MaxRows
		shown = shown[:f.MaxRows]
	}
	fmt.Fprintf(b, "Results (%d of %d rows):\n", len(shown), len(rep.Rows))

	headers := append(append([]string{}, rep.Query.Dimensions...), metricHeaders...)
	cells := make([][]string, 0, len(shown))
	for _, row := range shown {
		line := make([]string, 0, len(headers))
		for i := range rep.Query.Dimensions {
			key := ""
			if i < len(row.Keys) {
				key = truncateCell(row.Keys[i])
			}
			line = append(line, key)
		}
		line = append(line,
			fmt.Sprintf("%.0f", row.Clicks),
			fmt.Sprintf("%.0f", row.Impressions),
			fmt.Sprintf("%.2f%%", row.CTR*100),
			fmt.Sprintf("%.1f", row.Position),
		)
		cells = append(cells, line)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, line := range cells {
		for i, cell := range line {
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	writeRow(b, headers, widths)
	rules := make([]string, len(headers))
	for i := range headers {
		rules[i] = strings.Repeat("-", widths[i])
	}
	writeRow(b, rules, widths)
	for _, line := range cells {
		writeRow(b, line, widths)
	}

	if omitted > 0 {
		fmt.Fprintf(b, "(%d more rows omitted)\n", omitted)
	}
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(cell)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
		}
	}
	b.WriteString("\n")
}

func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= maxCellRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxCellRunes-1]) + "…"
}

// enforceByteBound trims the output to MaxBytes at a rune boundary and
// announces the cut. The result is always valid UTF-8.
func (f *Formatter) enforceByteBound(s string) string {
	if f.MaxBytes <= 0 || len(s) <= f.MaxBytes {
		return s
	}
	limit := f.MaxBytes - len(truncationNotice)
	if limit < 0 {
		limit = 0
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + truncationNotice
}
