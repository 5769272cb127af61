package report_test

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/domain"
	"github.com/querylens/querylens/internal/report"
)

func translation(startDate, endDate string, dims []string, rowLimit int) domain.Translation {
	q := domain.SearchQuery{StartDate: startDate, EndDate: endDate, Dimensions: dims, RowLimit: rowLimit}
	q.Normalize(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), 28)
	w, _ := q.Window()
	return domain.Translation{Query: q, Window: w, Restatement: "test restatement"}
}

func makeRows(n int) []domain.Row {
	rows := make([]domain.Row, n)
	for i := range rows {
		rows[i] = domain.Row{
			Keys:        []string{fmt.Sprintf("query-%02d", i)},
			Clicks:      float64(1000 - i*10),
			Impressions: float64(5000 - i*10),
			CTR:         0.05,
			Position:    4.5,
		}
	}
	return rows
}

func TestFormatSectionsAndOrder(t *testing.T) {
	assert := assert.New(t)

	tr := translation("2026-08-02", "2026-08-31", []string{"query"}, 10)
	rep := domain.Report{Query: tr.Query, Rows: makeRows(10)}

	out := report.New(25, 16384).Format("Show me the top 10 queries by clicks over the past 30 days.", tr, rep)

	assert.True(utf8.ValidString(out))
	assert.Contains(out, "Timeframe: last 30 days")
	assert.Contains(out, `Request: "Show me the top 10 queries by clicks over the past 30 days."`)
	assert.Contains(out, "dimensions: query")
	assert.Contains(out, "rowLimit: 10")
	assert.Contains(out, "Results (10 of 10 rows):")
	assert.Contains(out, "clicks")
	assert.Contains(out, "impressions")

	// Explanation comes before the timeframe, which comes before the table.
	about := strings.Index(out, "About this data:")
	usage := strings.Index(out, "How to use it:")
	timeframe := strings.Index(out, "Timeframe:")
	results := strings.Index(out, "Results (")
	assert.True(about >= 0 && about < usage && usage < timeframe && timeframe < results)

	// All 10 rows present, descending by clicks as delivered by the provider.
	for i := 0; i < 10; i++ {
		assert.Contains(out, fmt.Sprintf("query-%02d", i))
	}
	assert.Less(strings.Index(out, "query-00"), strings.Index(out, "query-09"))
}

func TestFormatTruncatesRowsAndAnnouncesIt(t *testing.T) {
	tr := translation("2026-08-04", "2026-08-31", []string{"query"}, 100)
	rep := domain.Report{Query: tr.Query, Rows: makeRows(40)}

	out := report.New(25, 16384).Format("all queries", tr, rep)

	assert.Contains(t, out, "Results (25 of 40 rows):")
	assert.Contains(t, out, "(15 more rows omitted)")
	assert.Contains(t, out, "query-24")
	assert.NotContains(t, out, "query-25")
}

func TestFormatEmptyReport(t *testing.T) {
	tr := translation("2026-08-04", "2026-08-31", []string{"query"}, 25)
	rep := domain.Report{Query: tr.Query}

	out := report.New(25, 16384).Format("anything new?", tr, rep)

	assert.Contains(t, out, "No data for this range.")
	assert.NotContains(t, out, "Results (")
}

func TestFormatAlignsColumns(t *testing.T) {
	tr := translation("2026-08-04", "2026-08-31", []string{"query"}, 25)
	rep := domain.Report{Query: tr.Query, Rows: []domain.Row{
		{Keys: []string{"short"}, Clicks: 1, Impressions: 10, CTR: 0.1, Position: 1},
		{Keys: []string{"a much longer query string"}, Clicks: 2, Impressions: 20, CTR: 0.1, Position: 2},
	}}

	out := report.New(25, 16384).Format("q", tr, rep)

	lines := strings.Split(out, "\n")
	var header, rule string
	for i, line := range lines {
		if strings.HasPrefix(line, "query") && strings.Contains(line, "clicks") {
			header = line
			rule = lines[i+1]
			break
		}
	}
	require.NotEmpty(t, header, "table header not found")
	// The rule line mirrors the header's column layout: its first column gap
	// sits where the clicks column starts.
	assert.Equal(t, strings.Index(header, "clicks"), strings.Index(rule, "  ")+2)
}

func TestFormatTruncatesOverlongCells(t *testing.T) {
	long := strings.Repeat("x", 200)
	tr := translation("2026-08-04", "2026-08-31", []string{"page"}, 25)
	rep := domain.Report{Query: tr.Query, Rows: []domain.Row{{Keys: []string{long}, Clicks: 1}}}

	out := report.New(25, 16384).Format("pages", tr, rep)

	assert.NotContains(t, out, long)
	assert.Contains(t, out, strings.Repeat("x", 63)+"…")
}

func TestFormatEnforcesByteBound(t *testing.T) {
	tr := translation("2026-08-04", "2026-08-31", []string{"query"}, 25)
	rep := domain.Report{Query: tr.Query, Rows: makeRows(25)}

	const maxBytes = 600
	out := report.New(25, maxBytes).Format("everything", tr, rep)

	assert.LessOrEqual(t, len(out), maxBytes)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "[output truncated]"), "byte-bound truncation must be announced")
}
