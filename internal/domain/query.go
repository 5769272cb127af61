package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for Search Console dates.
const DateLayout = "2006-01-02"

// Accepted parameter sets for the searchanalytics.query endpoint. Anything
// outside these sets is a translation failure, never forwarded upstream.
var (
	ValidDimensions = map[string]bool{
		"query":            true,
		"page":             true,
		"date":             true,
		"country":          true,
		"device":           true,
		"searchAppearance": true,
	}
	ValidOperators = map[string]bool{
		"equals":         true,
		"contains":       true,
		"notContains":    true,
		"includingRegex": true,
		"excludingRegex": true,
	}
	ValidSearchTypes = map[string]bool{
		"web":        true,
		"discover":   true,
		"googleNews": true,
		"image":      true,
	}
	ValidAggregationTypes = map[string]bool{
		"auto":       true,
		"byPage":     true,
		"byProperty": true,
	}
)

// MaxRowLimit is the upper bound accepted by the provider.
const MaxRowLimit = 25000

// DimensionFilter narrows results on a single dimension.
type DimensionFilter struct {
	Dimension  string `json:"dimension"`
	Operator   string `json:"operator,omitempty"` // empty means equals
	Expression string `json:"expression"`
}

// DimensionFilterGroup combines filters. The provider only supports "and".
type DimensionFilterGroup struct {
	GroupType string            `json:"groupType,omitempty"`
	Filters   []DimensionFilter `json:"filters"`
}

// SearchQuery is the structured request body for searchanalytics.query.
// It is produced by translation from free text and MUST be normalized and
// validated before being sent upstream.
type SearchQuery struct {
	StartDate             string                 `json:"startDate"`
	EndDate               string                 `json:"endDate"`
	Dimensions            []string               `json:"dimensions,omitempty"`
	DimensionFilterGroups []DimensionFilterGroup `json:"dimensionFilterGroups,omitempty"`
	SearchType            string                 `json:"type,omitempty"`
	RowLimit              int                    `json:"rowLimit,omitempty"`
	StartRow              int                    `json:"startRow,omitempty"`
	AggregationType       string                 `json:"aggregationType,omitempty"`
}

// Normalize fills documented defaults into a translated query so that the
// same free-text input always resolves to the same structured query for a
// given day: a missing date range becomes the last defaultWindowDays days
// ending today, missing dimensions become ["query"], missing row limit
// becomes 25. When trending by date, the row limit is raised to cover every
// day of the window so the trend is not silently cut short.
func (q *SearchQuery) Normalize(today time.Time, defaultWindowDays int) {
	if q.StartDate == "" && q.EndDate == "" {
		end := today
		start := end.AddDate(0, 0, -(defaultWindowDays - 1))
		q.StartDate = start.Format(DateLayout)
		q.EndDate = end.Format(DateLayout)
	}
	if len(q.Dimensions) == 0 {
		q.Dimensions = []string{"query"}
	}
	if q.RowLimit == 0 {
		q.RowLimit = 25
	}
	if q.SearchType == "" {
		q.SearchType = "web"
	}
	if q.AggregationType == "" {
		q.AggregationType = "auto"
	}
	if w, err := q.Window(); err == nil {
		for _, d := range q.Dimensions {
			if d == "date" && q.RowLimit < w.Days() {
				q.RowLimit = w.Days()
			}
		}
	}
}

// Validate checks the query against the provider's accepted parameter set.
// The returned error names the offending field so it can be surfaced to the
// caller as-is.
func (q *SearchQuery) Validate() error {
	start, err := time.Parse(DateLayout, q.StartDate)
	if err != nil {
		return fmt.Errorf("startDate %q is not a YYYY-MM-DD date", q.StartDate)
	}
	end, err := time.Parse(DateLayout, q.EndDate)
	if err != nil {
		return fmt.Errorf("endDate %q is not a YYYY-MM-DD date", q.EndDate)
	}
	if end.Before(start) {
		return fmt.Errorf("endDate %s precedes startDate %s", q.EndDate, q.StartDate)
	}
	if len(q.Dimensions) > 3 {
		return fmt.Errorf("too many dimensions (%d), at most 3 are supported", len(q.Dimensions))
	}
	for _, d := range q.Dimensions {
		if !ValidDimensions[d] {
			return fmt.Errorf("unknown dimension %q", d)
		}
	}
	for _, g := range q.DimensionFilterGroups {
		if g.GroupType != "" && g.GroupType != "and" {
			return fmt.Errorf("unknown filter group type %q", g.GroupType)
		}
		for _, f := range g.Filters {
			if !ValidDimensions[f.Dimension] {
				return fmt.Errorf("unknown filter dimension %q", f.Dimension)
			}
			if f.Operator != "" && !ValidOperators[f.Operator] {
				return fmt.Errorf("unknown filter operator %q", f.Operator)
			}
			if f.Expression == "" {
				return fmt.Errorf("filter on %q has an empty expression", f.Dimension)
			}
		}
	}
	if !ValidSearchTypes[q.SearchType] {
		return fmt.Errorf("unknown search type %q", q.SearchType)
	}
	if q.RowLimit < 1 || q.RowLimit > MaxRowLimit {
		return fmt.Errorf("rowLimit %d out of range [1, %d]", q.RowLimit, MaxRowLimit)
	}
	if q.StartRow < 0 {
		return fmt.Errorf("startRow %d is negative", q.StartRow)
	}
	if !ValidAggregationTypes[q.AggregationType] {
		return fmt.Errorf("unknown aggregation type %q", q.AggregationType)
	}
	return nil
}

// Window returns the resolved time window of the query.
func (q *SearchQuery) Window() (TimeWindow, error) {
	start, err := time.Parse(DateLayout, q.StartDate)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("invalid startDate: %w", err)
	}
	end, err := time.Parse(DateLayout, q.EndDate)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("invalid endDate: %w", err)
	}
	return TimeWindow{Start: start, End: end}, nil
}

// TimeWindow is a resolved, inclusive date range.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Days returns the inclusive number of days covered by the window.
func (w TimeWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Label renders the window for humans, e.g. "last 30 days (2026-08-02 to 2026-08-31)".
func (w TimeWindow) Label() string {
	return fmt.Sprintf("last %d days (%s to %s)",
		w.Days(), w.Start.Format(DateLayout), w.End.Format(DateLayout))
}

// Translation is the validated output of the natural-language translation
// step: the structured query, its resolved window, and a restatement of the
// request for the formatted report.
type Translation struct {
	Query       SearchQuery
	Window      TimeWindow
	Restatement string
}

// Row is one result row from the analytics provider. Keys correspond
// positionally to the requested dimensions.
type Row struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

// Report is the provider's answer to a structured query, with the query
// echoed back for the formatter. Zero rows is a valid, empty report.
type Report struct {
	Query SearchQuery
	Rows  []Row
}
