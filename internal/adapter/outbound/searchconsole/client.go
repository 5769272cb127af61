// Package searchconsole implements the analytics provider port on top of
// the Google Search Console Search Analytics API.
package searchconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/querylens/querylens/internal/domain"
)

// Client executes validated structured queries against the
// searchanalytics.query endpoint. It implements usecase.ReportExecutor.
type Client struct {
	client      *http.Client
	baseURL     string
	accessToken string
	siteURL     string
	logger      *slog.Logger
}

// New creates a Search Console client. The access token is expected to be
// valid already; credential loading and refresh belong to the bootstrap
// layer, not here.
func New(client *http.Client, baseURL, accessToken, siteURL string, logger *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		siteURL:     siteURL,
		logger:      logger.With("component", "searchconsole_client"),
	}
}

type queryResponse struct {
	Rows []domain.Row `json:"rows"`
}

// Execute posts the structured query and returns the resulting rows in
// provider order, with the query echoed back for the formatter. Zero rows is
// a valid empty report. Failures are classified: credential rejection is
// fatal and not retried, rate limiting is flagged retryable for the caller,
// and deadline overruns surface as upstream timeouts. Nothing is retried
// here; a transparent retry could silently double API quota spend.
func (c *Client) Execute(ctx context.Context, query domain.SearchQuery) (domain.Report, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return domain.Report{}, fmt.Errorf("failed to marshal query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/webmasters/v3/sites/%s/searchAnalytics/query", c.baseURL, url.PathEscape(c.siteURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Report{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	log := c.logger.With(slog.String("start_date", query.StartDate), slog.String("end_date", query.EndDate))
	log.Debug("Executing search analytics query", slog.Int("row_limit", query.RowLimit))

	resp, err := c.client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ue) && ue.Timeout()) {
			return domain.Report{}, domain.Errorf(domain.KindUpstreamTimeout, "analytics provider did not respond in time: %v", err)
		}
		return domain.Report{}, domain.Errorf(domain.KindUpstream, "analytics provider request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Report{}, domain.Errorf(domain.KindUpstream, "failed to read analytics response: %v", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		log.Warn("Analytics credential rejected", slog.Int("status", resp.StatusCode))
		return domain.Report{}, domain.Errorf(domain.KindUpstreamAuth, "analytics provider rejected the configured credential (HTTP %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Warn("Analytics quota exceeded")
		return domain.Report{}, domain.Errorf(domain.KindUpstreamQuota, "analytics provider quota exceeded (HTTP %d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		log.Warn("Analytics provider returned error status", slog.Int("status", resp.StatusCode))
		return domain.Report{}, domain.Errorf(domain.KindUpstream, "analytics provider returned HTTP %d", resp.StatusCode)
	}

	var qr queryResponse
	if err := json.Unmarshal(respBody, &qr); err != nil {
		return domain.Report{}, domain.Errorf(domain.KindUpstream, "unparsable analytics response: %v", err)
	}

	log.Debug("Query executed", slog.Int("rows", len(qr.Rows)))
	return domain.Report{Query: query, Rows: qr.Rows}, nil
}
