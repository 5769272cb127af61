// Package gemini implements the natural-language-to-structured-query
// translation port on top of the Gemini generateContent API.
package gemini

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
	"time"

	"github.com/querylens/querylens/internal/domain"
)

// Client calls the Gemini completion service to translate free text into a
// Search Console structured query. It implements usecase.QueryTranslator.
type Client struct {
	client            *http.Client
	baseURL           string
	apiKey            string
	model             string
	siteURL           string
	defaultWindowDays int
	now               func() time.Time
	logger            *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the clock, fixing "today" for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Gemini translation client.
func New(client *http.Client, baseURL, apiKey, model, siteURL string, defaultWindowDays int, logger *slog.Logger, opts ...Option) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	c := &Client{
		client:            client,
		baseURL:           strings.TrimSuffix(baseURL, "/"),
		apiKey:            apiKey,
		model:             model,
		siteURL:           siteURL,
		defaultWindowDays: defaultWindowDays,
		now:               time.Now,
		logger:            logger.With("component", "gemini_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request payload for the generateContent endpoint.
type generateRequest struct {
	SystemInstruction content          `json:"system_instruction"`
	Contents          []roleContent    `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type roleContent struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Translate sends the question to the model and parses, normalizes and
// resolves its output. The model is told to emit only a JSON object; anything
// else (prose, fields outside the accepted set, unparsable dates) is a
// translation failure, never forwarded upstream.
func (c *Client) Translate(ctx context.Context, question string) (domain.Translation, error) {
	today := c.now()

	payload := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: SystemPrompt(c.siteURL, today, c.defaultWindowDays)}}},
		Contents:          []roleContent{{Role: "user", Parts: []part{{Text: question}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.1,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Translation{}, fmt.Errorf("failed to marshal generateContent payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Translation{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Requesting translation", slog.String("model", c.model))
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Translation{}, classifyTransportError("translation service", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Translation{}, domain.Errorf(domain.KindUpstream, "failed to read translation response: %v", err)
	}
	if err := classifyStatus("translation service", resp.StatusCode); err != nil {
		c.logger.Warn("Translation service returned error status", slog.Int("status", resp.StatusCode))
		return domain.Translation{}, err
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return domain.Translation{}, domain.Errorf(domain.KindUpstream, "unparsable translation service response: %v", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return domain.Translation{}, domain.Errorf(domain.KindTranslation, "translation service returned no candidates")
	}

	raw := StripFences(gr.Candidates[0].Content.Parts[0].Text)
	query, err := parseQuery(raw)
	if err != nil {
		c.logger.Warn("Model output failed to parse as a structured query", slog.Any("error", err))
		return domain.Translation{}, domain.NewError(domain.KindTranslation, err)
	}

	query.Normalize(today, c.defaultWindowDays)
	window, err := query.Window()
	if err != nil {
		return domain.Translation{}, domain.NewError(domain.KindTranslation, err)
	}

	return domain.Translation{
		Query:       query,
		Window:      window,
		Restatement: restate(query),
	}, nil
}

// parseQuery decodes the model output strictly: unknown fields mean the
// model drifted outside the accepted parameter set and the output cannot be
// trusted.
func parseQuery(raw string) (domain.SearchQuery, error) {
	var q domain.SearchQuery
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		return q, fmt.Errorf("model output is not a valid structured query: %w", err)
	}
	return q, nil
}

// StripFences removes markdown code fences the model sometimes wraps its
// JSON in, despite being told not to.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// restate renders the resolved query as a short human-readable sentence for
// the report header.
func restate(q domain.SearchQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "top %d rows by %s", q.RowLimit, strings.Join(q.Dimensions, ", "))
	if q.SearchType != "" && q.SearchType != "web" {
		fmt.Fprintf(&b, " on %s", q.SearchType)
	}
	for _, g := range q.DimensionFilterGroups {
		for _, f := range g.Filters {
			op := f.Operator
			if op == "" {
				op = "equals"
			}
			fmt.Fprintf(&b, ", where %s %s %q", f.Dimension, op, f.Expression)
		}
	}
	fmt.Fprintf(&b, ", %s to %s", q.StartDate, q.EndDate)
	return b.String()
}

// classifyTransportError maps client-side failures onto the error taxonomy.
func classifyTransportError(service string, err error) error {
	var ue *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ue) && ue.Timeout()) {
		return domain.Errorf(domain.KindUpstreamTimeout, "%s did not respond in time: %v", service, err)
	}
	return domain.Errorf(domain.KindUpstream, "%s request failed: %v", service, err)
}

// classifyStatus maps provider status codes onto the error taxonomy.
func classifyStatus(service string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.Errorf(domain.KindUpstreamAuth, "%s rejected the configured credential (HTTP %d)", service, status)
	case status == http.StatusTooManyRequests:
		return domain.Errorf(domain.KindUpstreamQuota, "%s rate limit exceeded (HTTP %d)", service, status)
	default:
		return domain.Errorf(domain.KindUpstream, "%s returned HTTP %d", service, status)
	}
}
