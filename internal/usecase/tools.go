package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/querylens/querylens/internal/domain"
)

// SearchConsoleQueryToolName is the single tool this server exposes.
const SearchConsoleQueryToolName = "search_console_query"

type searchConsoleQueryArgs struct {
	Query string `json:"query"`
}

// NewSearchConsoleQueryTool builds the search_console_query tool backed by
// the answer pipeline. Adding another tool means adding one more constructor
// like this one and registering it in main; nothing else changes.
func NewSearchConsoleQueryTool(uc *AnswerQueryUseCase) RegisteredTool {
	return RegisteredTool{
		Tool: domain.Tool{
			Name:        SearchConsoleQueryToolName,
			Description: "Translates natural language requests into Google Search Console search analytics queries, executes them, and returns a formatted report.",
			Annotations: domain.ToolAnnotations{ReadOnly: false},
			InputSchema: domain.InputSchema{
				Type: "object",
				Properties: map[string]domain.SchemaProperty{
					"query": {
						Type:        "string",
						Description: "The full natural language query from the user requesting data from Google Search Console.",
					},
				},
				Required:             []string{"query"},
				AdditionalProperties: false,
			},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (domain.CallResult, error) {
			args, err := decodeQueryArgs(raw)
			if err != nil {
				return domain.CallResult{}, err
			}
			text, err := uc.Execute(ctx, args.Query)
			if err != nil {
				return domain.ErrorResult(toolErrorText(err)), nil
			}
			return domain.TextResult(text), nil
		},
	}
}

// decodeQueryArgs accepts arguments either as a JSON object or as a JSON
// string containing an object (some clients double-encode). Unknown fields
// are rejected, matching the additionalProperties:false contract.
func decodeQueryArgs(raw json.RawMessage) (searchConsoleQueryArgs, error) {
	var args searchConsoleQueryArgs
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return args, fmt.Errorf("%w: missing required field \"query\"", ErrInvalidArguments)
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return args, fmt.Errorf("%w: expected object or JSON string", ErrInvalidArguments)
		}
		trimmed = []byte(s)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&args); err != nil {
		return args, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if args.Query == "" {
		return args, fmt.Errorf("%w: missing required field \"query\"", ErrInvalidArguments)
	}
	return args, nil
}

// toolErrorText renders a classified pipeline failure for the client. The
// text states whether retrying can help so agents do not hammer dead
// credentials or double quota spend blindly.
func toolErrorText(err error) string {
	var de *domain.Error
	detail := err.Error()
	if errors.As(err, &de) {
		detail = de.Err.Error()
	}
	switch domain.KindOf(err) {
	case domain.KindTranslation:
		return fmt.Sprintf("Could not translate the request into a Search Console query: %s. Rephrase the request with explicit dimensions or dates and try again.", detail)
	case domain.KindUpstreamTimeout:
		return fmt.Sprintf("Upstream request timed out: %s. The request was not retried.", detail)
	case domain.KindUpstreamQuota:
		return fmt.Sprintf("Upstream quota or rate limit exceeded: %s. Retry after a short delay.", detail)
	case domain.KindUpstreamAuth:
		return fmt.Sprintf("Upstream credential was rejected: %s. Not retried; check the configured API credentials.", detail)
	default:
		return fmt.Sprintf("Tool error (%s): %s", SearchConsoleQueryToolName, detail)
	}
}
