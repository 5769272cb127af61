package usecase

import (
	"context"
	"errors"

	"github.com/querylens/querylens/internal/domain"
)

// Standard errors returned by use cases and the registry. The inbound
// adapter maps these onto JSON-RPC error codes.
var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid arguments")
)

// QueryTranslator turns a free-form question into a validated structured
// query. Implementations are model-driven and therefore non-deterministic;
// everything behind this interface is deterministic and testable with fixed
// inputs. A failure to produce a usable query is reported as a
// domain.KindTranslation error, distinct from provider failures.
type QueryTranslator interface {
	Translate(ctx context.Context, question string) (domain.Translation, error)
}

// ReportExecutor runs a validated structured query against the analytics
// provider. Zero rows is a valid empty report, not an error.
type ReportExecutor interface {
	Execute(ctx context.Context, query domain.SearchQuery) (domain.Report, error)
}

// ReportFormatter renders the pipeline output into one bounded text block.
type ReportFormatter interface {
	Format(question string, tr domain.Translation, rep domain.Report) string
}
