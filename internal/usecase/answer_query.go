package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/querylens/querylens/internal/domain"
)

// AnswerQueryUseCase handles one natural-language analytics question:
// translate it to a structured query, validate the untrusted model output,
// execute it against the provider, and format the answer.
type AnswerQueryUseCase struct {
	translator QueryTranslator
	executor   ReportExecutor
	formatter  ReportFormatter
	logger     *slog.Logger
	tracer     trace.Tracer
	calls      metric.Int64Counter
}

// NewAnswerQueryUseCase creates a new AnswerQueryUseCase.
func NewAnswerQueryUseCase(translator QueryTranslator, executor ReportExecutor, formatter ReportFormatter, logger *slog.Logger) *AnswerQueryUseCase {
	meter := otel.Meter("querylens/usecase")
	calls, err := meter.Int64Counter("querylens.tool_calls",
		metric.WithDescription("Tool calls handled, by outcome."))
	if err != nil {
		logger.Warn("Failed to create tool call counter", slog.Any("error", err))
	}
	return &AnswerQueryUseCase{
		translator: translator,
		executor:   executor,
		formatter:  formatter,
		logger:     logger.With("usecase", "AnswerQuery"),
		tracer:     otel.Tracer("querylens/usecase"),
		calls:      calls,
	}
}

// Execute runs the full pipeline for one question and returns the formatted
// report text. Errors carry a domain.ErrorKind so the caller can shape the
// tool-level error response.
func (uc *AnswerQueryUseCase) Execute(ctx context.Context, question string) (string, error) {
	ctx, span := uc.tracer.Start(ctx, "answer_query")
	defer span.End()

	log := uc.logger
	log.Info("Answering analytics question")
	log.Debug("Question text", slog.String("question", question))

	tctx, tspan := uc.tracer.Start(ctx, "translate")
	tr, err := uc.translator.Translate(tctx, question)
	tspan.End()
	if err != nil {
		log.Warn("Translation failed", slog.Any("error", err))
		uc.record(ctx, domain.KindOf(err))
		return "", err
	}

	// The model output is untrusted even after the adapter parsed it; a
	// partially hallucinated query is rejected here, never forwarded.
	if err := tr.Query.Validate(); err != nil {
		log.Warn("Translated query failed validation", slog.Any("error", err))
		err = domain.NewError(domain.KindTranslation, err)
		uc.record(ctx, domain.KindOf(err))
		return "", err
	}

	ectx, espan := uc.tracer.Start(ctx, "execute")
	rep, err := uc.executor.Execute(ectx, tr.Query)
	espan.End()
	if err != nil {
		log.Warn("Provider query failed", slog.Any("error", err))
		uc.record(ctx, domain.KindOf(err))
		return "", err
	}

	text := uc.formatter.Format(question, tr, rep)
	log.Info("Question answered", slog.Int("rows", len(rep.Rows)), slog.Int("report_bytes", len(text)))
	uc.record(ctx, "success")
	return text, nil
}

func (uc *AnswerQueryUseCase) record(ctx context.Context, outcome domain.ErrorKind) {
	if uc.calls == nil {
		return
	}
	uc.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}
