package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Karbon-fx/Fira-calculator/internal/calc"
	"github.com/Karbon-fx/Fira-calculator/internal/extract"
	"github.com/Karbon-fx/Fira-calculator/internal/model"
)

const recordTimeout = 2 * time.Second

// EventRecorder persists operational metadata about analyses.
type EventRecorder interface {
	Record(ctx context.Context, event *model.AnalysisEvent) error
}

type AnalysisService struct {
	extractor        extract.Extractor
	engine           *calc.Engine
	events           EventRecorder
	timeout          time.Duration
	batchConcurrency int
}

// NewAnalysisService wires the pipeline. events may be nil when the event log
// is disabled.
func NewAnalysisService(extractor extract.Extractor, engine *calc.Engine, events EventRecorder, timeout time.Duration, batchConcurrency int) *AnalysisService {
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}
	return &AnalysisService{
		extractor:        extractor,
		engine:           engine,
		events:           events,
		timeout:          timeout,
		batchConcurrency: batchConcurrency,
	}
}

// Analyze extracts the fields from doc and computes the cost analysis within
// the service time budget.
func (s *AnalysisService) Analyze(ctx context.Context, doc extract.Document) (*model.CostAnalysisResult, error) {
	return s.analyze(ctx, doc, model.SourceUpload)
}

// Compute runs the engine on fields the caller already holds.
func (s *AnalysisService) Compute(ctx context.Context, fields model.ExtractedDocumentFields) (*model.CostAnalysisResult, error) {
	return s.run(ctx, model.SourceCompute, func(ctx context.Context, currency *string) (*model.CostAnalysisResult, error) {
		*currency = fields.ForeignCurrencyCode
		return s.engine.ComputeCostAnalysis(ctx, fields)
	})
}

type BatchItem struct {
	Index    int
	Filename string
	Result   *model.CostAnalysisResult
	Err      error
}

// AnalyzeBatch analyzes docs concurrently. Every item gets its own time budget
// and its own outcome; the returned slice keeps the input order.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, docs []extract.Document) []BatchItem {
	items := make([]BatchItem, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, doc := range docs {
		i, doc := i, doc // per-iteration copies; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			res, err := s.analyze(gctx, doc, model.SourceBatch)
			items[i] = BatchItem{Index: i, Filename: doc.Filename, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return items
}

func (s *AnalysisService) analyze(ctx context.Context, doc extract.Document, source string) (*model.CostAnalysisResult, error) {
	return s.run(ctx, source, func(ctx context.Context, currency *string) (*model.CostAnalysisResult, error) {
		fields, err := s.extractor.Extract(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, calc.NewError(calc.KindTimeout, "document extraction did not finish in time", err)
			}
			return nil, calc.NewError(calc.KindExtractionIncomplete, "required fields could not be extracted", err)
		}
		*currency = fields.ForeignCurrencyCode
		return s.engine.ComputeCostAnalysis(ctx, fields)
	})
}

type step func(ctx context.Context, currency *string) (*model.CostAnalysisResult, error)

func (s *AnalysisService) run(ctx context.Context, source string, fn step) (res *model.CostAnalysisResult, err error) {
	start := time.Now()
	var currency string

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("source", source).Msg("analysis panicked")
			res, err = nil, calc.NewError(calc.KindUnknown, "unexpected failure", fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			res = nil
			err = calc.AsCalculationError(err)
		}
		s.record(ctx, source, currency, start, err)
	}()

	return fn(ctx, &currency)
}

func (s *AnalysisService) record(ctx context.Context, source, currency string, start time.Time, err error) {
	outcome := model.OutcomeOK
	if err != nil {
		outcome = string(calc.KindOf(err))
	}
	latency := time.Since(start)

	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Str("source", source).
		Str("outcome", outcome).
		Str("currency", currency).
		Dur("latency", latency).
		Msg("analysis finished")

	if s.events == nil {
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if rerr := s.events.Record(rctx, &model.AnalysisEvent{
		ID:           uuid.NewString(),
		Outcome:      outcome,
		CurrencyCode: normalizeCurrency(currency),
		Source:       source,
		LatencyMS:    latency.Milliseconds(),
	}); rerr != nil {
		log.Error().Err(rerr).Msg("failed to record analysis event")
	}
}

// normalizeCurrency keeps only well-formed codes for the event log.
func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return ""
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return code
}
