package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karbon-fx/Fira-calculator/internal/calc"
	"github.com/Karbon-fx/Fira-calculator/internal/extract"
	"github.com/Karbon-fx/Fira-calculator/internal/model"
)

type stubExtractor struct {
	byName map[string]model.ExtractedDocumentFields
	err    error
	block  bool
	panic  bool
}

func (s *stubExtractor) Extract(ctx context.Context, doc extract.Document) (model.ExtractedDocumentFields, error) {
	if s.panic {
		panic("extractor exploded")
	}
	if s.block {
		<-ctx.Done()
		return model.ExtractedDocumentFields{}, ctx.Err()
	}
	if s.err != nil {
		return model.ExtractedDocumentFields{}, s.err
	}
	return s.byName[doc.Filename], nil
}

type stubRates struct {
	rate decimal.Decimal
	err  error
}

func (s stubRates) MidMarketRate(ctx context.Context, currency, date string) (decimal.Decimal, error) {
	return s.rate, s.err
}

type memRecorder struct {
	mu     sync.Mutex
	events []model.AnalysisEvent
	err    error
}

func (m *memRecorder) Record(ctx context.Context, e *model.AnalysisEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return m.err
}

func (m *memRecorder) snapshot() []model.AnalysisEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AnalysisEvent(nil), m.events...)
}

func usdFields() model.ExtractedDocumentFields {
	return model.ExtractedDocumentFields{
		TransactionDate:       "2024-01-15",
		ForeignCurrencyCode:   "USD",
		ForeignCurrencyAmount: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		BankFxRate:            decimal.NewNullDecimal(decimal.RequireFromString("82.5")),
		InrCredited:           decimal.NewNullDecimal(decimal.NewFromInt(82500)),
	}
}

func newService(ex extract.Extractor, rates calc.RateProvider, rec EventRecorder, timeout time.Duration) *AnalysisService {
	return NewAnalysisService(ex, calc.NewEngine(rates), rec, timeout, 2)
}

func TestAnalysisService_Analyze(t *testing.T) {
	rec := &memRecorder{}
	ex := &stubExtractor{byName: map[string]model.ExtractedDocumentFields{"a.pdf": usdFields()}}
	svc := newService(ex, stubRates{rate: decimal.RequireFromString("83.2")}, rec, time.Second)

	res, err := svc.Analyze(context.Background(), extract.Document{Filename: "a.pdf"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(700).Equal(res.HiddenCost))

	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutcomeOK, events[0].Outcome)
	assert.Equal(t, "USD", events[0].CurrencyCode)
	assert.Equal(t, model.SourceUpload, events[0].Source)
	assert.NotEmpty(t, events[0].ID)
}

func TestAnalysisService_Analyze_Failures(t *testing.T) {
	t.Run("extractor failure is incomplete extraction", func(t *testing.T) {
		rec := &memRecorder{}
		svc := newService(&stubExtractor{err: extract.ErrExtractionFailed}, stubRates{rate: decimal.NewFromInt(83)}, rec, time.Second)

		res, err := svc.Analyze(context.Background(), extract.Document{})
		assert.Nil(t, res)
		assert.Equal(t, calc.KindExtractionIncomplete, calc.KindOf(err))
		assert.ErrorIs(t, err, extract.ErrExtractionFailed)
		assert.Equal(t, string(calc.KindExtractionIncomplete), rec.snapshot()[0].Outcome)
	})

	t.Run("slow extraction is a timeout", func(t *testing.T) {
		svc := newService(&stubExtractor{block: true}, stubRates{rate: decimal.NewFromInt(83)}, nil, 30*time.Millisecond)

		_, err := svc.Analyze(context.Background(), extract.Document{})
		assert.Equal(t, calc.KindTimeout, calc.KindOf(err))
	})

	t.Run("rate failure", func(t *testing.T) {
		ex := &stubExtractor{byName: map[string]model.ExtractedDocumentFields{"": usdFields()}}
		svc := newService(ex, stubRates{err: errors.New("502")}, nil, time.Second)

		_, err := svc.Analyze(context.Background(), extract.Document{})
		assert.Equal(t, calc.KindRateUnavailable, calc.KindOf(err))
	})

	t.Run("panic becomes unknown", func(t *testing.T) {
		rec := &memRecorder{}
		svc := newService(&stubExtractor{panic: true}, stubRates{}, rec, time.Second)

		res, err := svc.Analyze(context.Background(), extract.Document{})
		assert.Nil(t, res)
		assert.Equal(t, calc.KindUnknown, calc.KindOf(err))
		assert.Equal(t, string(calc.KindUnknown), rec.snapshot()[0].Outcome)
	})

	t.Run("recorder failure does not fail the analysis", func(t *testing.T) {
		ex := &stubExtractor{byName: map[string]model.ExtractedDocumentFields{"": usdFields()}}
		svc := newService(ex, stubRates{rate: decimal.NewFromInt(83)}, &memRecorder{err: errors.New("db down")}, time.Second)

		_, err := svc.Analyze(context.Background(), extract.Document{})
		assert.NoError(t, err)
	})
}

func TestAnalysisService_Compute(t *testing.T) {
	rec := &memRecorder{}
	svc := newService(nil, stubRates{rate: decimal.RequireFromString("82.0")}, rec, time.Second)

	res, err := svc.Compute(context.Background(), usdFields())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-500).Equal(res.HiddenCost))

	f := usdFields()
	f.ForeignCurrencyAmount = decimal.NewNullDecimal(decimal.Zero)
	_, err = svc.Compute(context.Background(), f)
	assert.Equal(t, calc.KindInvalidAmount, calc.KindOf(err))

	f = usdFields()
	f.ForeignCurrencyCode = "us dollars"
	_, err = svc.Compute(context.Background(), f)
	assert.Equal(t, calc.KindExtractionIncomplete, calc.KindOf(err))

	events := rec.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, model.SourceCompute, events[0].Source)
	assert.Empty(t, events[2].CurrencyCode, "malformed codes are not logged")
}

func TestAnalysisService_AnalyzeBatch(t *testing.T) {
	good := usdFields()
	zero := usdFields()
	zero.ForeignCurrencyAmount = decimal.NewNullDecimal(decimal.Zero)
	missing := usdFields()
	missing.ForeignCurrencyCode = ""

	ex := &stubExtractor{byName: map[string]model.ExtractedDocumentFields{
		"good.pdf":    good,
		"zero.pdf":    zero,
		"missing.pdf": missing,
		"good2.png":   good,
	}}
	rec := &memRecorder{}
	svc := newService(ex, stubRates{rate: decimal.RequireFromString("83.2")}, rec, time.Second)

	docs := []extract.Document{{Filename: "good.pdf"}, {Filename: "zero.pdf"}, {Filename: "missing.pdf"}, {Filename: "good2.png"}}
	items := svc.AnalyzeBatch(context.Background(), docs)
	require.Len(t, items, 4)

	for i, item := range items {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, docs[i].Filename, item.Filename)
	}
	assert.NoError(t, items[0].Err)
	assert.NotNil(t, items[0].Result)
	assert.Equal(t, calc.KindInvalidAmount, calc.KindOf(items[1].Err))
	assert.Nil(t, items[1].Result)
	assert.Equal(t, calc.KindExtractionIncomplete, calc.KindOf(items[2].Err))
	assert.NoError(t, items[3].Err)

	events := rec.snapshot()
	assert.Len(t, events, 4)
	for _, e := range events {
		assert.Equal(t, model.SourceBatch, e.Source)
	}
}
