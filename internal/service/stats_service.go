package service

import (
	"context"
	"math"
	"sort"

	"github.com/Karbon-fx/Fira-calculator/internal/model"
	"github.com/Karbon-fx/Fira-calculator/internal/repository"
)

// EventStore is the read side of the analysis event log.
type EventStore interface {
	OutcomeStats(ctx context.Context, currency, dateFrom, dateTo string) ([]repository.OutcomeRow, error)
	List(ctx context.Context, limit, offset int) ([]model.AnalysisEvent, int, error)
}

type StatsService struct {
	store EventStore
}

func NewStatsService(store EventStore) *StatsService {
	return &StatsService{store: store}
}

type OutcomeCount struct {
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

type CurrencyStats struct {
	CurrencyCode string  `json:"currency_code"`
	Total        int     `json:"total"`
	Succeeded    int     `json:"succeeded"`
	SuccessRate  float64 `json:"success_rate"`
}

type StatsSummary struct {
	Total        int             `json:"total"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	SuccessRate  float64         `json:"success_rate"`
	AvgLatencyMS float64         `json:"avg_latency_ms"`
	ByOutcome    []OutcomeCount  `json:"by_outcome"`
	ByCurrency   []CurrencyStats `json:"by_currency"`
}

func (s *StatsService) GetStats(ctx context.Context, currency, dateFrom, dateTo string) (StatsSummary, error) {
	rows, err := s.store.OutcomeStats(ctx, currency, dateFrom, dateTo)
	if err != nil {
		return StatsSummary{}, err
	}

	var summary StatsSummary
	outcomes := make(map[string]int)
	currencies := make(map[string]*CurrencyStats)
	var latencySum float64

	for _, r := range rows {
		summary.Total += r.Count
		latencySum += r.AvgLatencyMS * float64(r.Count)
		outcomes[r.Outcome] += r.Count

		code := r.CurrencyCode
		if code == "" {
			code = "UNKNOWN"
		}
		cs, ok := currencies[code]
		if !ok {
			cs = &CurrencyStats{CurrencyCode: code}
			currencies[code] = cs
		}
		cs.Total += r.Count
		if r.Outcome == model.OutcomeOK {
			summary.Succeeded += r.Count
			cs.Succeeded += r.Count
		}
	}
	summary.Failed = summary.Total - summary.Succeeded

	if summary.Total > 0 {
		summary.SuccessRate = round2(float64(summary.Succeeded) / float64(summary.Total) * 100)
		summary.AvgLatencyMS = round2(latencySum / float64(summary.Total))
	}

	summary.ByOutcome = make([]OutcomeCount, 0, len(outcomes))
	for outcome, n := range outcomes {
		summary.ByOutcome = append(summary.ByOutcome, OutcomeCount{Outcome: outcome, Count: n})
	}
	sort.Slice(summary.ByOutcome, func(i, j int) bool {
		if summary.ByOutcome[i].Count != summary.ByOutcome[j].Count {
			return summary.ByOutcome[i].Count > summary.ByOutcome[j].Count
		}
		return summary.ByOutcome[i].Outcome < summary.ByOutcome[j].Outcome
	})

	summary.ByCurrency = make([]CurrencyStats, 0, len(currencies))
	for _, cs := range currencies {
		if cs.Total > 0 {
			cs.SuccessRate = round2(float64(cs.Succeeded) / float64(cs.Total) * 100)
		}
		summary.ByCurrency = append(summary.ByCurrency, *cs)
	}
	sort.Slice(summary.ByCurrency, func(i, j int) bool {
		return summary.ByCurrency[i].CurrencyCode < summary.ByCurrency[j].CurrencyCode
	})

	return summary, nil
}

func (s *StatsService) ListEvents(ctx context.Context, limit, offset int) ([]model.AnalysisEvent, int, error) {
	return s.store.List(ctx, limit, offset)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
