package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Karbon-fx/Fira-calculator/internal/model"
)

type OutcomeRow struct {
	Outcome      string
	CurrencyCode string
	Count        int
	AvgLatencyMS float64
}

type AnalysisEventRepository struct {
	pool *pgxpool.Pool
}

func NewAnalysisEventRepository(pool *pgxpool.Pool) *AnalysisEventRepository {
	return &AnalysisEventRepository{pool: pool}
}

func (r *AnalysisEventRepository) Record(ctx context.Context, e *model.AnalysisEvent) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO analysis_events (id, outcome, currency_code, source, latency_ms)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING created_at`,
		e.ID, e.Outcome, e.CurrencyCode, e.Source, e.LatencyMS,
	).Scan(&e.CreatedAt)
}

func (r *AnalysisEventRepository) OutcomeStats(ctx context.Context, currency, dateFrom, dateTo string) ([]OutcomeRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			outcome,
			COALESCE(currency_code, '') AS currency_code,
			COUNT(*) AS event_count,
			COALESCE(ROUND(AVG(latency_ms)::numeric, 2), 0)::float8 AS avg_latency_ms
		FROM analysis_events
		WHERE ($1 = '' OR currency_code = $1)
			AND ($2 = '' OR created_at >= $2::timestamptz)
			AND ($3 = '' OR created_at <= $3::timestamptz)
		GROUP BY outcome, currency_code
		ORDER BY outcome, currency_code`,
		currency, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("query outcome stats: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OutcomeRow, error) {
		var o OutcomeRow
		err := row.Scan(&o.Outcome, &o.CurrencyCode, &o.Count, &o.AvgLatencyMS)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan outcome stats: %w", err)
	}
	return result, nil
}

func (r *AnalysisEventRepository) List(ctx context.Context, limit, offset int) ([]model.AnalysisEvent, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM analysis_events").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, outcome, COALESCE(currency_code, ''), source, latency_ms, created_at
		FROM analysis_events
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AnalysisEvent, error) {
		var e model.AnalysisEvent
		err := row.Scan(&e.ID, &e.Outcome, &e.CurrencyCode, &e.Source, &e.LatencyMS, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan events: %w", err)
	}
	return events, total, nil
}
