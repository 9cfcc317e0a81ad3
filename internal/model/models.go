package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractedDocumentFields is the record produced by the document extractor.
// Amounts that the document may omit are NullDecimal so "absent" and "zero"
// stay distinguishable.
type ExtractedDocumentFields struct {
	BankName              string              `json:"bank_name"`
	TransactionDate       string              `json:"transaction_date"`
	PurposeCode           string              `json:"purpose_code"`
	ForeignCurrencyCode   string              `json:"foreign_currency_code"`
	ForeignCurrencyAmount decimal.NullDecimal `json:"foreign_currency_amount"`
	BankFxRate            decimal.NullDecimal `json:"bank_fx_rate"`
	InrCredited           decimal.NullDecimal `json:"inr_credited"`
}

// CostAnalysisResult is the engine output. It is built once and never mutated.
type CostAnalysisResult struct {
	BankName              string          `json:"bank_name"`
	TransactionDate       string          `json:"transaction_date"`
	PurposeCode           string          `json:"purpose_code"`
	ForeignCurrencyCode   string          `json:"foreign_currency_code"`
	ForeignCurrencyAmount decimal.Decimal `json:"foreign_currency_amount"`
	BankRate              decimal.Decimal `json:"bank_rate"`
	BankRateDerived       bool            `json:"bank_rate_derived"`
	InrCredited           decimal.Decimal `json:"inr_credited"`
	MidMarketRate         decimal.Decimal `json:"mid_market_rate"`
	EffectiveBankRate     decimal.Decimal `json:"effective_bank_rate"`
	Spread                decimal.Decimal `json:"spread"`
	HiddenCost            decimal.Decimal `json:"hidden_cost"`
	PaisePerUnit          decimal.Decimal `json:"paise_per_unit"`
	BasisPoints           decimal.Decimal `json:"basis_points"`
}

// Analysis sources recorded in the event log.
const (
	SourceUpload  = "upload"
	SourceBatch   = "batch"
	SourceCompute = "compute"
)

// OutcomeOK marks a successful analysis; failures use the calculation error kind.
const OutcomeOK = "OK"

// AnalysisEvent is operational metadata about one analysis. It never carries
// document content or computed amounts.
type AnalysisEvent struct {
	ID           string    `json:"id"`
	Outcome      string    `json:"outcome"`
	CurrencyCode string    `json:"currency_code,omitempty"`
	Source       string    `json:"source"`
	LatencyMS    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
