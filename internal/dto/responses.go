package dto

import "github.com/Karbon-fx/Fira-calculator/internal/model"

type AnalysisResponse struct {
	BankName              string  `json:"bank_name"`
	TransactionDate       string  `json:"transaction_date"`
	PurposeCode           string  `json:"purpose_code"`
	ForeignCurrencyCode   string  `json:"foreign_currency_code"`
	ForeignCurrencyAmount float64 `json:"foreign_currency_amount"`
	BankRate              float64 `json:"bank_rate"`
	BankRateDerived       bool    `json:"bank_rate_derived"`
	InrCredited           float64 `json:"inr_credited"`
	MidMarketRate         float64 `json:"mid_market_rate"`
	EffectiveBankRate     float64 `json:"effective_bank_rate"`
	Spread                float64 `json:"spread"`
	HiddenCost            float64 `json:"hidden_cost"`
	PaisePerUnit          float64 `json:"paise_per_unit"`
	BasisPoints           float64 `json:"basis_points"`
	Display               Display `json:"display"`
}

// Display holds the result rendered for people. Values are rounded here and
// only here.
type Display struct {
	ForeignAmount     string `json:"foreign_amount"`
	BankRate          string `json:"bank_rate"`
	InrCredited       string `json:"inr_credited"`
	MidMarketRate     string `json:"mid_market_rate"`
	EffectiveBankRate string `json:"effective_bank_rate"`
	Spread            string `json:"spread"`
	HiddenCost        string `json:"hidden_cost"`
	PaisePerUnit      string `json:"paise_per_unit"`
	BasisPoints       string `json:"basis_points"`
	Verdict           string `json:"verdict"`
}

type BatchItemResponse struct {
	Index    int               `json:"index"`
	Filename string            `json:"filename"`
	Result   *AnalysisResponse `json:"result,omitempty"`
	Error    *ErrorResponse    `json:"error,omitempty"`
}

type BatchResponse struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Results   []BatchItemResponse `json:"results"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Headline string `json:"headline,omitempty"`
	Message  string `json:"message,omitempty"`
	Details  string `json:"details,omitempty"`
}

type EventListResponse struct {
	Data       []model.AnalysisEvent `json:"data"`
	Pagination Pagination            `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
