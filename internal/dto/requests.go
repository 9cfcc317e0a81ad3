package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Karbon-fx/Fira-calculator/internal/model"
)

// ComputeRequest carries fields a client already extracted itself. Amounts
// are pointers so an omitted field stays distinguishable from zero.
type ComputeRequest struct {
	BankName              string   `json:"bank_name"`
	TransactionDate       string   `json:"transaction_date"`
	PurposeCode           string   `json:"purpose_code"`
	ForeignCurrencyCode   string   `json:"foreign_currency_code"`
	ForeignCurrencyAmount *float64 `json:"foreign_currency_amount"`
	BankFxRate            *float64 `json:"bank_fx_rate"`
	InrCredited           *float64 `json:"inr_credited"`
}

func (r ComputeRequest) ToFields() model.ExtractedDocumentFields {
	return model.ExtractedDocumentFields{
		BankName:              r.BankName,
		TransactionDate:       r.TransactionDate,
		PurposeCode:           r.PurposeCode,
		ForeignCurrencyCode:   r.ForeignCurrencyCode,
		ForeignCurrencyAmount: nullable(r.ForeignCurrencyAmount),
		BankFxRate:            nullable(r.BankFxRate),
		InrCredited:           nullable(r.InrCredited),
	}
}

func nullable(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}
