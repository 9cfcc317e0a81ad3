package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Karbon-fx/Fira-calculator/internal/model"
)

const rupee = "₹"

// NewAnalysisResponse is the single adapter between the engine result and
// anything that renders it.
func NewAnalysisResponse(r *model.CostAnalysisResult) AnalysisResponse {
	return AnalysisResponse{
		BankName:              r.BankName,
		TransactionDate:       r.TransactionDate,
		PurposeCode:           r.PurposeCode,
		ForeignCurrencyCode:   r.ForeignCurrencyCode,
		ForeignCurrencyAmount: r.ForeignCurrencyAmount.InexactFloat64(),
		BankRate:              r.BankRate.InexactFloat64(),
		BankRateDerived:       r.BankRateDerived,
		InrCredited:           r.InrCredited.InexactFloat64(),
		MidMarketRate:         r.MidMarketRate.InexactFloat64(),
		EffectiveBankRate:     r.EffectiveBankRate.InexactFloat64(),
		Spread:                r.Spread.InexactFloat64(),
		HiddenCost:            r.HiddenCost.InexactFloat64(),
		PaisePerUnit:          r.PaisePerUnit.InexactFloat64(),
		BasisPoints:           r.BasisPoints.InexactFloat64(),
		Display: Display{
			ForeignAmount:     r.ForeignCurrencyCode + " " + FormatIndian(r.ForeignCurrencyAmount, 2),
			BankRate:          FormatRupees(r.BankRate, 4),
			InrCredited:       FormatRupees(r.InrCredited, 2),
			MidMarketRate:     FormatRupees(r.MidMarketRate, 4),
			EffectiveBankRate: FormatRupees(r.EffectiveBankRate, 4),
			Spread:            FormatRupees(r.Spread, 4),
			HiddenCost:        FormatRupees(r.HiddenCost, 2),
			PaisePerUnit:      FormatIndian(r.PaisePerUnit, 2),
			BasisPoints:       FormatIndian(r.BasisPoints, 2),
			Verdict:           verdict(r.HiddenCost),
		},
	}
}

func verdict(cost decimal.Decimal) string {
	switch cost.Sign() {
	case 1:
		return "HIDDEN_COST"
	case -1:
		return "FAVORABLE_RATE"
	default:
		return "NO_HIDDEN_COST"
	}
}

// FormatRupees renders v as ₹ with Indian digit grouping, e.g. -₹1,00,000.50.
func FormatRupees(v decimal.Decimal, places int32) string {
	s := FormatIndian(v.Abs(), places)
	if v.Round(places).IsNegative() {
		return "-" + rupee + s
	}
	return rupee + s
}

// FormatIndian rounds v half away from zero to places and groups the integer
// part as 12,34,567.
func FormatIndian(v decimal.Decimal, places int32) string {
	s := v.StringFixed(places)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	grouped := groupIndian(intPart)
	if hasFrac {
		grouped += "." + frac
	}
	if neg {
		return "-" + grouped
	}
	return grouped
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
