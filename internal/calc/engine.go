// Package calc derives the hidden FX markup of a remittance from the fields
// extracted off the bank document and an independent mid-market rate.
package calc

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Karbon-fx/Fira-calculator/internal/model"
)

const (
	DefaultBankName    = "Your Bank"
	DefaultPurposeCode = "N/A"

	dateLayout = "2006-01-02"
)

var (
	hundred      = decimal.NewFromInt(100)
	tenThousand  = decimal.NewFromInt(10000)
	currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)
)

// RateProvider returns the mid-market rate for one unit of currency in the
// local currency on date (YYYY-MM-DD).
type RateProvider interface {
	MidMarketRate(ctx context.Context, currency, date string) (decimal.Decimal, error)
}

type Engine struct {
	rates RateProvider
}

func NewEngine(rates RateProvider) *Engine {
	return &Engine{rates: rates}
}

// ComputeCostAnalysis validates the extracted fields, looks up the mid-market
// rate and computes spread, hidden cost, paise per unit and basis points.
// Every failure is a *CalculationError; no partial result is ever returned.
func (e *Engine) ComputeCostAnalysis(ctx context.Context, fields model.ExtractedDocumentFields) (*model.CostAnalysisResult, error) {
	in, err := validate(fields)
	if err != nil {
		return nil, err
	}

	mid, err := e.rates.MidMarketRate(ctx, in.currency, in.date)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(KindTimeout, "rate lookup did not finish in time", err)
		}
		log.Warn().Err(err).
			Str("currency", in.currency).
			Str("date", in.date).
			Msg("mid-market rate lookup failed")
		return nil, newError(KindRateUnavailable, "mid-market rate lookup failed", err)
	}
	if !mid.IsPositive() {
		return nil, newError(KindRateUnavailable, "mid-market rate is not positive", nil)
	}

	bankRate, derived := deriveBankRate(fields.BankFxRate, in.credited, in.amount)
	result := compute(in, bankRate, mid)
	result.BankRateDerived = derived
	result.BankName = fallback(fields.BankName, DefaultBankName)
	result.PurposeCode = fallback(fields.PurposeCode, DefaultPurposeCode)

	log.Debug().
		Str("currency", in.currency).
		Str("date", in.date).
		Bool("bank_rate_derived", derived).
		Str("spread", result.Spread.String()).
		Msg("cost analysis computed")

	return result, nil
}

type validated struct {
	date     string
	currency string
	amount   decimal.Decimal
	credited decimal.Decimal
}

func validate(f model.ExtractedDocumentFields) (validated, error) {
	date := strings.TrimSpace(f.TransactionDate)
	currency := strings.ToUpper(strings.TrimSpace(f.ForeignCurrencyCode))

	var missing []string
	if date == "" {
		missing = append(missing, "transaction date")
	}
	if !f.ForeignCurrencyAmount.Valid {
		missing = append(missing, "foreign currency amount")
	}
	if !f.InrCredited.Valid || f.InrCredited.Decimal.IsZero() {
		missing = append(missing, "credited amount")
	}
	if currency == "" {
		missing = append(missing, "foreign currency code")
	}
	if len(missing) > 0 {
		return validated{}, newError(KindExtractionIncomplete, "missing "+strings.Join(missing, ", "), nil)
	}

	if _, err := time.Parse(dateLayout, date); err != nil {
		return validated{}, newError(KindExtractionIncomplete, "transaction date is not YYYY-MM-DD", err)
	}
	if !currencyCode.MatchString(currency) {
		return validated{}, newError(KindExtractionIncomplete, "foreign currency code is not a 3-letter ISO code", nil)
	}

	// Presence passed; a present but zero amount must still be rejected before
	// anything divides by it.
	if !f.ForeignCurrencyAmount.Decimal.IsPositive() {
		return validated{}, newError(KindInvalidAmount, "foreign currency amount must be greater than zero", nil)
	}
	if f.InrCredited.Decimal.IsNegative() {
		return validated{}, newError(KindInvalidAmount, "credited amount must be positive", nil)
	}

	return validated{
		date:     date,
		currency: currency,
		amount:   f.ForeignCurrencyAmount.Decimal,
		credited: f.InrCredited.Decimal,
	}, nil
}

// deriveBankRate uses the printed bank rate when it is present and positive,
// otherwise credited / amount. The second return reports the fallback.
func deriveBankRate(printed decimal.NullDecimal, credited, amount decimal.Decimal) (decimal.Decimal, bool) {
	if printed.Valid && printed.Decimal.IsPositive() {
		return printed.Decimal, false
	}
	return credited.Div(amount), true
}

func compute(in validated, bankRate, mid decimal.Decimal) *model.CostAnalysisResult {
	spread := mid.Sub(bankRate)
	return &model.CostAnalysisResult{
		TransactionDate:       in.date,
		ForeignCurrencyCode:   in.currency,
		ForeignCurrencyAmount: in.amount,
		BankRate:              bankRate,
		InrCredited:           in.credited,
		MidMarketRate:         mid,
		EffectiveBankRate:     in.credited.Div(in.amount),
		Spread:                spread,
		HiddenCost:            spread.Mul(in.amount),
		PaisePerUnit:          spread.Mul(hundred),
		BasisPoints:           spread.Div(mid).Mul(tenThousand),
	}
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
