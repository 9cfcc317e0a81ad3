package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Karbon-fx/Fira-calculator/internal/calc"
	"github.com/Karbon-fx/Fira-calculator/internal/dto"
	"github.com/Karbon-fx/Fira-calculator/internal/middleware"
	"github.com/Karbon-fx/Fira-calculator/internal/upload"
)

var verdictText = map[string]string{
	"HIDDEN_COST":    "Your bank kept a hidden markup on this remittance.",
	"FAVORABLE_RATE": "Your bank paid more than the mid-market rate.",
	"NO_HIDDEN_COST": "Your bank converted at the mid-market rate.",
}

func render(w io.Writer, r dto.AnalysisResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	rateLabel := "Bank rate"
	if r.BankRateDerived {
		rateLabel = "Bank rate (derived)"
	}

	rows := [][2]string{
		{"Bank", r.BankName},
		{"Date", r.TransactionDate},
		{"Purpose code", r.PurposeCode},
		{"Amount received", r.Display.ForeignAmount},
		{"Credited", r.Display.InrCredited},
		{rateLabel, r.Display.BankRate},
		{"Mid-market rate", r.Display.MidMarketRate},
		{"Effective rate", r.Display.EffectiveBankRate},
		{"Spread", r.Display.Spread},
		{"Paise per unit", r.Display.PaisePerUnit},
		{"Markup (bps)", r.Display.BasisPoints},
		{"Hidden cost", r.Display.HiddenCost},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", verdictText[r.Display.Verdict])
	return err
}

// describeError renders analysis and upload failures with the same headline
// and message the API returns. Anything else is printed as is.
func describeError(err error) string {
	var ue *upload.Error
	var ce *calc.CalculationError
	if !errors.As(err, &ue) && !errors.As(err, &ce) {
		return err.Error()
	}

	_, resp := middleware.MapError(err)
	out := resp.Headline + "\n" + resp.Message
	if resp.Details != "" {
		out += "\n(" + resp.Details + ")"
	}
	return out
}
