package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karbon-fx/Fira-calculator/internal/calc"
	"github.com/Karbon-fx/Fira-calculator/internal/dto"
)

func rateServer(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"2024-01-15":{"INR":83.2}}}`))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("FREECURRENCY_API_KEY", "test-key")
	t.Setenv("FREECURRENCY_BASE_URL", srv.URL)
	t.Setenv("LOCAL_CURRENCY", "INR")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCompute_PrintsBreakdown(t *testing.T) {
	rateServer(t)

	out, err := execute(t, "compute", "--currency", "usd", "--amount", "1000", "--credited", "82500", "--bank-rate", "82.5", "--date", "2024-01-15")
	require.NoError(t, err)

	assert.Contains(t, out, "Bank:                Your Bank")
	assert.Contains(t, out, "Amount received:     USD 1,000.00")
	assert.Contains(t, out, "Mid-market rate:     ₹83.2000")
	assert.Contains(t, out, "Hidden cost:         ₹700.00")
	assert.Contains(t, out, "hidden markup")
}

func TestCompute_DerivedRateAsJSON(t *testing.T) {
	rateServer(t)

	out, err := execute(t, "compute", "--currency", "USD", "--amount", "1000", "--credited", "82500", "--date", "2024-01-15", "--json")
	require.NoError(t, err)

	var resp dto.AnalysisResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.BankRateDerived)
	assert.InDelta(t, 82.5, resp.BankRate, 1e-9)
	assert.InDelta(t, 700, resp.HiddenCost, 1e-9)
}

func TestCompute_Errors(t *testing.T) {
	rateServer(t)

	_, err := execute(t, "compute", "--currency", "USD", "--credited", "82500", "--date", "2024-01-15")
	assert.Equal(t, calc.KindExtractionIncomplete, calc.KindOf(err))

	_, err = execute(t, "compute", "--currency", "USD", "--amount", "0", "--credited", "82500", "--date", "2024-01-15")
	assert.Equal(t, calc.KindInvalidAmount, calc.KindOf(err))
}

func TestCompute_RequiresRateKey(t *testing.T) {
	t.Setenv("FREECURRENCY_API_KEY", "")

	_, err := execute(t, "compute", "--currency", "USD", "--amount", "1", "--credited", "1", "--date", "2024-01-15")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FREECURRENCY_API_KEY")
}

func TestAnalyze_RejectsMissingFile(t *testing.T) {
	rateServer(t)
	t.Setenv("OPENAI_API_KEY", "test")

	_, err := execute(t, "analyze", "does-not-exist.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE_READ_ERROR")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fira dev")
}

func TestDescribeError(t *testing.T) {
	msg := describeError(calc.NewError(calc.KindInvalidAmount, "foreign currency amount must be greater than zero", nil))
	assert.Contains(t, msg, "Invalid Foreign Currency Amount")
	assert.Contains(t, msg, "(foreign currency amount must be greater than zero)")

	assert.Equal(t, "FREECURRENCY_API_KEY is required", describeError(errors.New("FREECURRENCY_API_KEY is required")))
}
