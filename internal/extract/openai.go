package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Karbon-fx/Fira-calculator/internal/model"
)

type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	LocalCurrency string
	Timeout       time.Duration
}

// OpenAIClient implements Extractor over the chat completions API.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.LocalCurrency == "" {
		cfg.LocalCurrency = "INR"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type rawFields struct {
	BankName              string              `json:"bankName"`
	TransactionDate       string              `json:"transactionDate"`
	PurposeCode           string              `json:"purposeCode"`
	ForeignCurrencyCode   string              `json:"foreignCurrencyCode"`
	ForeignCurrencyAmount decimal.NullDecimal `json:"foreignCurrencyAmount"`
	BankFxRate            decimal.NullDecimal `json:"bankFxRate"`
	InrCredited           decimal.NullDecimal `json:"inrCredited"`
	Error                 string              `json:"error"`
}

func (c *OpenAIClient) Extract(ctx context.Context, doc Document) (model.ExtractedDocumentFields, error) {
	rid := uuid.NewString()
	start := time.Now()
	logger := log.With().Str("req_id", rid).Str("model", c.cfg.Model).Logger()

	logger.Info().
		Str("mime", doc.MIMEType).
		Int("bytes", len(doc.Data)).
		Msg("extraction started")

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     0,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt(c.cfg.LocalCurrency)},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": "Extract the fields from this remittance advice. JSON Schema:\n" + mustJSON(firaSchema)},
				documentPart(doc),
			}},
		},
	}

	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("extraction request failed")
		return model.ExtractedDocumentFields{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return model.ExtractedDocumentFields{}, fmt.Errorf("%w: decode completion: %v", ErrExtractionFailed, err)
	}
	if len(cc.Choices) == 0 {
		return model.ExtractedDocumentFields{}, fmt.Errorf("%w: no choices in completion", ErrExtractionFailed)
	}

	content := []byte(stripFences(cc.Choices[0].Message.Content))
	if err := ValidateFields(content); err != nil {
		logger.Warn().Err(err).Msg("extracted fields rejected by schema")
		return model.ExtractedDocumentFields{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var rf rawFields
	if err := json.Unmarshal(content, &rf); err != nil {
		return model.ExtractedDocumentFields{}, fmt.Errorf("%w: unmarshal fields: %v", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(rf.Error) != "" {
		logger.Warn().Str("model_error", rf.Error).Msg("model reported extraction error")
		return model.ExtractedDocumentFields{}, fmt.Errorf("%w: %s", ErrExtractionFailed, rf.Error)
	}

	fields := rf.toModel()
	logger.Info().
		Str("currency", fields.ForeignCurrencyCode).
		Str("date", fields.TransactionDate).
		Bool("has_bank_rate", fields.BankFxRate.Valid).
		Dur("elapsed", time.Since(start)).
		Msg("extraction finished")
	return fields, nil
}

func (rf rawFields) toModel() model.ExtractedDocumentFields {
	bankRate := rf.BankFxRate
	if bankRate.Valid && !bankRate.Decimal.IsPositive() {
		bankRate = decimal.NullDecimal{}
	}
	return model.ExtractedDocumentFields{
		BankName:              strings.TrimSpace(rf.BankName),
		TransactionDate:       strings.TrimSpace(rf.TransactionDate),
		PurposeCode:           strings.TrimSpace(rf.PurposeCode),
		ForeignCurrencyCode:   strings.ToUpper(strings.TrimSpace(rf.ForeignCurrencyCode)),
		ForeignCurrencyAmount: rf.ForeignCurrencyAmount,
		BankFxRate:            bankRate,
		InrCredited:           rf.InrCredited,
	}
}

func (c *OpenAIClient) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: extraction service status %d", ErrExtractionFailed, resp.StatusCode)
	}
	return raw, nil
}

// documentPart attaches PDFs as a file part and images as an image_url part.
func documentPart(doc Document) map[string]any {
	if doc.MIMEType == MIMEPDF {
		name := doc.Filename
		if name == "" {
			name = "fira.pdf"
		}
		return map[string]any{
			"type": "file",
			"file": map[string]any{"filename": name, "file_data": doc.DataURI()},
		}
	}
	return map[string]any{
		"type":      "image_url",
		"image_url": map[string]any{"url": doc.DataURI()},
	}
}

func systemPrompt(local string) string {
	return strings.Join([]string{
		"You are a financial-document parser for Foreign Inward Remittance Advices (FIRA/FIRC) issued by banks.",
		"Return ONLY one JSON object matching the schema, no commentary.",
		"bankName: the issuing bank.",
		"transactionDate: the date the currency was converted and credited (not the issue date), as YYYY-MM-DD.",
		"purposeCode: the regulatory purpose code, typically Pxxxx.",
		"foreignCurrencyCode: the 3-letter ISO code of the foreign currency received; do not assume USD.",
		"foreignCurrencyAmount: the amount received in that currency, digits only, no commas or symbols.",
		"bankFxRate: the exchange rate the bank printed for that currency to " + local + "; 0 if the document does not state it.",
		"inrCredited: the " + local + " amount actually credited.",
		"If a required field cannot be located confidently, set it to \"\" or 0 and add an \"error\" key explaining what is missing.",
	}, " ")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
