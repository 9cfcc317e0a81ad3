package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// firaSchema is sent to the model and used to validate what comes back.
// Amounts are numbers; a field the document does not show is 0 or "".
var firaSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"bankName":              map[string]any{"type": "string"},
		"transactionDate":       map[string]any{"type": "string", "pattern": `^(\d{4}-\d{2}-\d{2})?$`},
		"purposeCode":           map[string]any{"type": "string"},
		"foreignCurrencyCode":   map[string]any{"type": "string", "pattern": `^([A-Za-z]{3})?$`},
		"foreignCurrencyAmount": map[string]any{"type": "number", "minimum": 0},
		"bankFxRate":            map[string]any{"type": "number", "minimum": 0},
		"inrCredited":           map[string]any{"type": "number", "minimum": 0},
		"error":                 map[string]any{"type": "string"},
	},
	"required": []string{"transactionDate", "foreignCurrencyCode", "foreignCurrencyAmount", "inrCredited"},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(firaSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("fira.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile("fira.json")
	})
	return compiled, compileErr
}

// ValidateFields checks raw model output against the FIRA schema.
func ValidateFields(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("fields do not match schema: %w", err)
	}
	return nil
}
