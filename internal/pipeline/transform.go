package pipeline

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/extractor"
)

// modelInvoice is the model's reading of one invoice.
type modelInvoice struct {
	Fields      extractor.ParsedInvoiceFields
	Category    string
	Subcategory string
}

// transformModelOutput converts the model's JSON object into invoice fields.
// Values of the wrong JSON type are errors; dates, amounts and invoice
// types that do not parse are dropped so the heuristic value is kept.
func transformModelOutput(rawOutput map[string]interface{}) (*modelInvoice, error) {
	if rawOutput == nil {
		return nil, fmt.Errorf("transformModelOutput: empty model output")
	}

	out := &modelInvoice{}
	f := &out.Fields

	strFields := []struct {
		key string
		dst *string
	}{
		{"partner", &f.Partner},
		{"bank_account", &f.BankAccount},
		{"subject", &f.Subject},
		{"invoice_number", &f.InvoiceNumber},
		{"payment_method", &f.PaymentMethodText},
		{"category", &out.Category},
		{"subcategory", &out.Subcategory},
	}
	for _, sf := range strFields {
		v, err := getOptionalStringField(rawOutput, sf.key)
		if err != nil {
			return nil, fmt.Errorf("transformModelOutput: %w", err)
		}
		if v != nil {
			*sf.dst = *v
		}
	}

	amount, err := getOptionalDecimalField(rawOutput, "amount")
	if err != nil {
		return nil, fmt.Errorf("transformModelOutput: %w", err)
	}
	f.Amount = amount

	for _, df := range []struct {
		key string
		dst **civil.Date
	}{
		{"invoice_date", &f.InvoiceDate},
		{"payment_deadline", &f.PaymentDeadline},
	} {
		s, err := getOptionalStringField(rawOutput, df.key)
		if err != nil {
			return nil, fmt.Errorf("transformModelOutput: %w", err)
		}
		if s == nil {
			continue
		}
		if d, err := civil.ParseDate(*s); err == nil && d.IsValid() {
			*df.dst = &d
		}
	}

	typ, err := getOptionalStringField(rawOutput, "invoice_type")
	if err != nil {
		return nil, fmt.Errorf("transformModelOutput: %w", err)
	}
	if typ != nil {
		if t := domain.InvoiceType(strings.ToLower(*typ)); t.Valid() {
			f.InvoiceType = t
		}
	}

	return out, nil
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

// getOptionalDecimalField accepts a JSON number or a numeric string such
// as "12 500,50".
func getOptionalDecimalField(m map[string]interface{}, key string) (*decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		d := decimal.NewFromFloat(val)
		return &d, nil
	case int:
		d := decimal.NewFromInt(int64(val))
		return &d, nil
	case string:
		s := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\u00a0':
				return -1
			case ',':
				return '.'
			}
			return r
		}, val)
		if s == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, nil
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want number or null", key, v)
	}
}
