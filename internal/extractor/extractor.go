// Package extractor reads structured invoice fields out of OCR'd Hungarian
// invoice text using keyword adjacency and regular expressions.
package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/domain"
)

var (
	bankAccountRe   = regexp.MustCompile(`\d{8}-\d{8}(?:-\d{8})?`)
	invoiceNumberRe = regexp.MustCompile(`[A-Z0-9/\-]+$`)
	amountRe        = regexp.MustCompile(`(?i)(?:^|[^\d.,])(\d{1,3}(?:[ \x{00A0}.]\d{3})+|\d+)(,\d+)?(?:,-)?\s*(?:forint\p{L}*|huf|ft)(?:[^\p{L}\d]|$)`)
	dateRe          = regexp.MustCompile(`(\d{4})[.\-/](\d{2})[.\-/](\d{2})`)
	looseDateRe     = regexp.MustCompile(`\d{4}[.\-/]\d{1,2}[.\-/]\d{1,2}`)
	looseAmountRe   = regexp.MustCompile(`(?i)\d+\s*ft`)
	groupSepRe      = regexp.MustCompile(`[\s\x{00A0}.]`)
)

// minSubjectRunes is the length a line must exceed to be used as a
// fallback subject.
const minSubjectRunes = 10

// Extractor applies a keyword vocabulary to invoice text. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	kw Keywords
}

// New returns an Extractor using kw. Keywords are lower-cased on entry.
func New(kw Keywords) *Extractor {
	return &Extractor{kw: Keywords{
		Partner:          lowerAll(kw.Partner),
		InvoiceNumber:    lowerAll(kw.InvoiceNumber),
		InvoiceDate:      lowerAll(kw.InvoiceDate),
		PaymentDeadline:  lowerAll(kw.PaymentDeadline),
		Subject:          lowerAll(kw.Subject),
		BankTransfer:     lowerAll(kw.BankTransfer),
		CardCashAfterpay: lowerAll(kw.CardCashAfterpay),
	}}
}

var defaultExtractor = New(DefaultKeywords())

// Extract reads text with the built-in Hungarian vocabulary.
func Extract(text string) ParsedInvoiceFields {
	return defaultExtractor.Extract(text)
}

// Extract returns every field it can find in text. Each field is resolved
// independently; the first matching line wins.
func (e *Extractor) Extract(text string) ParsedInvoiceFields {
	lines := splitLines(text)
	if len(lines) == 0 {
		return ParsedInvoiceFields{}
	}
	lower := make([]string, len(lines))
	for i, l := range lines {
		lower[i] = strings.ToLower(l)
	}

	var f ParsedInvoiceFields
	f.Partner = e.nextLineAfter(lines, lower, e.kw.Partner)
	f.BankAccount = findBankAccount(lines)
	f.InvoiceNumber = e.findInvoiceNumber(lines, lower)
	f.Amount = findAmount(lines)
	f.InvoiceDate = findDate(lines, lower, e.kw.InvoiceDate)
	f.PaymentDeadline = findDate(lines, lower, e.kw.PaymentDeadline)
	f.PaymentMethodText, f.InvoiceType = e.findPaymentMethod(lines, lower)
	f.Subject = e.findSubject(lines, lower)
	return f
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func containsAny(line string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(line, k) {
			return true
		}
	}
	return false
}

// nextLineAfter returns the line following the first keyword line.
func (e *Extractor) nextLineAfter(lines, lower []string, keywords []string) string {
	for i := range lower {
		if containsAny(lower[i], keywords) && i+1 < len(lines) {
			return lines[i+1]
		}
	}
	return ""
}

func findBankAccount(lines []string) string {
	for _, l := range lines {
		if m := bankAccountRe.FindString(l); m != "" {
			return m
		}
	}
	return ""
}

func (e *Extractor) findInvoiceNumber(lines, lower []string) string {
	for i := range lower {
		if !containsAny(lower[i], e.kw.InvoiceNumber) {
			continue
		}
		// A trailing token without digits is the tail of the label itself,
		// e.g. an upper-case "SZÁMLASZÁM".
		if tok := invoiceNumberRe.FindString(lines[i]); strings.ContainsAny(tok, "0123456789") {
			return tok
		}
		if i+1 < len(lines) {
			return lines[i+1]
		}
	}
	return ""
}

func findAmount(lines []string) *decimal.Decimal {
	for _, l := range lines {
		m := amountRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		if d, ok := parseAmount(m[1], m[2]); ok {
			return &d
		}
	}
	return nil
}

// parseAmount normalizes a grouped integer part and an optional ",dd"
// fraction into a decimal.
func parseAmount(whole, frac string) (decimal.Decimal, bool) {
	s := groupSepRe.ReplaceAllString(whole, "")
	if frac != "" {
		s += "." + strings.TrimPrefix(frac, ",")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// findDate looks for a date on the first keyword line whose own line or
// following line holds a valid date.
func findDate(lines, lower []string, keywords []string) *civil.Date {
	for i := range lower {
		if !containsAny(lower[i], keywords) {
			continue
		}
		if d, ok := parseDate(lines[i]); ok {
			return &d
		}
		if i+1 < len(lines) {
			if d, ok := parseDate(lines[i+1]); ok {
				return &d
			}
		}
	}
	return nil
}

// parseDate returns the first in-range YYYY.MM.DD date in s.
func parseDate(s string) (civil.Date, bool) {
	for _, m := range dateRe.FindAllStringSubmatch(s, -1) {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		date := civil.Date{Year: y, Month: time.Month(mo), Day: d}
		if date.IsValid() {
			return date, true
		}
	}
	return civil.Date{}, false
}

func (e *Extractor) findPaymentMethod(lines, lower []string) (string, domain.InvoiceType) {
	for i := range lower {
		switch {
		case containsAny(lower[i], e.kw.BankTransfer):
			return lines[i], domain.InvoiceTypeBankTransfer
		case containsAny(lower[i], e.kw.CardCashAfterpay):
			return lines[i], domain.InvoiceTypeCardCashAfterpay
		}
	}
	return "", ""
}

func (e *Extractor) findSubject(lines, lower []string) string {
	if s := e.nextLineAfter(lines, lower, e.kw.Subject); s != "" {
		return s
	}
	for _, l := range lines {
		if utf8.RuneCountInString(l) <= minSubjectRunes {
			continue
		}
		if looseDateRe.MatchString(l) || looseAmountRe.MatchString(l) {
			continue
		}
		return l
	}
	return ""
}

func lowerAll(s []string) []string {
	out := make([]string, 0, len(s))
	for _, k := range s {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}
