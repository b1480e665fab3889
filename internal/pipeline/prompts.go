package pipeline

import (
	"sort"
	"strings"

	"github.com/ovoda/invoice-tracker/internal/store"
)

// buildCategoriesPrompt lists the active categories and subcategories,
// formatted for LLM consumption. Returns "" when there are none.
func buildCategoriesPrompt(rows []store.CategoryRow) string {
	if len(rows) == 0 {
		return ""
	}

	// Group by category name
	categoryMap := make(map[string][]string)
	for _, row := range rows {
		cat := row.CategoryName
		if row.SubcategoryName != "" {
			categoryMap[cat] = append(categoryMap[cat], row.SubcategoryName)
		} else if _, exists := categoryMap[cat]; !exists {
			categoryMap[cat] = []string{}
		}
	}

	names := make([]string, 0, len(categoryMap))
	for cat := range categoryMap {
		names = append(names, cat)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Use ONLY the following bookkeeping Categories and Subcategories:\n\n")

	for _, cat := range names {
		subs := categoryMap[cat]
		b.WriteString(cat + ":\n")
		if len(subs) == 0 {
			b.WriteString("  (no subcategories - use empty string \"\")\n\n")
			continue
		}
		for _, s := range subs {
			b.WriteString("  - " + s + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("CATEGORY ASSIGNMENT RULES:\n")
	b.WriteString("1. Category must be EXACTLY one of the category names shown above.\n")
	b.WriteString("2. If a category has subcategories listed, choose one of them.\n")
	b.WriteString("3. If you are unsure, set both \"category\" and \"subcategory\" to null.\n")

	return b.String()
}

// buildInvoicePrompt asks for one JSON object describing the invoice text.
func buildInvoicePrompt(text string, categories []store.CategoryRow) string {
	basePrompt :=
		"You are an invoice parser for Hungarian invoices read by OCR.\n\n" +
			"Task:\n" +
			"- Read the invoice text below and extract its fields.\n" +
			"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
			"- Output a single JSON object.\n\n" +
			"The object must have these fields (use null when a field is not present):\n" +
			"- \"partner\": string, the supplier (szállító / eladó)\n" +
			"- \"bank_account\": string, Hungarian account number like 12345678-12345678[-12345678]\n" +
			"- \"subject\": string, what the invoice is for\n" +
			"- \"invoice_number\": string\n" +
			"- \"amount\": number, the gross total in HUF\n" +
			"- \"invoice_date\": string, ISO format \"YYYY-MM-DD\"\n" +
			"- \"payment_deadline\": string, ISO format \"YYYY-MM-DD\"\n" +
			"- \"payment_method\": string, as printed on the invoice\n" +
			"- \"invoice_type\": \"bank_transfer\" for átutalás, \"card_cash_afterpay\" for kártya, készpénz or utánvét\n" +
			"- \"category\": string or null\n" +
			"- \"subcategory\": string or null\n\n"

	rulesPrompt :=
		"Rules:\n" +
			"- Never guess values that are not in the text; use null instead.\n" +
			"- Amounts use a decimal point and no thousands separators.\n\n" +
			"Return ONLY valid raw JSON.\n" +
			"Do NOT wrap the response in code fences.\n" +
			"Output must begin with \"{\" and end with \"}\".\n"

	var b strings.Builder
	b.WriteString(basePrompt)
	if catPrompt := buildCategoriesPrompt(categories); catPrompt != "" {
		b.WriteString(catPrompt)
		b.WriteString("\n")
	}
	b.WriteString(rulesPrompt)
	b.WriteString("\nInvoice text:\n")
	b.WriteString(text)
	return b.String()
}
