package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovoda/invoice-tracker/internal/store"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.raw))
		})
	}
}

func TestDecodeModelObject(t *testing.T) {
	got, err := decodeModelObject("```json\n{\"partner\":\"Minta Kft.\",\"amount\":1200}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Minta Kft.", got["partner"])
	assert.Equal(t, 1200.0, got["amount"])

	_, err = decodeModelObject("not json")
	assert.Error(t, err)

	_, err = decodeModelObject("null")
	assert.Error(t, err)
}

func TestBuildInvoicePrompt(t *testing.T) {
	categories := []store.CategoryRow{
		{CategoryID: "2", CategoryName: "Utilities", SubcategoryName: "Water"},
		{CategoryID: "1", CategoryName: "Food"},
	}
	prompt := buildInvoicePrompt("SZÁMLA\nVégösszeg: 100 Ft", categories)

	assert.Contains(t, prompt, "Invoice text:\nSZÁMLA\nVégösszeg: 100 Ft")
	assert.Contains(t, prompt, "Utilities:\n  - Water\n")
	assert.Contains(t, prompt, "Food:\n  (no subcategories")
	assert.Less(t, strings.Index(prompt, "Food:"), strings.Index(prompt, "Utilities:"))
}

func TestBuildCategoriesPrompt_Empty(t *testing.T) {
	assert.Empty(t, buildCategoriesPrompt(nil))
	assert.NotContains(t, buildInvoicePrompt("x", nil), "CATEGORY ASSIGNMENT RULES")
}
