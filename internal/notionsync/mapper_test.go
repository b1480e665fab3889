package notionsync

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/store"
)

func TestInvoiceToNotionProperties_Full(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 3, Day: 15}
	deadline := civil.Date{Year: 2024, Month: 3, Day: 30}
	inv := &store.InvoiceRow{
		InvoiceID:       "inv-1",
		Organization:    domain.OrganizationKindergarten,
		InvoiceType:     domain.InvoiceTypeBankTransfer,
		Partner:         "Minta Kft.",
		BankAccount:     "12345678-12345678",
		InvoiceNumber:   "INV-2024/001",
		Amount:          decimal.NullDecimal{Decimal: decimal.RequireFromString("12500.50"), Valid: true},
		Currency:        "HUF",
		InvoiceDate:     &date,
		PaymentDeadline: &deadline,
		CategoryID:      "rezsi",
		MissingFields:   []string{"subject"},
		UploadedAt:      time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC),
	}

	props := InvoiceToNotionProperties(inv, map[string]string{"rezsi": "cat-page"})

	title := props[PropPartner].(notionapi.TitleProperty)
	assert.Equal(t, "Minta Kft.", title.Title[0].Text.Content)
	assert.Equal(t, "inv-1", richTextValue(notionapi.Page{Properties: props}, PropInvoiceID))
	assert.Equal(t, "kindergarten", props[PropOrganization].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "bank_transfer", props[PropPaymentType].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, 12500.5, props[PropAmount].(notionapi.NumberProperty).Number)

	start := props[PropInvoiceDate].(notionapi.DateProperty).Date.Start
	require.NotNil(t, start)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), time.Time(*start))

	missing := props[PropMissingFields].(notionapi.MultiSelectProperty)
	require.Len(t, missing.MultiSelect, 1)
	assert.Equal(t, "subject", missing.MultiSelect[0].Name)

	rel := props[PropCategory].(notionapi.RelationProperty)
	require.Len(t, rel.Relation, 1)
	assert.Equal(t, notionapi.PageID("cat-page"), rel.Relation[0].ID)
}

func TestInvoiceToNotionProperties_OmitsMissingFields(t *testing.T) {
	inv := &store.InvoiceRow{InvoiceID: "inv-2", Organization: domain.OrganizationFoundation, CategoryID: "unknown"}

	props := InvoiceToNotionProperties(inv, map[string]string{"rezsi": "cat-page"})

	assert.Equal(t, untitledPartner, props[PropPartner].(notionapi.TitleProperty).Title[0].Text.Content)
	assert.Equal(t, "HUF", props[PropCurrency].(notionapi.SelectProperty).Select.Name)
	for _, name := range []string{PropAmount, PropPaymentType, PropInvoiceDate, PropPaymentDeadline, PropBankAccount, PropMissingFields, PropCategory} {
		assert.NotContains(t, props, name)
	}
}

func TestCategoryToNotionProperties(t *testing.T) {
	props := CategoryToNotionProperties(store.CategoryRow{
		CategoryID:      "rezsi-aram",
		CategoryName:    "Rezsi",
		SubcategoryName: "Áram",
		Slug:            "rezsi-aram",
		IsActive:        true,
	})

	assert.Equal(t, "Rezsi", props[PropCategoryName].(notionapi.TitleProperty).Title[0].Text.Content)
	assert.Equal(t, "rezsi-aram", richTextValue(notionapi.Page{Properties: props}, PropSlug))
	assert.Equal(t, "Áram", richTextValue(notionapi.Page{Properties: props}, PropSubcategory))
	assert.True(t, props[PropIsActive].(notionapi.CheckboxProperty).Checkbox)
}
