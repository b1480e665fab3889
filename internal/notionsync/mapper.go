package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/ovoda/invoice-tracker/internal/store"
)

// Property names of the invoices database.
const (
	PropPartner         = "Partner"
	PropInvoiceID       = "Invoice ID"
	PropInvoiceNumber   = "Invoice Number"
	PropOrganization    = "Organization"
	PropPaymentType     = "Payment Type"
	PropAmount          = "Amount"
	PropCurrency        = "Currency"
	PropInvoiceDate     = "Invoice Date"
	PropPaymentDeadline = "Payment Deadline"
	PropBankAccount     = "Bank Account"
	PropSubject         = "Subject"
	PropUploaded        = "Uploaded"
	PropMissingFields   = "Missing Fields"
	PropCategory        = "Category"
)

// Property names of the categories database.
const (
	PropCategoryName = "Category"
	PropSubcategory  = "Subcategory"
	PropSlug         = "Slug"
	PropIsActive     = "Is Active"
)

// untitledPartner is the page title of an invoice without a partner.
const untitledPartner = "(unknown partner)"

// InvoiceToNotionProperties converts an InvoiceRow to Notion page
// properties. categoryPageIDs maps category_id to the page ID of the
// category in the categories database; a nil map leaves out the relation.
// Fields the invoice lacks are omitted rather than sent empty.
func InvoiceToNotionProperties(inv *store.InvoiceRow, categoryPageIDs map[string]string) notionapi.Properties {
	title := inv.Partner
	if title == "" {
		title = untitledPartner
	}

	props := notionapi.Properties{
		PropPartner: notionapi.TitleProperty{
			Title: richText(title),
		},
		PropInvoiceID: notionapi.RichTextProperty{
			RichText: richText(inv.InvoiceID),
		},
		PropOrganization: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(inv.Organization)},
		},
		PropCurrency: notionapi.SelectProperty{
			Select: notionapi.Option{Name: currency(inv.Currency)},
		},
		PropUploaded: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: notionDate(inv.UploadedAt)},
		},
	}

	if inv.InvoiceType != "" {
		props[PropPaymentType] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(inv.InvoiceType)},
		}
	}
	if inv.Amount.Valid {
		f, _ := inv.Amount.Decimal.Float64()
		props[PropAmount] = notionapi.NumberProperty{Number: f}
	}
	if inv.InvoiceNumber != "" {
		props[PropInvoiceNumber] = notionapi.RichTextProperty{RichText: richText(inv.InvoiceNumber)}
	}
	if inv.BankAccount != "" {
		props[PropBankAccount] = notionapi.RichTextProperty{RichText: richText(inv.BankAccount)}
	}
	if inv.Subject != "" {
		props[PropSubject] = notionapi.RichTextProperty{RichText: richText(inv.Subject)}
	}
	if inv.InvoiceDate != nil {
		props[PropInvoiceDate] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: civilDate(*inv.InvoiceDate)},
		}
	}
	if inv.PaymentDeadline != nil {
		props[PropPaymentDeadline] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: civilDate(*inv.PaymentDeadline)},
		}
	}
	if len(inv.MissingFields) > 0 {
		opts := make([]notionapi.Option, 0, len(inv.MissingFields))
		for _, f := range inv.MissingFields {
			opts = append(opts, notionapi.Option{Name: f})
		}
		props[PropMissingFields] = notionapi.MultiSelectProperty{MultiSelect: opts}
	}
	if pageID, ok := categoryPageIDs[inv.CategoryID]; ok && inv.CategoryID != "" {
		props[PropCategory] = notionapi.RelationProperty{
			Relation: []notionapi.Relation{{ID: notionapi.PageID(pageID)}},
		}
	}

	return props
}

// CategoryToNotionProperties converts a CategoryRow to Notion properties
// for the categories database.
func CategoryToNotionProperties(cat store.CategoryRow) notionapi.Properties {
	props := notionapi.Properties{
		PropCategoryName: notionapi.TitleProperty{
			Title: richText(cat.CategoryName),
		},
		PropSlug: notionapi.RichTextProperty{
			RichText: richText(cat.Slug),
		},
		PropIsActive: notionapi.CheckboxProperty{
			Checkbox: cat.IsActive,
		},
	}
	if cat.SubcategoryName != "" {
		props[PropSubcategory] = notionapi.RichTextProperty{RichText: richText(cat.SubcategoryName)}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

func currency(c string) string {
	if c == "" {
		return "HUF"
	}
	return c
}

func notionDate(t time.Time) *notionapi.Date {
	d := notionapi.Date(t)
	return &d
}

func civilDate(d civil.Date) *notionapi.Date {
	return notionDate(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
}
