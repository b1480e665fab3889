package bigquery

import (
	"cloud.google.com/go/bigquery"

	"github.com/ovoda/invoice-tracker/internal/store"
)

type categoryRow struct {
	CategoryID      string              `bigquery:"category_id"`      // REQUIRED
	CategoryName    string              `bigquery:"category_name"`    // REQUIRED
	SubcategoryName bigquery.NullString `bigquery:"subcategory_name"` // NULLABLE
	Slug            string              `bigquery:"slug"`             // REQUIRED
	IsActive        bigquery.NullBool   `bigquery:"is_active"`        // NULLABLE
}

func (r *categoryRow) toStore() store.CategoryRow {
	return store.CategoryRow{
		CategoryID:      r.CategoryID,
		CategoryName:    r.CategoryName,
		SubcategoryName: r.SubcategoryName.StringVal,
		Slug:            r.Slug,
		IsActive:        r.IsActive.Valid && r.IsActive.Bool,
	}
}
