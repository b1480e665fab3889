// Package dashboard groups invoice records into the series and breakdowns
// shown on the dashboard. Everything here is computed from its inputs.
package dashboard

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ovoda/invoice-tracker/internal/domain"
)

// RecentLimit is the number of invoices kept in Aggregate.Recent.
const RecentLimit = 5

// Totals is a count and an exact sum of invoice amounts.
type Totals struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func (t Totals) add(amount decimal.Decimal) Totals {
	return Totals{Count: t.Count + 1, Amount: t.Amount.Add(amount)}
}

// MonthBucket holds one calendar month of the current year.
type MonthBucket struct {
	Month time.Month `json:"month"`
	Totals
	ByOrganization map[domain.Organization]Totals `json:"by_organization"`
}

// DayBucket holds one day of the current Monday-start week.
type DayBucket struct {
	Date    civil.Date   `json:"date"`
	Weekday time.Weekday `json:"weekday"`
	Totals
}

// CategoryTotals is one slice of a two-category breakdown.
type CategoryTotals struct {
	Key string `json:"key"`
	Totals
}

// Aggregate is the full dashboard view for one point in time.
type Aggregate struct {
	Year           int                    `json:"year"`
	Monthly        [12]MonthBucket        `json:"monthly"`
	Weekly         [7]DayBucket           `json:"weekly"`
	ByOrganization []CategoryTotals       `json:"by_organization"`
	ByPaymentType  []CategoryTotals       `json:"by_payment_type"`
	ThisMonth      Totals                 `json:"this_month"`
	Total          Totals                 `json:"total"`
	Recent         []domain.InvoiceRecord `json:"recent"`
}

// Build computes the dashboard for invoices as seen at now. Upload times
// are read in now's location. invoices is expected newest first; Recent is
// its prefix. Records with an unknown organization or payment type count
// toward the time series and totals but not toward that breakdown.
func Build(invoices []domain.InvoiceRecord, now time.Time) Aggregate {
	loc := now.Location()
	year, month, day := now.Date()

	agg := Aggregate{Year: year}
	for i := range agg.Monthly {
		agg.Monthly[i] = MonthBucket{
			Month:          time.Month(i + 1),
			ByOrganization: make(map[domain.Organization]Totals, len(domain.Organizations)),
		}
		for _, org := range domain.Organizations {
			agg.Monthly[i].ByOrganization[org] = Totals{}
		}
	}

	offset := (int(now.Weekday()) + 6) % 7
	weekStart := civil.DateOf(time.Date(year, month, day-offset, 0, 0, 0, 0, loc))
	for i := range agg.Weekly {
		d := weekStart.AddDays(i)
		agg.Weekly[i] = DayBucket{Date: d, Weekday: d.In(loc).Weekday()}
	}

	byOrg := make(map[domain.Organization]Totals, len(domain.Organizations))
	byType := make(map[domain.InvoiceType]Totals, len(domain.InvoiceTypes))

	for _, inv := range invoices {
		t := inv.UploadedAt.In(loc)
		agg.Total = agg.Total.add(inv.Amount)

		if t.Year() == year {
			b := &agg.Monthly[t.Month()-1]
			b.Totals = b.Totals.add(inv.Amount)
			if inv.Organization.Valid() {
				b.ByOrganization[inv.Organization] = b.ByOrganization[inv.Organization].add(inv.Amount)
			}
			if t.Month() == month {
				agg.ThisMonth = agg.ThisMonth.add(inv.Amount)
			}
		}

		if idx := civil.DateOf(t).DaysSince(weekStart); idx >= 0 && idx < len(agg.Weekly) {
			agg.Weekly[idx].Totals = agg.Weekly[idx].Totals.add(inv.Amount)
		}

		if inv.Organization.Valid() {
			byOrg[inv.Organization] = byOrg[inv.Organization].add(inv.Amount)
		}
		if inv.InvoiceType.Valid() {
			byType[inv.InvoiceType] = byType[inv.InvoiceType].add(inv.Amount)
		}
	}

	for _, org := range domain.Organizations {
		agg.ByOrganization = append(agg.ByOrganization, CategoryTotals{Key: string(org), Totals: byOrg[org]})
	}
	for _, typ := range domain.InvoiceTypes {
		agg.ByPaymentType = append(agg.ByPaymentType, CategoryTotals{Key: string(typ), Totals: byType[typ]})
	}

	n := min(len(invoices), RecentLimit)
	agg.Recent = make([]domain.InvoiceRecord, n)
	copy(agg.Recent, invoices[:n])

	return agg
}
