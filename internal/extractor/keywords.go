package extractor

// Keywords holds the lower-case vocabularies the extractor matches against.
// Matching is a case-insensitive substring test on each trimmed line, so a
// stem such as "kárty" also covers inflected forms ("kártyával").
type Keywords struct {
	Partner          []string
	InvoiceNumber    []string
	InvoiceDate      []string
	PaymentDeadline  []string
	Subject          []string
	BankTransfer     []string
	CardCashAfterpay []string
}

var (
	partnerKeywords = []string{
		"szállító", "eladó", "szolgáltató", "kibocsátó",
		"kft", "bt.", "zrt", "nyrt", "kkt",
	}
	invoiceNumberKeywords = []string{
		"számla sorszáma", "számlaszám", "bizonylatszám", "sorszám",
	}
	invoiceDateKeywords = []string{
		"számla kelte", "kiállítás dátuma", "kelte", "dátum",
	}
	paymentDeadlineKeywords = []string{
		"fizetési határidő", "esedékesség", "teljesítési határidő", "határidő",
	}
	subjectKeywords = []string{
		"tárgy", "megnevezés", "szolgáltatás", "termék",
	}
	bankTransferKeywords = []string{
		"átutalás", "utalás", "csoportos beszedés", "beszedés",
	}
	cardCashAfterpayKeywords = []string{
		"készpénz", "kárty", "utánvét",
	}
)

// DefaultKeywords returns a fresh copy of the built-in Hungarian vocabulary.
func DefaultKeywords() Keywords {
	return Keywords{
		Partner:          clone(partnerKeywords),
		InvoiceNumber:    clone(invoiceNumberKeywords),
		InvoiceDate:      clone(invoiceDateKeywords),
		PaymentDeadline:  clone(paymentDeadlineKeywords),
		Subject:          clone(subjectKeywords),
		BankTransfer:     clone(bankTransferKeywords),
		CardCashAfterpay: clone(cardCashAfterpayKeywords),
	}
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
