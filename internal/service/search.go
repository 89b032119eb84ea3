package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/internal/repository"
	"loyaltydesk/backoffice/pkg/dates"
)

// InvoiceQuery carries invoice search parameters exactly as the client sent them.
type InvoiceQuery struct {
	Q              string
	Field          string
	DateFrom       string
	DateTo         string
	AmountMin      string
	AmountMax      string
	LoyaltyStatus  string
	ReferralStatus string
	HasReferrer    string
}

// ParseInvoiceFilter turns raw parameters into a typed filter. Values that do not parse
// (bad dates, amounts or statuses) are dropped, as if they had not been sent.
func ParseInvoiceFilter(q InvoiceQuery) repository.InvoiceFilter {
	f := repository.InvoiceFilter{
		Query:    strings.TrimSpace(q.Q),
		Field:    repository.ParseInvoiceField(q.Field),
		Referrer: repository.ParseReferrerFilter(q.HasReferrer),
		Limit:    repository.InvoiceSearchLimit,
	}

	if d, err := dates.Parse(q.DateFrom); err == nil {
		f.DateFrom = &d
	}
	if d, err := dates.Parse(q.DateTo); err == nil {
		f.DateTo = &d
	}
	f.AmountMin = parseAmount(q.AmountMin)
	f.AmountMax = parseAmount(q.AmountMax)

	if st, ok := model.ParseLoyaltyStatus(strings.TrimSpace(q.LoyaltyStatus)); ok {
		f.LoyaltyStatus = &st
	}
	if st, ok := model.ParseReferralStatus(strings.TrimSpace(q.ReferralStatus)); ok {
		f.ReferralStatus = &st
	}
	return f
}

func parseAmount(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
