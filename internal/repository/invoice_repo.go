package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"loyaltydesk/backoffice/internal/model"
)

// DayTotals aggregates the invoices of one calendar day.
type DayTotals struct {
	Day            time.Time
	Count          int64
	Amount         decimal.Decimal
	ReferredCount  int64
	ReferredAmount decimal.Decimal
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	// Save inserts or fully overwrites the invoice row in one transaction.
	Save(ctx context.Context, invoice *model.Invoice) error
	GetByID(ctx context.Context, id string) (*model.Invoice, error)
	Delete(ctx context.Context, id string) error
	ListByCustomer(ctx context.Context, customerID string) ([]model.Invoice, error)
	ListByReferrer(ctx context.Context, referrerID string) ([]model.Invoice, error)
	Search(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error)
	SumActiveLoyaltyPoints(ctx context.Context, customerID string) (decimal.Decimal, error)
	SumActiveReferralPoints(ctx context.Context, referrerID string) (decimal.Decimal, error)
	// DailyTotals returns one row per day that has invoices, ascending.
	DailyTotals(ctx context.Context, start, end time.Time) ([]DayTotals, error)
}
