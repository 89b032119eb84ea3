package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/pkg/dates"
)

type pgInvoiceRepository struct {
	db *gorm.DB
}

func NewPGInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &pgInvoiceRepository{db: db}
}

func (r *pgInvoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(invoice).Error
}

func (r *pgInvoiceRepository) Save(ctx context.Context, invoice *model.Invoice) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(invoice).Error
	})
}

func (r *pgInvoiceRepository) GetByID(ctx context.Context, id string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := conn(ctx, r.db).
		Preload("Customer").
		Preload("Referrer").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *pgInvoiceRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Delete(&model.Invoice{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pgInvoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Invoice, error) {
	return r.list(ctx, "customer_id = ?", customerID)
}

func (r *pgInvoiceRepository) ListByReferrer(ctx context.Context, referrerID string) ([]model.Invoice, error) {
	return r.list(ctx, "referrer_id = ?", referrerID)
}

func (r *pgInvoiceRepository) list(ctx context.Context, where string, arg string) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := conn(ctx, r.db).
		Preload("Customer").
		Preload("Referrer").
		Where(where, arg).
		Order("date DESC").
		Order("id").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *pgInvoiceRepository) Search(ctx context.Context, f InvoiceFilter) ([]model.Invoice, error) {
	q := conn(ctx, r.db).Model(&model.Invoice{}).
		Select("invoices.*").
		Joins("JOIN customers AS cust ON cust.id = invoices.customer_id").
		Joins("LEFT JOIN customers AS ref ON ref.id = invoices.referrer_id")

	if text := strings.TrimSpace(f.Query); text != "" {
		like := containsPattern(text)
		switch f.Field {
		case InvoiceFieldID:
			q = q.Where("invoices.id ILIKE ?", like)
		case InvoiceFieldCustomer:
			q = q.Where("cust.name ILIKE ?", like)
		case InvoiceFieldPhone:
			q = q.Where("cust.phone_number ILIKE ?", like)
		case InvoiceFieldReferrer:
			q = q.Where("ref.name ILIKE ?", like)
		default:
			q = q.Where(
				"(invoices.id ILIKE @p OR cust.name ILIKE @p OR cust.phone_number ILIKE @p OR ref.name ILIKE @p)",
				sql.Named("p", like),
			)
		}
	}

	if f.DateFrom != nil {
		q = q.Where("invoices.date >= ?", dates.Format(*f.DateFrom))
	}
	if f.DateTo != nil {
		q = q.Where("invoices.date <= ?", dates.Format(*f.DateTo))
	}
	if f.AmountMin != nil {
		q = q.Where("invoices.total_amount >= ?", *f.AmountMin)
	}
	if f.AmountMax != nil {
		q = q.Where("invoices.total_amount <= ?", *f.AmountMax)
	}
	if f.LoyaltyStatus != nil {
		q = q.Where("invoices.loyalty_points_status = ?", *f.LoyaltyStatus)
	}
	if f.ReferralStatus != nil {
		q = q.Where("invoices.referral_points_status = ?", *f.ReferralStatus)
	}
	switch f.Referrer {
	case ReferrerPresent:
		q = q.Where("invoices.referrer_id IS NOT NULL")
	case ReferrerAbsent:
		q = q.Where("invoices.referrer_id IS NULL")
	}

	var invoices []model.Invoice
	err := q.Preload("Customer").
		Preload("Referrer").
		Order("invoices.date DESC").
		Order("invoices.id").
		Limit(limitOr(f.Limit, InvoiceSearchLimit)).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

type pointsTotal struct {
	Total decimal.Decimal
}

func (r *pgInvoiceRepository) SumActiveLoyaltyPoints(ctx context.Context, customerID string) (decimal.Decimal, error) {
	var row pointsTotal
	err := conn(ctx, r.db).Model(&model.Invoice{}).
		Select("COALESCE(SUM(loyalty_points), 0) AS total").
		Where("customer_id = ? AND loyalty_points_status = ?", customerID, model.LoyaltyActive).
		Scan(&row).Error
	return row.Total, err
}

func (r *pgInvoiceRepository) SumActiveReferralPoints(ctx context.Context, referrerID string) (decimal.Decimal, error) {
	var row pointsTotal
	err := conn(ctx, r.db).Model(&model.Invoice{}).
		Select("COALESCE(SUM(referral_points), 0) AS total").
		Where("referrer_id = ? AND referral_points_status = ?", referrerID, model.ReferralActive).
		Scan(&row).Error
	return row.Total, err
}

func (r *pgInvoiceRepository) DailyTotals(ctx context.Context, start, end time.Time) ([]DayTotals, error) {
	var rows []DayTotals
	err := conn(ctx, r.db).Model(&model.Invoice{}).
		Select(`date AS day,
			COUNT(*) AS count,
			COALESCE(SUM(total_amount), 0) AS amount,
			COUNT(referrer_id) AS referred_count,
			COALESCE(SUM(total_amount) FILTER (WHERE referrer_id IS NOT NULL), 0) AS referred_amount`).
		Where("date BETWEEN ? AND ?", dates.Format(start), dates.Format(end)).
		Group("date").
		Order("date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
