package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"loyaltydesk/backoffice/internal/repository"
	"loyaltydesk/backoffice/pkg/dates"
)

const DefaultMaxSalesRangeDays = 366

// DailySales is the sales summary of one calendar day.
type DailySales struct {
	Day            time.Time
	Count          int64
	Amount         decimal.Decimal
	ReferredCount  int64
	ReferredAmount decimal.Decimal
}

type SalesService interface {
	// DailySales returns one entry per day from start to end inclusive, in order.
	DailySales(ctx context.Context, start, end string) ([]DailySales, error)
	ExportXLSX(ctx context.Context, start, end string) (filename string, content []byte, err error)
}

type salesService struct {
	invoiceRepo  repository.InvoiceRepository
	maxRangeDays int
}

func NewSalesService(invoiceRepo repository.InvoiceRepository, maxRangeDays int) SalesService {
	if maxRangeDays <= 0 {
		maxRangeDays = DefaultMaxSalesRangeDays
	}
	return &salesService{invoiceRepo: invoiceRepo, maxRangeDays: maxRangeDays}
}

func (s *salesService) DailySales(ctx context.Context, start, end string) ([]DailySales, error) {
	from, to, err := s.parseRange(start, end)
	if err != nil {
		return nil, err
	}

	totals, err := s.invoiceRepo.DailyTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	byDay := make(map[time.Time]repository.DayTotals, len(totals))
	for _, t := range totals {
		byDay[dates.Day(t.Day)] = t
	}

	days := dates.Span(from, to)
	out := make([]DailySales, 0, len(days))
	for _, d := range days {
		t := byDay[d]
		out = append(out, DailySales{
			Day:            d,
			Count:          t.Count,
			Amount:         t.Amount,
			ReferredCount:  t.ReferredCount,
			ReferredAmount: t.ReferredAmount,
		})
	}
	return out, nil
}

func (s *salesService) ExportXLSX(ctx context.Context, start, end string) (string, []byte, error) {
	series, err := s.DailySales(ctx, start, end)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Sales"
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return "", nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"date", "sales_number", "sales_amount", "referred_sales_number", "referred_sales_amount"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, d := range series {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", nil, err
		}
		row := []interface{}{
			dates.Format(d.Day),
			d.Count,
			d.Amount.InexactFloat64(),
			d.ReferredCount,
			d.ReferredAmount.InexactFloat64(),
		}
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return "", nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	filename := fmt.Sprintf("sales_%s_%s.xlsx", dates.Format(series[0].Day), dates.Format(series[len(series)-1].Day))
	return filename, buf.Bytes(), nil
}

// parseRange rejects missing or malformed bounds, reversed ranges and ranges longer than
// maxRangeDays.
func (s *salesService) parseRange(start, end string) (time.Time, time.Time, error) {
	from, err := dates.Parse(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
	}
	to, err := dates.Parse(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end is before start", ErrInvalidRange)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.maxRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d days exceeds the limit of %d", ErrInvalidRange, days, s.maxRangeDays)
	}
	return from, to, nil
}

var _ SalesService = (*salesService)(nil)
