package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"loyaltydesk/backoffice/internal/model"
)

func seedSales(f *serviceFixture) {
	seedCustomers(f)
	f.store.addInvoice(model.Invoice{ID: "A", CustomerID: "C1", Date: day("2024-01-01"), TotalAmount: decimal.NewFromInt(100)})
	f.store.addInvoice(model.Invoice{ID: "B", CustomerID: "C1", Date: day("2024-01-01"), TotalAmount: decimal.NewFromInt(50), ReferrerID: strPtr("C2")})
	f.store.addInvoice(model.Invoice{ID: "C", CustomerID: "C2", Date: day("2024-01-03"), TotalAmount: decimal.NewFromInt(20)})
	f.store.addInvoice(model.Invoice{ID: "D", CustomerID: "C2", Date: day("2024-01-09"), TotalAmount: decimal.NewFromInt(999)})
}

func TestSalesService_DailySalesFillsGaps(t *testing.T) {
	f := newServiceFixture("2024-01-10")
	seedSales(f)

	days, err := f.sales.DailySales(context.Background(), "2024-01-01", "2024-01-03")
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, day("2024-01-01"), days[0].Day)
	assert.Equal(t, int64(2), days[0].Count)
	assert.Equal(t, "150", days[0].Amount.String())
	assert.Equal(t, int64(1), days[0].ReferredCount)
	assert.Equal(t, "50", days[0].ReferredAmount.String())

	assert.Equal(t, day("2024-01-02"), days[1].Day)
	assert.Equal(t, int64(0), days[1].Count)
	assert.True(t, days[1].Amount.IsZero())

	assert.Equal(t, int64(1), days[2].Count)
	assert.Equal(t, "20", days[2].Amount.String())
	assert.Equal(t, int64(0), days[2].ReferredCount)
}

func TestSalesService_SingleDay(t *testing.T) {
	f := newServiceFixture("2024-01-10")
	seedSales(f)

	days, err := f.sales.DailySales(context.Background(), "2024-01-09", "2024-01-09")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "999", days[0].Amount.String())
}

func TestSalesService_InvalidRange(t *testing.T) {
	f := newServiceFixture("2024-01-10")

	tests := []struct {
		name       string
		start, end string
	}{
		{"missing start", "", "2024-01-03"},
		{"missing end", "2024-01-01", ""},
		{"malformed", "01/01/2024", "2024-01-03"},
		{"reversed", "2024-01-05", "2024-01-01"},
		{"too long", "2020-01-01", "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sales.DailySales(context.Background(), tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestSalesService_ExportXLSX(t *testing.T) {
	f := newServiceFixture("2024-01-10")
	seedSales(f)

	name, content, err := f.sales.ExportXLSX(context.Background(), "2024-01-01", "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, "sales_2024-01-01_2024-01-03.xlsx", name)

	xl, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows("Sales")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"date", "sales_number", "sales_amount", "referred_sales_number", "referred_sales_amount"}, rows[0])
	assert.Equal(t, "2024-01-02", rows[2][0])
	assert.Equal(t, "0", rows[2][1])
	assert.Equal(t, "150", rows[1][2])
}

func TestSalesService_ExportRejectsBadRange(t *testing.T) {
	f := newServiceFixture("2024-01-10")

	_, _, err := f.sales.ExportXLSX(context.Background(), "2024-01-05", "2024-01-01")
	assert.ErrorIs(t, err, ErrInvalidRange)
}
