package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/internal/service"
	"loyaltydesk/backoffice/pkg/dates"
)

type customerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

func newCustomerView(c model.Customer) customerView {
	return customerView{ID: c.ID, Name: c.Name, PhoneNumber: c.PhoneNumber}
}

// customerSearchResult is the compact row returned by customer autocomplete.
type customerSearchResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type invoiceSearchResult struct {
	ID                   string               `json:"id"`
	CustomerName         string               `json:"customer_name"`
	CustomerPhone        string               `json:"customer_phone"`
	Date                 string               `json:"date"`
	TotalAmount          decimal.Decimal      `json:"total_amount"`
	ReferrerName         *string              `json:"referrer_name"`
	LoyaltyPointsStatus  model.LoyaltyStatus  `json:"loyalty_points_status"`
	ReferralPointsStatus model.ReferralStatus `json:"referral_points_status"`
}

func newInvoiceSearchResult(inv model.Invoice) invoiceSearchResult {
	r := invoiceSearchResult{
		ID:                   inv.ID,
		Date:                 dates.Format(inv.Date),
		TotalAmount:          inv.TotalAmount,
		LoyaltyPointsStatus:  inv.LoyaltyPointsStatus,
		ReferralPointsStatus: inv.ReferralPointsStatus,
	}
	if inv.Customer != nil {
		r.CustomerName = inv.Customer.Name
		r.CustomerPhone = inv.Customer.PhoneNumber
	}
	if inv.Referrer != nil {
		name := inv.Referrer.Name
		r.ReferrerName = &name
	}
	return r
}

type invoiceView struct {
	ID                     string               `json:"id"`
	CustomerID             string               `json:"customer_id"`
	CustomerName           string               `json:"customer_name,omitempty"`
	Date                   string               `json:"date"`
	TotalAmount            decimal.Decimal      `json:"total_amount"`
	Items                  string               `json:"items"`
	ReferrerID             *string              `json:"referrer_id"`
	ReferrerName           *string              `json:"referrer_name"`
	LoyaltyPoints          decimal.Decimal      `json:"loyalty_points"`
	LoyaltyExpirationDate  string               `json:"loyalty_expiration_date"`
	LoyaltyPointsStatus    model.LoyaltyStatus  `json:"loyalty_points_status"`
	ReferralPoints         decimal.NullDecimal  `json:"referral_points"`
	ReferralExpirationDate *string              `json:"referral_expiration_date"`
	ReferralPointsStatus   model.ReferralStatus `json:"referral_points_status"`
}

func newInvoiceView(inv model.Invoice) invoiceView {
	v := invoiceView{
		ID:                     inv.ID,
		CustomerID:             inv.CustomerID,
		Date:                   dates.Format(inv.Date),
		TotalAmount:            inv.TotalAmount,
		Items:                  inv.Items,
		ReferrerID:             inv.ReferrerID,
		LoyaltyPoints:          inv.LoyaltyPoints,
		LoyaltyExpirationDate:  dates.Format(inv.LoyaltyExpirationDate),
		LoyaltyPointsStatus:    inv.LoyaltyPointsStatus,
		ReferralPoints:         inv.ReferralPoints,
		ReferralExpirationDate: formatOptionalDay(inv.ReferralExpirationDate),
		ReferralPointsStatus:   inv.ReferralPointsStatus,
	}
	if inv.Customer != nil {
		v.CustomerName = inv.Customer.Name
	}
	if inv.Referrer != nil {
		name := inv.Referrer.Name
		v.ReferrerName = &name
	}
	return v
}

func newInvoiceViews(invoices []model.Invoice) []invoiceView {
	views := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, newInvoiceView(inv))
	}
	return views
}

func formatOptionalDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dates.Format(*t)
	return &s
}

type customerDetailView struct {
	Customer         customerView    `json:"customer"`
	Invoices         []invoiceView   `json:"invoices"`
	ReferredInvoices []invoiceView   `json:"referred_invoices"`
	LoyaltyPoints    decimal.Decimal `json:"loyalty_points"`
	ReferralPoints   decimal.Decimal `json:"referral_points"`
}

func newCustomerDetailView(d *service.CustomerDetail) customerDetailView {
	return customerDetailView{
		Customer:         newCustomerView(d.Customer),
		Invoices:         newInvoiceViews(d.Invoices),
		ReferredInvoices: newInvoiceViews(d.ReferredInvoices),
		LoyaltyPoints:    d.LoyaltyPoints,
		ReferralPoints:   d.ReferralPoints,
	}
}

// salesSeries is the chart payload: parallel arrays indexed by day.
// Amounts are JSON numbers.
type salesSeries struct {
	Labels              []string      `json:"labels"`
	SalesAmount         []json.Number `json:"sales_amount"`
	ReferredSalesAmount []json.Number `json:"referred_sales_amount"`
	SalesNumber         []int64       `json:"sales_number"`
	ReferredSalesNumber []int64       `json:"referred_sales_number"`
}

func newSalesSeries(days []service.DailySales) salesSeries {
	s := salesSeries{
		Labels:              make([]string, 0, len(days)),
		SalesAmount:         make([]json.Number, 0, len(days)),
		ReferredSalesAmount: make([]json.Number, 0, len(days)),
		SalesNumber:         make([]int64, 0, len(days)),
		ReferredSalesNumber: make([]int64, 0, len(days)),
	}
	for _, d := range days {
		s.Labels = append(s.Labels, dates.Format(d.Day))
		s.SalesAmount = append(s.SalesAmount, json.Number(d.Amount.String()))
		s.ReferredSalesAmount = append(s.ReferredSalesAmount, json.Number(d.ReferredAmount.String()))
		s.SalesNumber = append(s.SalesNumber, d.Count)
		s.ReferredSalesNumber = append(s.ReferredSalesNumber, d.ReferredCount)
	}
	return s
}
