// Package loyalty derives the loyalty and referral fields of an invoice.
//
// Everything here is pure: callers read the wall clock once, turn it into a calendar day
// with Policy.Today, and pass that day to Apply for every invoice they are about to save.
package loyalty

import (
	"time"

	"github.com/shopspring/decimal"

	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/pkg/dates"
)

const (
	DefaultExpiryDays    = 30
	DefaultPointsDivisor = 100
)

type Policy struct {
	LoyaltyExpiryDays  int
	ReferralExpiryDays int
	LoyaltyDivisor     decimal.Decimal
	ReferralDivisor    decimal.Decimal
	// Location decides which calendar day "now" falls on.
	Location *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		LoyaltyExpiryDays:  DefaultExpiryDays,
		ReferralExpiryDays: DefaultExpiryDays,
		LoyaltyDivisor:     decimal.NewFromInt(DefaultPointsDivisor),
		ReferralDivisor:    decimal.NewFromInt(DefaultPointsDivisor),
		Location:           time.UTC,
	}
}

// Today converts a wall-clock instant into the business calendar day.
func (p Policy) Today(now time.Time) time.Time {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return dates.Day(now.In(loc))
}

// Apply rewrites every derived field of inv from TotalAmount, Date and ReferrerID.
// A claimed status is kept as is; a missing referrer always resets the referral side.
func (p Policy) Apply(inv *model.Invoice, today time.Time) {
	today = dates.Day(today)
	day := dates.Day(inv.Date)
	inv.Date = day

	inv.LoyaltyPoints = Points(inv.TotalAmount, p.LoyaltyDivisor)
	inv.LoyaltyExpirationDate = day.AddDate(0, 0, p.LoyaltyExpiryDays)
	inv.LoyaltyPointsStatus = nextLoyaltyStatus(inv.LoyaltyPointsStatus, inv.LoyaltyExpirationDate, today)

	if !inv.HasReferrer() {
		inv.ReferrerID = nil
		inv.ReferralPoints = decimal.NullDecimal{}
		inv.ReferralExpirationDate = nil
		inv.ReferralPointsStatus = model.ReferralNone
		return
	}

	exp := day.AddDate(0, 0, p.ReferralExpiryDays)
	inv.ReferralPoints = decimal.NewNullDecimal(Points(inv.TotalAmount, p.ReferralDivisor))
	inv.ReferralExpirationDate = &exp
	inv.ReferralPointsStatus = nextReferralStatus(inv.ReferralPointsStatus, exp, today)
}

// Points scales an amount down by divisor and keeps two decimal places.
func Points(amount, divisor decimal.Decimal) decimal.Decimal {
	if divisor.IsZero() {
		return decimal.Zero
	}
	return amount.Div(divisor).RoundBank(2)
}

func nextLoyaltyStatus(current model.LoyaltyStatus, expiresOn, today time.Time) model.LoyaltyStatus {
	if current == model.LoyaltyClaimed {
		return current
	}
	if expiresOn.Before(today) {
		return model.LoyaltyExpired
	}
	return model.LoyaltyActive
}

func nextReferralStatus(current model.ReferralStatus, expiresOn, today time.Time) model.ReferralStatus {
	if current == model.ReferralClaimed {
		return current
	}
	if expiresOn.Before(today) {
		return model.ReferralExpired
	}
	return model.ReferralActive
}
