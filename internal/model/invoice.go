package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoyaltyStatus string

const (
	LoyaltyActive  LoyaltyStatus = "active"
	LoyaltyClaimed LoyaltyStatus = "claimed"
	LoyaltyExpired LoyaltyStatus = "expired"
)

// ParseLoyaltyStatus accepts only the three stored values.
func ParseLoyaltyStatus(s string) (LoyaltyStatus, bool) {
	switch st := LoyaltyStatus(s); st {
	case LoyaltyActive, LoyaltyClaimed, LoyaltyExpired:
		return st, true
	}
	return "", false
}

type ReferralStatus string

const (
	ReferralNone    ReferralStatus = "no_referral"
	ReferralActive  ReferralStatus = "active"
	ReferralClaimed ReferralStatus = "claimed"
	ReferralExpired ReferralStatus = "expired"
)

// ParseReferralStatus also accepts the legacy spelling "noreferral".
func ParseReferralStatus(s string) (ReferralStatus, bool) {
	if s == "noreferral" {
		return ReferralNone, true
	}
	switch st := ReferralStatus(s); st {
	case ReferralNone, ReferralActive, ReferralClaimed, ReferralExpired:
		return st, true
	}
	return "", false
}

// Invoice holds the billed amount plus the loyalty and referral fields derived from it.
// The derived fields are owned by the loyalty package and are rewritten on every save.
type Invoice struct {
	ID          string          `gorm:"type:varchar(50);primaryKey" json:"id"`
	CustomerID  string          `gorm:"type:varchar(50);not null;index" json:"customer_id"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	ReferrerID  *string         `gorm:"type:varchar(50);index" json:"referrer_id"`
	Items       string          `gorm:"type:text" json:"items"`

	LoyaltyPoints         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"loyalty_points"`
	LoyaltyExpirationDate time.Time       `gorm:"type:date;not null" json:"loyalty_expiration_date"`
	LoyaltyPointsStatus   LoyaltyStatus   `gorm:"type:varchar(20);not null;index" json:"loyalty_points_status"`

	ReferralPoints         decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"referral_points"`
	ReferralExpirationDate *time.Time          `gorm:"type:date" json:"referral_expiration_date"`
	ReferralPointsStatus   ReferralStatus      `gorm:"type:varchar(20);not null;index" json:"referral_points_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"customer,omitempty"`
	Referrer *Customer `gorm:"foreignKey:ReferrerID;constraint:OnDelete:SET NULL" json:"referrer,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

func (i *Invoice) HasReferrer() bool {
	return i.ReferrerID != nil && *i.ReferrerID != ""
}
