package repository

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loyaltydesk/backoffice/internal/model"
)

const (
	CustomerSearchLimit = 10
	InvoiceSearchLimit  = 20
)

// CustomerField selects which customer columns a text query is matched against.
type CustomerField string

const (
	CustomerFieldAny   CustomerField = "any"
	CustomerFieldName  CustomerField = "name"
	CustomerFieldPhone CustomerField = "phone"
)

// ParseCustomerField maps unknown or empty input to CustomerFieldAny.
func ParseCustomerField(s string) CustomerField {
	switch f := CustomerField(strings.ToLower(strings.TrimSpace(s))); f {
	case CustomerFieldName, CustomerFieldPhone:
		return f
	}
	return CustomerFieldAny
}

type CustomerFilter struct {
	Query string
	Field CustomerField
	Limit int
}

// InvoiceField selects which invoice columns a text query is matched against.
type InvoiceField string

const (
	InvoiceFieldAny      InvoiceField = "any"
	InvoiceFieldID       InvoiceField = "id"
	InvoiceFieldCustomer InvoiceField = "customer"
	InvoiceFieldPhone    InvoiceField = "phone"
	InvoiceFieldReferrer InvoiceField = "referrer"
)

// ParseInvoiceField maps unknown or empty input to InvoiceFieldAny. "iid" is accepted
// as an alias of "id".
func ParseInvoiceField(s string) InvoiceField {
	switch f := InvoiceField(strings.ToLower(strings.TrimSpace(s))); f {
	case InvoiceFieldID, InvoiceFieldCustomer, InvoiceFieldPhone, InvoiceFieldReferrer:
		return f
	case "iid":
		return InvoiceFieldID
	}
	return InvoiceFieldAny
}

type ReferrerFilter int

const (
	ReferrerAny ReferrerFilter = iota
	ReferrerPresent
	ReferrerAbsent
)

// ParseReferrerFilter understands "yes" and "no"; anything else means no filtering.
func ParseReferrerFilter(s string) ReferrerFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return ReferrerPresent
	case "no", "false", "0":
		return ReferrerAbsent
	}
	return ReferrerAny
}

// InvoiceFilter is a fully typed invoice search. Nil pointers mean "not filtered".
type InvoiceFilter struct {
	Query          string
	Field          InvoiceField
	DateFrom       *time.Time
	DateTo         *time.Time
	AmountMin      *decimal.Decimal
	AmountMax      *decimal.Decimal
	LoyaltyStatus  *model.LoyaltyStatus
	ReferralStatus *model.ReferralStatus
	Referrer       ReferrerFilter
	Limit          int
}

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE wildcards in s
// taken literally.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func limitOr(limit, fallback int) int {
	if limit <= 0 || limit > fallback {
		return fallback
	}
	return limit
}
