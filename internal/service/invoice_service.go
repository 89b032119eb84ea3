package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/loyalty"
	"loyaltydesk/backoffice/internal/metrics"
	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/internal/repository"
)

type CreateInvoiceInput struct {
	ID          string
	CustomerID  string
	Date        time.Time
	TotalAmount decimal.Decimal
	ReferrerID  string
	Items       string
}

// UpdateInvoiceInput changes only the non-nil fields. An empty ReferrerID removes the referrer.
type UpdateInvoiceInput struct {
	Date        *time.Time
	TotalAmount *decimal.Decimal
	ReferrerID  *string
	Items       *string
}

type InvoiceService interface {
	Create(ctx context.Context, in CreateInvoiceInput) (*model.Invoice, error)
	Update(ctx context.Context, id string, in UpdateInvoiceInput) (*model.Invoice, error)
	Get(ctx context.Context, id string) (*model.Invoice, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q InvoiceQuery) ([]model.Invoice, error)
	MarkLoyaltyClaimed(ctx context.Context, id string) (*model.Invoice, error)
	MarkReferralClaimed(ctx context.Context, id string) (*model.Invoice, error)
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	tx           repository.Transactor
	policy       loyalty.Policy
	clock        Clock
	logger       *zap.Logger
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	tx repository.Transactor,
	policy loyalty.Policy,
	clock Clock,
	logger *zap.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		tx:           tx,
		policy:       policy,
		clock:        clock.orDefault(),
		logger:       logger,
	}
}

func (s *invoiceService) Create(ctx context.Context, in CreateInvoiceInput) (*model.Invoice, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.ReferrerID = strings.TrimSpace(in.ReferrerID)
	if in.ID == "" || in.CustomerID == "" {
		return nil, fmt.Errorf("%w: invoice id and customer id are required", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: invoice date is required", ErrInvalidInput)
	}
	if err := validateAmount(in.TotalAmount); err != nil {
		return nil, err
	}

	invoice := &model.Invoice{
		ID:          in.ID,
		CustomerID:  in.CustomerID,
		Date:        in.Date,
		TotalAmount: in.TotalAmount,
		Items:       in.Items,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customer, err := s.customerRepo.GetByID(ctx, in.CustomerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to find customer: %w", err)
		}
		invoice.Customer = customer

		if in.ReferrerID != "" {
			referrer, err := s.findReferrer(ctx, in.ReferrerID)
			if err != nil {
				return err
			}
			invoice.ReferrerID = &referrer.ID
			invoice.Referrer = referrer
		}

		s.policy.Apply(invoice, s.today())
		if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrInvoiceExists
			}
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) Update(ctx context.Context, id string, in UpdateInvoiceInput) (*model.Invoice, error) {
	if in.TotalAmount != nil {
		if err := validateAmount(*in.TotalAmount); err != nil {
			return nil, err
		}
	}
	if in.Date != nil && in.Date.IsZero() {
		return nil, fmt.Errorf("%w: invoice date is required", ErrInvalidInput)
	}

	var invoice *model.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.getInvoice(ctx, id)
		if err != nil {
			return err
		}

		if in.Date != nil {
			invoice.Date = *in.Date
		}
		if in.TotalAmount != nil {
			invoice.TotalAmount = *in.TotalAmount
		}
		if in.Items != nil {
			invoice.Items = *in.Items
		}
		if in.ReferrerID != nil {
			referrerID := strings.TrimSpace(*in.ReferrerID)
			if referrerID == "" {
				invoice.ReferrerID = nil
				invoice.Referrer = nil
			} else {
				referrer, err := s.findReferrer(ctx, referrerID)
				if err != nil {
					return err
				}
				invoice.ReferrerID = &referrer.ID
				invoice.Referrer = referrer
			}
		}

		return s.save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// maxAmount is the first value a decimal(10,2) column cannot hold.
var maxAmount = decimal.New(1, 8)

// validateAmount rejects totals the invoices table would round or overflow.
func validateAmount(amount decimal.Decimal) error {
	switch {
	case amount.IsNegative():
		return fmt.Errorf("%w: total amount must not be negative", ErrInvalidInput)
	case !amount.Equal(amount.Round(2)):
		return fmt.Errorf("%w: total amount must have at most 2 decimal places", ErrInvalidInput)
	case amount.GreaterThanOrEqual(maxAmount):
		return fmt.Errorf("%w: total amount must be below %s", ErrInvalidInput, maxAmount)
	}
	return nil
}

func (s *invoiceService) Get(ctx context.Context, id string) (*model.Invoice, error) {
	return s.getInvoice(ctx, id)
}

func (s *invoiceService) Delete(ctx context.Context, id string) error {
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	s.logger.Info("invoice deleted", zap.String("invoice_id", id))
	return nil
}

func (s *invoiceService) Search(ctx context.Context, q InvoiceQuery) ([]model.Invoice, error) {
	invoices, err := s.invoiceRepo.Search(ctx, ParseInvoiceFilter(q))
	if err != nil {
		return nil, fmt.Errorf("failed to search invoices: %w", err)
	}
	return invoices, nil
}

// MarkLoyaltyClaimed flips the loyalty status to claimed. It returns ErrAlreadyClaimed,
// without writing, when the points were claimed before.
func (s *invoiceService) MarkLoyaltyClaimed(ctx context.Context, id string) (*model.Invoice, error) {
	return s.claim(ctx, id, "loyalty", func(inv *model.Invoice) error {
		if inv.LoyaltyPointsStatus == model.LoyaltyClaimed {
			return ErrAlreadyClaimed
		}
		inv.LoyaltyPointsStatus = model.LoyaltyClaimed
		return nil
	})
}

// MarkReferralClaimed flips the referral status to claimed. Invoices without a referrer
// have nothing to claim and yield ErrNoReferral.
func (s *invoiceService) MarkReferralClaimed(ctx context.Context, id string) (*model.Invoice, error) {
	return s.claim(ctx, id, "referral", func(inv *model.Invoice) error {
		switch {
		case !inv.HasReferrer():
			return ErrNoReferral
		case inv.ReferralPointsStatus == model.ReferralClaimed:
			return ErrAlreadyClaimed
		}
		inv.ReferralPointsStatus = model.ReferralClaimed
		return nil
	})
}

// claim sets the status through mark and then saves. The save re-derives every field,
// which keeps the claimed flag because claimed is sticky.
func (s *invoiceService) claim(ctx context.Context, id, kind string, mark func(*model.Invoice) error) (*model.Invoice, error) {
	var invoice *model.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.getInvoice(ctx, id)
		if err != nil {
			return err
		}
		if err := mark(invoice); err != nil {
			return err
		}
		return s.save(ctx, invoice)
	})

	metrics.ClaimsTotal.WithLabelValues(kind, claimOutcome(err)).Inc()
	switch {
	case err == nil:
		s.logger.Info("points claimed", zap.String("kind", kind), zap.String("invoice_id", id))
	case errors.Is(err, ErrAlreadyClaimed):
		s.logger.Warn("points already claimed", zap.String("kind", kind), zap.String("invoice_id", id))
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return "claimed"
	case errors.Is(err, ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, ErrInvoiceNotFound):
		return "not_found"
	case errors.Is(err, ErrNoReferral):
		return "no_referral"
	}
	return "error"
}

func (s *invoiceService) save(ctx context.Context, invoice *model.Invoice) error {
	s.policy.Apply(invoice, s.today())
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (s *invoiceService) getInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) findReferrer(ctx context.Context, id string) (*model.Customer, error) {
	referrer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReferrerNotFound
		}
		return nil, fmt.Errorf("failed to find referrer: %w", err)
	}
	return referrer, nil
}

func (s *invoiceService) today() time.Time {
	return s.policy.Today(s.clock())
}

var _ InvoiceService = (*invoiceService)(nil)
