package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/loyalty"
	"loyaltydesk/backoffice/internal/metrics"
	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/internal/repository"
)

type CreateCustomerInput struct {
	ID          string
	Name        string
	PhoneNumber string
}

type UpdateCustomerInput struct {
	Name        *string
	PhoneNumber *string
}

// CustomerDetail is a customer with their invoices and the points they can still claim.
type CustomerDetail struct {
	Customer         model.Customer
	Invoices         []model.Invoice
	ReferredInvoices []model.Invoice
	LoyaltyPoints    decimal.Decimal
	ReferralPoints   decimal.Decimal
}

type CustomerService interface {
	Create(ctx context.Context, in CreateCustomerInput) (*model.Customer, error)
	Update(ctx context.Context, id string, in UpdateCustomerInput) (*model.Customer, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query, field string) ([]model.Customer, error)
	Detail(ctx context.Context, id string) (*CustomerDetail, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	invoiceRepo  repository.InvoiceRepository
	tx           repository.Transactor
	policy       loyalty.Policy
	clock        Clock
	logger       *zap.Logger
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	invoiceRepo repository.InvoiceRepository,
	tx repository.Transactor,
	policy loyalty.Policy,
	clock Clock,
	logger *zap.Logger,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		tx:           tx,
		policy:       policy,
		clock:        clock.orDefault(),
		logger:       logger,
	}
}

func (s *customerService) Create(ctx context.Context, in CreateCustomerInput) (*model.Customer, error) {
	customer := &model.Customer{
		ID:          strings.TrimSpace(in.ID),
		Name:        strings.TrimSpace(in.Name),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}
	if customer.ID == "" || customer.Name == "" || customer.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: id, name and phone number are required", ErrInvalidInput)
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrCustomerExists
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, id string, in UpdateCustomerInput) (*model.Customer, error) {
	customer, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		customer.Name = strings.TrimSpace(*in.Name)
	}
	if in.PhoneNumber != nil {
		customer.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if customer.Name == "" || customer.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: name and phone number must not be empty", ErrInvalidInput)
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		switch {
		case repository.IsUniqueViolation(err):
			return nil, ErrCustomerExists
		case repository.IsNotFound(err):
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

// Delete removes a customer together with the invoices billed to them. Invoices they
// referred lose the referrer and are re-derived before the delete, in the same transaction.
func (s *customerService) Delete(ctx context.Context, id string) error {
	detached := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getCustomer(ctx, id); err != nil {
			return err
		}

		referred, err := s.invoiceRepo.ListByReferrer(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list referred invoices: %w", err)
		}
		today := s.policy.Today(s.clock())
		for i := range referred {
			inv := &referred[i]
			if inv.CustomerID == id {
				continue
			}
			inv.ReferrerID = nil
			inv.Referrer = nil
			s.policy.Apply(inv, today)
			if err := s.invoiceRepo.Save(ctx, inv); err != nil {
				return fmt.Errorf("failed to detach referrer from invoice %s: %w", inv.ID, err)
			}
			detached++
		}

		if err := s.customerRepo.Delete(ctx, id); err != nil {
			if repository.IsNotFound(err) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("customer deleted", zap.String("customer_id", id), zap.Int("detached_referrals", detached))
	return nil
}

func (s *customerService) Search(ctx context.Context, query, field string) ([]model.Customer, error) {
	customers, err := s.customerRepo.Search(ctx, repository.CustomerFilter{
		Query: strings.TrimSpace(query),
		Field: repository.ParseCustomerField(field),
		Limit: repository.CustomerSearchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return customers, nil
}

// Detail re-saves every invoice the customer is billed on or referred, so statuses reflect
// today, and then totals the points still active.
func (s *customerService) Detail(ctx context.Context, id string) (*CustomerDetail, error) {
	detail := &CustomerDetail{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customer, err := s.getCustomer(ctx, id)
		if err != nil {
			return err
		}
		detail.Customer = *customer

		if detail.Invoices, err = s.invoiceRepo.ListByCustomer(ctx, id); err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		if detail.ReferredInvoices, err = s.invoiceRepo.ListByReferrer(ctx, id); err != nil {
			return fmt.Errorf("failed to list referred invoices: %w", err)
		}

		if err := s.recompute(ctx, detail.Invoices, detail.ReferredInvoices); err != nil {
			return err
		}

		loyaltyPoints, err := s.invoiceRepo.SumActiveLoyaltyPoints(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to total loyalty points: %w", err)
		}
		referralPoints, err := s.invoiceRepo.SumActiveReferralPoints(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to total referral points: %w", err)
		}
		detail.LoyaltyPoints = loyaltyPoints.RoundBank(2)
		detail.ReferralPoints = referralPoints.RoundBank(2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// recompute applies the policy to every listed invoice and saves each distinct id once.
// A customer who referred their own invoice shows up in both lists.
func (s *customerService) recompute(ctx context.Context, lists ...[]model.Invoice) error {
	today := s.policy.Today(s.clock())
	saved := make(map[string]struct{})
	for _, list := range lists {
		for i := range list {
			inv := &list[i]
			s.policy.Apply(inv, today)
			if _, ok := saved[inv.ID]; ok {
				continue
			}
			if err := s.invoiceRepo.Save(ctx, inv); err != nil {
				return fmt.Errorf("failed to save invoice %s: %w", inv.ID, err)
			}
			saved[inv.ID] = struct{}{}
		}
	}
	metrics.InvoicesRecomputed.Add(float64(len(saved)))
	s.logger.Debug("invoices recomputed", zap.Int("count", len(saved)))
	return nil
}

func (s *customerService) getCustomer(ctx context.Context, id string) (*model.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return customer, nil
}

var _ CustomerService = (*customerService)(nil)
