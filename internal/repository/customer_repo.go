package repository

import (
	"context"

	"loyaltydesk/backoffice/internal/model"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter CustomerFilter) ([]model.Customer, error)
}
