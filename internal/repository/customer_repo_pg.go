package repository

import (
	"context"
	"database/sql"
	"strings"

	"gorm.io/gorm"

	"loyaltydesk/backoffice/internal/model"
)

type pgCustomerRepository struct {
	db *gorm.DB
}

func NewPGCustomerRepository(db *gorm.DB) CustomerRepository {
	return &pgCustomerRepository{db: db}
}

func (r *pgCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return conn(ctx, r.db).Create(customer).Error
}

func (r *pgCustomerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	if err := conn(ctx, r.db).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *pgCustomerRepository) Update(ctx context.Context, customer *model.Customer) error {
	res := conn(ctx, r.db).Model(customer).
		Select("name", "phone_number", "updated_at").
		Updates(customer)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the customer. The schema cascades to invoices billed to them and
// nulls referrer_id on invoices they referred.
func (r *pgCustomerRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Delete(&model.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Search matches customers by name and/or phone and orders them by their latest
// invoice, customers without invoices last.
func (r *pgCustomerRepository) Search(ctx context.Context, filter CustomerFilter) ([]model.Customer, error) {
	q := conn(ctx, r.db).Model(&model.Customer{}).
		Select("customers.*").
		Joins("LEFT JOIN invoices ON invoices.customer_id = customers.id").
		Group("customers.id")

	if text := strings.TrimSpace(filter.Query); text != "" {
		like := containsPattern(text)
		switch filter.Field {
		case CustomerFieldName:
			q = q.Where("customers.name ILIKE ?", like)
		case CustomerFieldPhone:
			q = q.Where("customers.phone_number ILIKE ?", like)
		default:
			q = q.Where("(customers.name ILIKE @p OR customers.phone_number ILIKE @p)", sql.Named("p", like))
		}
	}

	var customers []model.Customer
	err := q.Order("MAX(invoices.date) DESC NULLS LAST").
		Order("customers.name").
		Limit(limitOr(filter.Limit, CustomerSearchLimit)).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}
