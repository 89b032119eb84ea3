package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"loyaltydesk/backoffice/internal/loyalty"
	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/internal/repository"
	"loyaltydesk/backoffice/pkg/dates"
)

// fakeStore keeps customers and invoices in memory. Both fake repositories share it so
// that joins (customer on invoice, referrer on invoice) behave like the real tables.
type fakeStore struct {
	mu        sync.Mutex
	customers map[string]model.Customer
	invoices  map[string]model.Invoice
	saves     []string

	saveFn func(inv *model.Invoice) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: make(map[string]model.Customer),
		invoices:  make(map[string]model.Invoice),
	}
}

func (s *fakeStore) addCustomer(id, name, phone string) {
	s.customers[id] = model.Customer{ID: id, Name: name, PhoneNumber: phone}
}

// addInvoice stores inv as-is; derived fields are whatever the caller put there.
func (s *fakeStore) addInvoice(inv model.Invoice) {
	inv.Customer = nil
	inv.Referrer = nil
	s.invoices[inv.ID] = inv
}

func (s *fakeStore) invoice(id string) model.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoices[id]
}

func (s *fakeStore) hydrate(inv model.Invoice) model.Invoice {
	if c, ok := s.customers[inv.CustomerID]; ok {
		cc := c
		inv.Customer = &cc
	}
	if inv.ReferrerID != nil {
		if r, ok := s.customers[*inv.ReferrerID]; ok {
			rr := r
			inv.Referrer = &rr
		}
	}
	return inv
}

func (s *fakeStore) sortedInvoices(keep func(model.Invoice) bool) []model.Invoice {
	out := make([]model.Invoice, 0)
	for _, inv := range s.invoices {
		if keep(inv) {
			out = append(out, s.hydrate(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type fakeCustomerRepo struct{ *fakeStore }

func (r fakeCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	for _, other := range r.customers {
		if other.PhoneNumber == c.PhoneNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	r.customers[c.ID] = *c
	return nil
}

func (r fakeCustomerRepo) GetByID(_ context.Context, id string) (*model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r fakeCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for id, other := range r.customers {
		if id != c.ID && other.PhoneNumber == c.PhoneNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	r.customers[c.ID] = *c
	return nil
}

// Delete mirrors the foreign keys: billed invoices cascade, referrals are set to NULL.
func (r fakeCustomerRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.customers, id)
	for invID, inv := range r.invoices {
		switch {
		case inv.CustomerID == id:
			delete(r.invoices, invID)
		case inv.ReferrerID != nil && *inv.ReferrerID == id:
			inv.ReferrerID = nil
			r.invoices[invID] = inv
		}
	}
	return nil
}

func (r fakeCustomerRepo) Search(_ context.Context, f repository.CustomerFilter) ([]model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Customer, 0)
	for _, c := range r.customers {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Query)) ||
			strings.Contains(c.PhoneNumber, f.Query) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type fakeInvoiceRepo struct{ *fakeStore }

func (r fakeInvoiceRepo) Create(_ context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.addInvoice(*inv)
	return nil
}

func (r fakeInvoiceRepo) Save(_ context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveFn != nil {
		if err := r.saveFn(inv); err != nil {
			return err
		}
	}
	r.saves = append(r.saves, inv.ID)
	r.addInvoice(*inv)
	return nil
}

func (r fakeInvoiceRepo) GetByID(_ context.Context, id string) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	inv = r.hydrate(inv)
	return &inv, nil
}

func (r fakeInvoiceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.invoices, id)
	return nil
}

func (r fakeInvoiceRepo) ListByCustomer(_ context.Context, customerID string) ([]model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedInvoices(func(inv model.Invoice) bool { return inv.CustomerID == customerID }), nil
}

func (r fakeInvoiceRepo) ListByReferrer(_ context.Context, referrerID string) ([]model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedInvoices(func(inv model.Invoice) bool {
		return inv.ReferrerID != nil && *inv.ReferrerID == referrerID
	}), nil
}

func (r fakeInvoiceRepo) Search(_ context.Context, f repository.InvoiceFilter) ([]model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedInvoices(func(inv model.Invoice) bool {
		return f.Query == "" || strings.Contains(inv.ID, f.Query)
	}), nil
}

func (r fakeInvoiceRepo) SumActiveLoyaltyPoints(_ context.Context, customerID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, inv := range r.invoices {
		if inv.CustomerID == customerID && inv.LoyaltyPointsStatus == model.LoyaltyActive {
			total = total.Add(inv.LoyaltyPoints)
		}
	}
	return total, nil
}

func (r fakeInvoiceRepo) SumActiveReferralPoints(_ context.Context, referrerID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, inv := range r.invoices {
		if inv.ReferrerID != nil && *inv.ReferrerID == referrerID &&
			inv.ReferralPointsStatus == model.ReferralActive && inv.ReferralPoints.Valid {
			total = total.Add(inv.ReferralPoints.Decimal)
		}
	}
	return total, nil
}

func (r fakeInvoiceRepo) DailyTotals(_ context.Context, start, end time.Time) ([]repository.DayTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDay := make(map[string]*repository.DayTotals)
	for _, inv := range r.invoices {
		if inv.Date.Before(start) || inv.Date.After(end) {
			continue
		}
		key := dates.Format(inv.Date)
		t, ok := byDay[key]
		if !ok {
			t = &repository.DayTotals{Day: dates.Day(inv.Date)}
			byDay[key] = t
		}
		t.Count++
		t.Amount = t.Amount.Add(inv.TotalAmount)
		if inv.ReferrerID != nil {
			t.ReferredCount++
			t.ReferredAmount = t.ReferredAmount.Add(inv.TotalAmount)
		}
	}
	out := make([]repository.DayTotals, 0, len(byDay))
	for _, t := range byDay {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

type fakeTx struct{ calls int }

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.users {
		if strings.EqualFold(other.Username, u.Username) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			uu := u
			return &uu, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastLoginAt = &at
	r.users[id] = u
	return nil
}

func day(s string) time.Time {
	d, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedClock(s string) Clock {
	t := day(s).Add(12 * time.Hour)
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

type serviceFixture struct {
	store     *fakeStore
	tx        *fakeTx
	customers CustomerService
	invoices  InvoiceService
	sales     SalesService
}

func newServiceFixture(today string) *serviceFixture {
	store := newFakeStore()
	tx := &fakeTx{}
	policy := loyalty.DefaultPolicy()
	clock := fixedClock(today)
	logger := zap.NewNop()
	return &serviceFixture{
		store:     store,
		tx:        tx,
		customers: NewCustomerService(fakeCustomerRepo{store}, fakeInvoiceRepo{store}, tx, policy, clock, logger),
		invoices:  NewInvoiceService(fakeInvoiceRepo{store}, fakeCustomerRepo{store}, tx, policy, clock, logger),
		sales:     NewSalesService(fakeInvoiceRepo{store}, 0),
	}
}
