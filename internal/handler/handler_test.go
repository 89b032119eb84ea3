package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/config"
	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/internal/service"
	"loyaltydesk/backoffice/pkg/dates"
	jwtpkg "loyaltydesk/backoffice/pkg/jwt"
)

type fakeAuthService struct {
	service.AuthService
	loginFn func(ctx context.Context, username, password string) (*service.TokenSet, error)
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (*service.TokenSet, error) {
	return f.loginFn(ctx, username, password)
}

type fakeCustomerService struct {
	service.CustomerService
	searchFn func(ctx context.Context, query, field string) ([]model.Customer, error)
	detailFn func(ctx context.Context, id string) (*service.CustomerDetail, error)
	createFn func(ctx context.Context, in service.CreateCustomerInput) (*model.Customer, error)
}

func (f *fakeCustomerService) Search(ctx context.Context, query, field string) ([]model.Customer, error) {
	return f.searchFn(ctx, query, field)
}

func (f *fakeCustomerService) Detail(ctx context.Context, id string) (*service.CustomerDetail, error) {
	return f.detailFn(ctx, id)
}

func (f *fakeCustomerService) Create(ctx context.Context, in service.CreateCustomerInput) (*model.Customer, error) {
	return f.createFn(ctx, in)
}

type fakeInvoiceService struct {
	service.InvoiceService
	searchFn       func(ctx context.Context, q service.InvoiceQuery) ([]model.Invoice, error)
	createFn       func(ctx context.Context, in service.CreateInvoiceInput) (*model.Invoice, error)
	loyaltyClaimFn func(ctx context.Context, id string) (*model.Invoice, error)
	referralFn     func(ctx context.Context, id string) (*model.Invoice, error)
}

func (f *fakeInvoiceService) Search(ctx context.Context, q service.InvoiceQuery) ([]model.Invoice, error) {
	return f.searchFn(ctx, q)
}

func (f *fakeInvoiceService) Create(ctx context.Context, in service.CreateInvoiceInput) (*model.Invoice, error) {
	return f.createFn(ctx, in)
}

func (f *fakeInvoiceService) MarkLoyaltyClaimed(ctx context.Context, id string) (*model.Invoice, error) {
	return f.loyaltyClaimFn(ctx, id)
}

func (f *fakeInvoiceService) MarkReferralClaimed(ctx context.Context, id string) (*model.Invoice, error) {
	return f.referralFn(ctx, id)
}

type fakeSalesService struct {
	dailyFn func(ctx context.Context, start, end string) ([]service.DailySales, error)
}

func (f *fakeSalesService) DailySales(ctx context.Context, start, end string) ([]service.DailySales, error) {
	return f.dailyFn(ctx, start, end)
}

func (f *fakeSalesService) ExportXLSX(ctx context.Context, start, end string) (string, []byte, error) {
	if _, err := f.dailyFn(ctx, start, end); err != nil {
		return "", nil, err
	}
	return "sales_" + start + "_" + end + ".xlsx", []byte("PK"), nil
}

type testEnv struct {
	router   *gin.Engine
	token    string
	auth     *fakeAuthService
	customer *fakeCustomerService
	invoice  *fakeInvoiceService
	sales    *fakeSalesService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := jwtpkg.NewManager("handler-test-key", "loyaltydesk", time.Minute, time.Hour)
	token, err := jwtManager.GenerateAccessToken(uuid.New(), "clerk")
	require.NoError(t, err)

	env := &testEnv{
		token:    token,
		auth:     &fakeAuthService{},
		customer: &fakeCustomerService{},
		invoice:  &fakeInvoiceService{},
		sales:    &fakeSalesService{},
	}
	logger := zap.NewNop()
	router, err := SetupRouter(&config.Config{}, logger, jwtManager, Handlers{
		Auth:     NewAuthHandler(env.auth, logger),
		Customer: NewCustomerHandler(env.customer, logger),
		Invoice:  NewInvoiceHandler(env.invoice, logger),
		Sales:    NewSalesHandler(env.sales, logger),
	})
	require.NoError(t, err)
	env.router = router
	return env
}

func (e *testEnv) do(method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.auth.loginFn = func(_ context.Context, username, password string) (*service.TokenSet, error) {
		if username == "clerk" && password == "correct-horse" {
			return &service.TokenSet{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, nil
		}
		return nil, service.ErrInvalidCredentials
	}

	w := env.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "clerk", "password": "correct-horse"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"a"`)

	w = env.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "clerk", "password": "nope"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "clerk"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJSONAPIsRequireSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/customers/search?q=a",
		"/api/v1/invoices/search?q=a",
		"/api/v1/sales?start=2024-01-01&end=2024-01-02",
	} {
		w := env.do(http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestPagesShowPlaceholderWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/home"},
		{http.MethodGet, "/api/v1/customer/C1"},
		{http.MethodPost, "/api/v1/invoice/INV-1/loyalty/claim"},
		{http.MethodPost, "/api/v1/invoices"},
	} {
		w := env.do(tc.method, tc.path, nil, false)
		require.Equal(t, http.StatusOK, w.Code, tc.path)
		body := decode(t, w)
		assert.Equal(t, "not logged in", body.Message, tc.path)
		assert.JSONEq(t, `{"logged_in":false}`, string(body.Data), tc.path)
	}
}

func TestHome(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/home", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"logged_in":true,"username":"clerk"}`, string(decode(t, w).Data))
}

func TestCustomerSearch(t *testing.T) {
	env := newTestEnv(t)
	env.customer.searchFn = func(_ context.Context, query, field string) ([]model.Customer, error) {
		assert.Equal(t, "ash", query)
		assert.Equal(t, "name", field)
		return []model.Customer{{ID: "C1", Name: "Asha", PhoneNumber: "9000000001"}}, nil
	}

	w := env.do(http.MethodGet, "/api/v1/customers/search?q=ash&field=name", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[{"id":"C1","name":"Asha","phone":"9000000001"}]}`, string(decode(t, w).Data))
}

func TestInvoiceSearch(t *testing.T) {
	env := newTestEnv(t)
	env.invoice.searchFn = func(_ context.Context, q service.InvoiceQuery) ([]model.Invoice, error) {
		assert.Equal(t, "claimed", q.LoyaltyStatus)
		assert.Equal(t, "yes", q.HasReferrer)
		return []model.Invoice{
			{
				ID: "INV-1", Date: dates.Day(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
				TotalAmount:          decimal.RequireFromString("12.50"),
				Customer:             &model.Customer{Name: "Asha", PhoneNumber: "9000000001"},
				Referrer:             &model.Customer{Name: "Bilal"},
				LoyaltyPointsStatus:  model.LoyaltyClaimed,
				ReferralPointsStatus: model.ReferralActive,
			},
			{
				ID: "INV-2", Date: dates.Day(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)),
				TotalAmount:          decimal.NewFromInt(3),
				Customer:             &model.Customer{Name: "Asha", PhoneNumber: "9000000001"},
				LoyaltyPointsStatus:  model.LoyaltyClaimed,
				ReferralPointsStatus: model.ReferralNone,
			},
		}, nil
	}

	w := env.do(http.MethodGet, "/api/v1/invoices/search?loyalty_status=claimed&has_referrer=yes", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	require.Len(t, data.Results, 2)
	assert.Equal(t, "2024-01-05", data.Results[0]["date"])
	assert.Equal(t, "12.5", data.Results[0]["total_amount"])
	assert.Equal(t, "Bilal", data.Results[0]["referrer_name"])
	assert.Equal(t, "9000000001", data.Results[0]["customer_phone"])
	assert.Nil(t, data.Results[1]["referrer_name"])
	assert.Equal(t, "no_referral", data.Results[1]["referral_points_status"])
}

func TestClaimResponses(t *testing.T) {
	env := newTestEnv(t)
	env.invoice.loyaltyClaimFn = func(_ context.Context, id string) (*model.Invoice, error) {
		switch id {
		case "fresh":
			return &model.Invoice{ID: id}, nil
		case "done":
			return nil, service.ErrAlreadyClaimed
		}
		return nil, service.ErrInvoiceNotFound
	}
	env.invoice.referralFn = func(_ context.Context, id string) (*model.Invoice, error) {
		return nil, service.ErrNoReferral
	}

	w := env.do(http.MethodPost, "/api/v1/invoice/fresh/loyalty/claim", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, string(decode(t, w).Data))

	w = env.do(http.MethodPost, "/api/v1/invoice/done/loyalty/claim", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.JSONEq(t, `{"status":"already_claimed"}`, string(body.Data))
	assert.Equal(t, service.ErrAlreadyClaimed.Error(), body.Message)

	w = env.do(http.MethodPost, "/api/v1/invoice/missing/loyalty/claim", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/v1/invoice/any/referral/claim", nil, true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSales(t *testing.T) {
	env := newTestEnv(t)
	env.sales.dailyFn = func(_ context.Context, start, end string) ([]service.DailySales, error) {
		if start == "" || end < start {
			return nil, service.ErrInvalidRange
		}
		return []service.DailySales{
			{Day: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Count: 2, Amount: decimal.NewFromInt(150), ReferredCount: 1, ReferredAmount: decimal.RequireFromString("50.25")},
			{Day: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		}, nil
	}

	w := env.do(http.MethodGet, "/api/v1/sales?start=2024-01-01&end=2024-01-02", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"labels": ["2024-01-01", "2024-01-02"],
		"sales_amount": [150, 0],
		"referred_sales_amount": [50.25, 0],
		"sales_number": [2, 0],
		"referred_sales_number": [1, 0]
	}`, string(decode(t, w).Data))

	w = env.do(http.MethodGet, "/api/v1/sales?end=2024-01-02", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/v1/sales?start=2024-01-05&end=2024-01-01", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSalesExport(t *testing.T) {
	env := newTestEnv(t)
	env.sales.dailyFn = func(context.Context, string, string) ([]service.DailySales, error) { return nil, nil }

	w := env.do(http.MethodGet, "/api/v1/sales/export?start=2024-01-01&end=2024-01-31", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sales_2024-01-01_2024-01-31.xlsx")
}

func TestCreateInvoiceValidatesDate(t *testing.T) {
	env := newTestEnv(t)
	env.invoice.createFn = func(_ context.Context, in service.CreateInvoiceInput) (*model.Invoice, error) {
		return &model.Invoice{ID: in.ID, CustomerID: in.CustomerID, Date: in.Date, TotalAmount: in.TotalAmount}, nil
	}

	w := env.do(http.MethodPost, "/api/v1/invoices", gin.H{
		"id": "INV-9", "customer_id": "C1", "date": "05/01/2024", "total_amount": "10",
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/invoices", gin.H{
		"id": "INV-9", "customer_id": "C1", "date": "2024-01-05", "total_amount": "10",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2024-01-05"`)
}

func TestCreateCustomerConflict(t *testing.T) {
	env := newTestEnv(t)
	env.customer.createFn = func(context.Context, service.CreateCustomerInput) (*model.Customer, error) {
		return nil, service.ErrCustomerExists
	}

	w := env.do(http.MethodPost, "/api/v1/customers", gin.H{"id": "C1", "name": "Asha", "phone_number": "1"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUnexpectedErrorIs500(t *testing.T) {
	env := newTestEnv(t)
	env.customer.detailFn = func(context.Context, string) (*service.CustomerDetail, error) {
		return nil, errors.New("db down")
	}

	w := env.do(http.MethodGet, "/api/v1/customer/C1", nil, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}
