package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/internal/service"
	"loyaltydesk/backoffice/pkg/dates"
	"loyaltydesk/backoffice/pkg/response"
)

const (
	claimStatusSuccess        = "success"
	claimStatusAlreadyClaimed = "already_claimed"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *zap.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, logger: logger}
}

type CreateInvoiceRequest struct {
	ID          string          `json:"id" binding:"required,max=50"`
	CustomerID  string          `json:"customer_id" binding:"required,max=50"`
	Date        string          `json:"date" binding:"required,isodate"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ReferrerID  string          `json:"referrer_id" binding:"max=50"`
	Items       string          `json:"items"`
}

// UpdateInvoiceRequest changes only the fields present. An empty referrer_id removes the referrer.
type UpdateInvoiceRequest struct {
	Date        *string          `json:"date" binding:"omitempty,isodate"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	ReferrerID  *string          `json:"referrer_id" binding:"omitempty,max=50"`
	Items       *string          `json:"items"`
}

type InvoiceSearchRequest struct {
	Q              string `form:"q"`
	Field          string `form:"field"`
	DateFrom       string `form:"date_from"`
	DateTo         string `form:"date_to"`
	AmountMin      string `form:"amount_min"`
	AmountMax      string `form:"amount_max"`
	LoyaltyStatus  string `form:"loyalty_status"`
	ReferralStatus string `form:"referral_status"`
	HasReferrer    string `form:"has_referrer"`
}

func (h *InvoiceHandler) Search(c *gin.Context) {
	var req InvoiceSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	invoices, err := h.invoiceService.Search(c.Request.Context(), service.InvoiceQuery(req))
	if err != nil {
		writeServiceError(c, h.logger, err, "invoice search failed")
		return
	}

	results := make([]invoiceSearchResult, 0, len(invoices))
	for _, inv := range invoices {
		results = append(results, newInvoiceSearchResult(inv))
	}
	response.Success(c, gin.H{"results": results})
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.invoiceService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to load invoice")
		return
	}
	response.Success(c, newInvoiceView(*invoice))
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	day, err := dates.Parse(req.Date)
	if err != nil {
		response.BadRequest(c, "invalid date")
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), service.CreateInvoiceInput{
		ID:          req.ID,
		CustomerID:  req.CustomerID,
		Date:        day,
		TotalAmount: req.TotalAmount,
		ReferrerID:  req.ReferrerID,
		Items:       req.Items,
	})
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to create invoice")
		return
	}
	response.Created(c, newInvoiceView(*invoice))
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := service.UpdateInvoiceInput{
		TotalAmount: req.TotalAmount,
		ReferrerID:  req.ReferrerID,
		Items:       req.Items,
	}
	if req.Date != nil {
		day, err := dates.Parse(*req.Date)
		if err != nil {
			response.BadRequest(c, "invalid date")
			return
		}
		in.Date = &day
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to update invoice")
		return
	}
	response.Success(c, newInvoiceView(*invoice))
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	if err := h.invoiceService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, h.logger, err, "failed to delete invoice")
		return
	}
	response.Success(c, nil)
}

func (h *InvoiceHandler) ClaimLoyalty(c *gin.Context) {
	h.claim(c, h.invoiceService.MarkLoyaltyClaimed)
}

func (h *InvoiceHandler) ClaimReferral(c *gin.Context) {
	h.claim(c, h.invoiceService.MarkReferralClaimed)
}

// claim answers {"status": "success"} or, when nothing changed, a warning carrying
// {"status": "already_claimed"}. Both are 200.
func (h *InvoiceHandler) claim(c *gin.Context, mark func(ctx context.Context, id string) (*model.Invoice, error)) {
	_, err := mark(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		response.Success(c, gin.H{"status": claimStatusSuccess})
	case errors.Is(err, service.ErrAlreadyClaimed):
		response.Warning(c, err.Error(), gin.H{"status": claimStatusAlreadyClaimed})
	default:
		writeServiceError(c, h.logger, err, "claim failed")
	}
}
