package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/service"
	"loyaltydesk/backoffice/pkg/response"
)

type CustomerHandler struct {
	customerService service.CustomerService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, logger: logger}
}

type CreateCustomerRequest struct {
	ID          string `json:"id" binding:"required,max=50"`
	Name        string `json:"name" binding:"required,max=100"`
	PhoneNumber string `json:"phone_number" binding:"required,max=20"`
}

type UpdateCustomerRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=20"`
}

type CustomerSearchRequest struct {
	Q     string `form:"q"`
	Field string `form:"field"`
}

// Search backs the customer autocomplete.
func (h *CustomerHandler) Search(c *gin.Context) {
	var req CustomerSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	customers, err := h.customerService.Search(c.Request.Context(), req.Q, req.Field)
	if err != nil {
		writeServiceError(c, h.logger, err, "customer search failed")
		return
	}

	results := make([]customerSearchResult, 0, len(customers))
	for _, cu := range customers {
		results = append(results, customerSearchResult{ID: cu.ID, Name: cu.Name, Phone: cu.PhoneNumber})
	}
	response.Success(c, gin.H{"results": results})
}

// Detail shows one customer after re-deriving every invoice they appear on.
func (h *CustomerHandler) Detail(c *gin.Context) {
	detail, err := h.customerService.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to load customer")
		return
	}
	response.Success(c, newCustomerDetailView(detail))
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), service.CreateCustomerInput{
		ID:          req.ID,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to create customer")
		return
	}
	response.Created(c, newCustomerView(*customer))
}

func (h *CustomerHandler) Update(c *gin.Context) {
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), c.Param("id"), service.UpdateCustomerInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to update customer")
		return
	}
	response.Success(c, newCustomerView(*customer))
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.customerService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, h.logger, err, "failed to delete customer")
		return
	}
	response.Success(c, nil)
}
