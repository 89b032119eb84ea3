package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/handler/middleware"
	"loyaltydesk/backoffice/internal/service"
	jwtpkg "loyaltydesk/backoffice/pkg/jwt"
	"loyaltydesk/backoffice/pkg/response"
)

var ErrNoClaims = errors.New("claims not found in context")

func getClaimsFromContext(c *gin.Context) (*jwtpkg.Claims, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return nil, ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return nil, ErrNoClaims
	}
	return claims, nil
}

func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	claims, err := getClaimsFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.Subject)
}

// writeServiceError maps service sentinels onto the response envelope. Anything unknown
// is logged and reported as a 500 with fallback as message.
func writeServiceError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrReferrerNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrCustomerExists),
		errors.Is(err, service.ErrInvoiceExists),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrNoReferral):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrRefreshTokenInvalid):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrUserDisabled):
		response.Forbidden(c, err.Error())
	default:
		logger.Error(fallback,
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalError(c, fallback)
	}
}
