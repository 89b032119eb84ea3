package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/service"
	"loyaltydesk/backoffice/pkg/response"
)

type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tokenSet, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(c, h.logger, err, "login failed")
		return
	}

	response.Success(c, tokenSet)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tokenSet, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(c, h.logger, err, "token refresh failed")
		return
	}

	response.Success(c, tokenSet)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeServiceError(c, h.logger, err, "logout failed")
		return
	}

	response.Success(c, nil)
}

// Home greets the signed-in operator.
func (h *AuthHandler) Home(c *gin.Context) {
	claims, err := getClaimsFromContext(c)
	if err != nil {
		response.NotLoggedIn(c)
		return
	}
	response.Success(c, response.Session{LoggedIn: true, Username: claims.Username})
}

// Me returns the stored record of the signed-in operator.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid session")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to load user")
		return
	}
	response.Success(c, user)
}
