package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"premium-estimator/internal/service"
)

// AuthHandler emite tokens de operador a cambio de la clave de administracion.
type AuthHandler struct {
	logger   *zap.Logger
	tokens   *service.TokenService
	adminKey string
}

func NewAuthHandler(logger *zap.Logger, tokens *service.TokenService, adminKey string) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		tokens:   tokens,
		adminKey: adminKey,
	}
}

// IssueToken maneja POST /auth/token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req struct {
		OperatorID string `json:"operator_id" binding:"required"`
		APIKey     string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid token request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !h.tokens.Enabled() || strings.TrimSpace(h.adminKey) == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token issuing not configured"})
		return
	}
	if !h.validAdminKey(req.APIKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tok, err := h.tokens.IssueToken(req.OperatorID)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, tok)
}

// validAdminKey acepta ADMIN_API_KEY en claro o como hash bcrypt ($2a$, $2b$, $2y$).
func (h *AuthHandler) validAdminKey(given string) bool {
	if strings.HasPrefix(h.adminKey, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(h.adminKey), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(h.adminKey)) == 1
}
