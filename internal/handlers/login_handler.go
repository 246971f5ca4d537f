package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.traveljournal/internal/accounts"
	"io.winapps.traveljournal/internal/auth"
	"io.winapps.traveljournal/internal/middleware"
	accountmodels "io.winapps.traveljournal/internal/models/account"
	models "io.winapps.traveljournal/internal/models/login"
)

type AuthHandler struct {
	accounts     *accounts.Service
	tokens       *auth.TokenIssuer
	secureCookie bool
	maxUpload    int64
	logger       *zap.SugaredLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(svc *accounts.Service, tokens *auth.TokenIssuer, secureCookie bool, maxUpload int64, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		accounts:     svc,
		tokens:       tokens,
		secureCookie: secureCookie,
		maxUpload:    maxUpload,
		logger:       logger,
	}
}

// Login checks email and password and starts a cookie session
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "failed to log in")
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, models.FromUser(user))
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"msg": "Logged out"})
}

func (h *AuthHandler) startSession(c *gin.Context, user *accountmodels.User) bool {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logError(c, err, "failed to issue session token", "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return false
	}
	h.setTokenCookie(c, token, int(h.tokens.TTL().Seconds()))
	return true
}

// setTokenCookie writes the http-only session cookie. Cross-site frontends
// need SameSite=None, which browsers only accept on secure cookies.
func (h *AuthHandler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	if h.secureCookie {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(middleware.TokenCookie, value, maxAge, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) respondError(c *gin.Context, err error, msg string, fields ...interface{}) {
	switch {
	case errors.Is(err, accounts.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, accounts.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
	case errors.Is(err, accounts.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, accounts.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, accounts.ErrStorage):
		h.logUpstream(c, err, msg, fields...)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Media storage unavailable"})
	default:
		h.logError(c, err, msg, fields...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
