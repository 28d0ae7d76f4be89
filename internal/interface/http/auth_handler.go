package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crmhq/crm-server/internal/application"
	"github.com/crmhq/crm-server/internal/interface/middleware"
	"github.com/crmhq/crm-server/pkg/helpers"
	"github.com/crmhq/crm-server/pkg/response"
	"github.com/crmhq/crm-server/pkg/validation"
)

const customerListPath = "/customers/"

type AuthHandler struct {
	Svc     *application.AccountService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.AccountService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type signupRequest struct {
	Email           string `json:"email" binding:"required,emailfmt"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,emailfmt"`
	Password string `json:"password" binding:"required"`
}

type resetRequestPayload struct {
	Email string `json:"email" binding:"required,emailfmt"`
}

type resetConfirmPayload struct {
	NewPassword1 string `json:"new_password1" binding:"required"`
	NewPassword2 string `json:"new_password2" binding:"required"`
}

// Home GET/POST /
func (h *AuthHandler) Home(c *gin.Context) {
	resp := response.Success(c, http.StatusOK, gin.H{"main": "Welcome to the Main Page!"}, "home", nil)
	c.JSON(resp.Status, resp)
}

// LoginForm GET /auth/login
// Authenticated users are bounced straight to the customer list.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	if middleware.UserID(c) != 0 {
		c.Redirect(http.StatusFound, customerListPath)
		return
	}
	var meta map[string]any
	if msg := h.Cookies.PopFlash(c); msg != "" {
		meta = map[string]any{"flash": msg}
	}
	resp := response.Success[any](c, http.StatusOK, nil, "login", meta)
	c.JSON(resp.Status, resp)
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var status int
		var msg string
		switch err {
		case application.ErrUserNotFound:
			status, msg = http.StatusUnauthorized, "A user with this email does not exist."
		case application.ErrEmailNotVerified:
			status, msg = http.StatusForbidden, "Your account has not been verified. Please confirm your email."
		case application.ErrInvalidCredentials:
			status, msg = http.StatusUnauthorized, "Invalid email or password."
		default:
			if h.Logger != nil {
				h.Logger.WithError(err).Error("login failed")
			}
			status, msg = http.StatusInternalServerError, "login failed"
		}
		resp := response.Error[any](c, status, msg, nil)
		c.JSON(resp.Status, resp)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	resp := response.Success(c, http.StatusOK, gin.H{"user_id": u.ID, "email": u.Email}, "login successful",
		map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry, "redirect": customerListPath})
	c.JSON(resp.Status, resp)
}

// SignupForm GET /auth/signup/
func (h *AuthHandler) SignupForm(c *gin.Context) {
	var meta map[string]any
	if msg := h.Cookies.PopFlash(c); msg != "" {
		meta = map[string]any{"flash": msg}
	}
	resp := response.Success[any](c, http.StatusOK, nil, "signup", meta)
	c.JSON(resp.Status, resp)
}

// Signup POST /auth/signup/
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	u, err := h.Svc.Signup(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		if ve, ok := application.AsValidation(err); ok {
			resp := response.Error[any](c, http.StatusBadRequest, "signup failed", ve.Fields)
			c.JSON(resp.Status, resp)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("signup failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "signup failed", nil)
		c.JSON(resp.Status, resp)
		return
	}

	resp := response.Success(c, http.StatusCreated, gin.H{"uid": u.UID, "email": u.Email},
		"Please confirm your email address to complete the registration", nil)
	c.JSON(resp.Status, resp)
}

// ConfirmEmail GET /auth/confirm_email/:uid/:token/
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	uid, err := uuid.Parse(c.Param("uid"))
	if err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}

	switch err := h.Svc.ConfirmEmail(c.Request.Context(), uid, c.Param("token")); {
	case err == nil:
		resp := response.Success[any](c, http.StatusOK, nil, "Your email has been successfully confirmed.", nil)
		c.JSON(resp.Status, resp)
	case err == application.ErrNotFound:
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
	case err == application.ErrInvalidToken:
		// Generic on purpose: mismatch, reuse and already-verified all
		// look the same from the outside.
		h.Cookies.SetFlash(c, "Invalid or expired confirmation link.")
		c.Redirect(http.StatusFound, "/auth/signup/")
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("confirm email failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "confirmation failed", nil)
		c.JSON(resp.Status, resp)
	}
}

// PasswordResetForm GET /auth/password_reset/
func (h *AuthHandler) PasswordResetForm(c *gin.Context) {
	resp := response.Success[any](c, http.StatusOK, nil, "password reset", nil)
	c.JSON(resp.Status, resp)
}

// PasswordResetRequest POST /auth/password_reset/
func (h *AuthHandler) PasswordResetRequest(c *gin.Context) {
	var req resetRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	if err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		if ve, ok := application.AsValidation(err); ok {
			resp := response.Error[any](c, http.StatusBadRequest, "password reset failed", ve.Fields)
			c.JSON(resp.Status, resp)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("password reset request failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "password reset failed", nil)
		c.JSON(resp.Status, resp)
		return
	}

	h.Cookies.SetFlash(c, "Password recovery instructions have been sent to your email.")
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// ResetPasswordForm GET /auth/reset/:uid/:token/
// 404 unless id+token match an outstanding reset token.
func (h *AuthHandler) ResetPasswordForm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	if err := h.Svc.ValidateResetToken(c.Request.Context(), id, c.Param("token")); err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success[any](c, http.StatusOK, nil, "set new password", nil)
	c.JSON(resp.Status, resp)
}

// ResetPassword POST /auth/reset/:uid/:token/
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	var req resetConfirmPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	switch err := h.Svc.ResetPassword(c.Request.Context(), id, c.Param("token"), req.NewPassword1, req.NewPassword2); {
	case err == nil:
		h.Cookies.SetFlash(c, "Password successfully updated! You can now log in.")
		c.Redirect(http.StatusFound, middleware.LoginPath)
	case err == application.ErrNotFound:
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
	default:
		if ve, ok := application.AsValidation(err); ok {
			resp := response.Error[any](c, http.StatusBadRequest, "password reset failed", ve.Fields)
			c.JSON(resp.Status, resp)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("password reset failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "password reset failed", nil)
		c.JSON(resp.Status, resp)
	}
}

// Logout GET/POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if uid := middleware.UserID(c); uid != 0 {
		h.Svc.Logout(c.Request.Context(), uid)
	}
	h.Cookies.Clear(c)
	c.Redirect(http.StatusFound, "/")
}
