package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crmhq/crm-server/internal/container"
	handlers "github.com/crmhq/crm-server/internal/interface/http"
	"github.com/crmhq/crm-server/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Credential endpoints carry IP-based rate limits; the rest of the
	// account flow is cheap enough to leave open.
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	signupLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/", m.Handler.Home)

	rg.GET("/auth/login", m.Handler.LoginForm)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)

	rg.GET("/auth/signup/", m.Handler.SignupForm)
	rg.POST("/auth/signup/", signupLimiter, m.Handler.Signup)

	rg.GET("/auth/confirm_email/:uid/:token/", m.Handler.ConfirmEmail)

	rg.GET("/auth/password_reset/", m.Handler.PasswordResetForm)
	rg.POST("/auth/password_reset/", resetLimiter, m.Handler.PasswordResetRequest)

	rg.GET("/auth/reset/:uid/:token/", m.Handler.ResetPasswordForm)
	rg.POST("/auth/reset/:uid/:token/", m.Handler.ResetPassword)

	rg.GET("/auth/logout", m.Handler.Logout)
	rg.POST("/auth/logout", m.Handler.Logout)
}
