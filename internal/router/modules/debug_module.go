package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crmhq/crm-server/internal/container"
	"github.com/crmhq/crm-server/internal/interface/middleware"
)

type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar metrics, rate-limited per IP. Private networks are exempt
	// from the limit so internal scrapers can poll freely.
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
