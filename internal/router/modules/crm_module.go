package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/crmhq/crm-server/internal/interface/http"
)

type CRMModule struct {
	Handler *handlers.CustomerHandler
}

func NewCRMModule(h *handlers.CustomerHandler) *CRMModule {
	return &CRMModule{Handler: h}
}

func (m *CRMModule) Register(rg *gin.RouterGroup) {
	rg.GET("/customers/", m.Handler.List)
	rg.POST("/customers/", m.Handler.BulkDelete)
	rg.GET("/customers/search", m.Handler.Search)

	rg.GET("/customer/create/", m.Handler.CreateForm)
	rg.POST("/customer/create/", m.Handler.Create)
	rg.GET("/customer/:id/", m.Handler.Detail)
	rg.GET("/customer/:id/update/", m.Handler.UpdateForm)
	rg.POST("/customer/:id/update/", m.Handler.Update)
	rg.GET("/customer/:id/delete/", m.Handler.Delete)
	rg.POST("/customer/:id/delete/", m.Handler.Delete)
	rg.DELETE("/customer/:id/delete/", m.Handler.Delete)
}
