package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crmhq/crm-server/internal/application"
	"github.com/crmhq/crm-server/internal/domain/entity"
	"github.com/crmhq/crm-server/internal/interface/middleware"
	"github.com/crmhq/crm-server/pkg/helpers"
	"github.com/crmhq/crm-server/pkg/response"
	"github.com/crmhq/crm-server/pkg/validation"
)

type CustomerHandler struct {
	Svc     *application.CustomerService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewCustomerHandler(svc *application.CustomerService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *CustomerHandler {
	return &CustomerHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type customerForm struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,emailfmt"`
	Phone string `json:"phone" binding:"required,digits"`
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func customerJSON(c *entity.Customer) gin.H {
	return gin.H{
		"id":         c.ID,
		"name":       c.Name,
		"email":      c.Email,
		"phone":      c.Phone,
		"created_at": c.CreatedAt,
	}
}

func dealJSON(d *entity.Deal) gin.H {
	return gin.H{
		"id":         d.ID,
		"title":      d.Title,
		"amount":     d.Amount,
		"created_at": d.CreatedAt,
	}
}

func isAJAX(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}

// List GET /customers/
// Verified owners get their customers; unverified sessions are sent
// back to the login page with a warning.
func (h *CustomerHandler) List(c *gin.Context) {
	if !c.GetBool(middleware.CtxEmailVerifiedKey) {
		h.Cookies.SetFlash(c, "Your email is not verified. Please verify your email.")
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	customers, err := h.Svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("list customers failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to list customers", nil)
		c.JSON(resp.Status, resp)
		return
	}

	out := make([]gin.H, 0, len(customers))
	for i := range customers {
		out = append(out, customerJSON(&customers[i]))
	}
	resp := response.Success(c, http.StatusOK, out, "customers", map[string]any{"count": len(out)})
	c.JSON(resp.Status, resp)
}

// BulkDelete POST /customers/
// Body: {"ids": [...]}. Response shape is a fixed contract:
// {"success": bool, "deleted_count"?: int, "error"?: string}.
func (h *CustomerHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Invalid JSON"})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "IDs for deletion not specified"})
		return
	}

	n, err := h.Svc.BulkDelete(c.Request.Context(), middleware.UserID(c), req.IDs)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("bulk delete failed")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	if n == 0 {
		// Zero may equally mean "not yours" or "gone already"; the
		// caller is told neither.
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "You do not have permission to delete these entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_count": n})
}

// Detail GET /customer/:id/
func (h *CustomerHandler) Detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}

	cust, deals, err := h.Svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		if err == application.ErrNotFound {
			resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
			c.JSON(resp.Status, resp)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("get customer failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to load customer", nil)
		c.JSON(resp.Status, resp)
		return
	}

	data := customerJSON(cust)
	ds := make([]gin.H, 0, len(deals))
	for i := range deals {
		ds = append(ds, dealJSON(&deals[i]))
	}
	data["deals"] = ds
	resp := response.Success(c, http.StatusOK, data, "customer", nil)
	c.JSON(resp.Status, resp)
}

// CreateForm GET /customer/create/
func (h *CustomerHandler) CreateForm(c *gin.Context) {
	resp := response.Success[any](c, http.StatusOK, nil, "customer form", nil)
	c.JSON(resp.Status, resp)
}

// Create POST /customer/create/
func (h *CustomerHandler) Create(c *gin.Context) {
	var req customerForm
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	cust, err := h.Svc.Create(c.Request.Context(), middleware.UserID(c), application.CustomerInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		if ve, ok := application.AsValidation(err); ok {
			resp := response.Error[any](c, http.StatusBadRequest, "customer create failed", ve.Fields)
			c.JSON(resp.Status, resp)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("create customer failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to create customer", nil)
		c.JSON(resp.Status, resp)
		return
	}

	resp := response.Success(c, http.StatusCreated, customerJSON(cust), "customer created", nil)
	c.JSON(resp.Status, resp)
}

// UpdateForm GET /customer/:id/update/
// 404 unless the record exists and belongs to the requester.
func (h *CustomerHandler) UpdateForm(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	cust, _, err := h.Svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		status := http.StatusInternalServerError
		if err == application.ErrNotFound {
			status = http.StatusNotFound
		}
		resp := response.Error[any](c, status, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, customerJSON(cust), "customer form", nil)
	c.JSON(resp.Status, resp)
}

// Update POST /customer/:id/update/
func (h *CustomerHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	var req customerForm
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	cust, err := h.Svc.Update(c.Request.Context(), middleware.UserID(c), id, application.CustomerInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		if err == application.ErrNotFound {
			resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
			c.JSON(resp.Status, resp)
			return
		}
		if ve, ok := application.AsValidation(err); ok {
			resp := response.Error[any](c, http.StatusBadRequest, "customer update failed", ve.Fields)
			c.JSON(resp.Status, resp)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("update customer failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to update customer", nil)
		c.JSON(resp.Status, resp)
		return
	}

	resp := response.Success(c, http.StatusOK, customerJSON(cust), "customer updated", nil)
	c.JSON(resp.Status, resp)
}

// Delete GET/POST/DELETE /customer/:id/delete/
// Fixed contract: {"success": bool, "message"?: string}; 500 with the
// error message if the delete itself blows up, leaving the row intact.
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
		return
	}

	switch err := h.Svc.Delete(c.Request.Context(), middleware.UserID(c), id); {
	case err == nil:
		if isAJAX(c) {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Customer deleted"})
	case err == application.ErrNotFound:
		resp := response.Error[any](c, http.StatusNotFound, "not found", nil)
		c.JSON(resp.Status, resp)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("delete customer failed")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
	}
}

// Search GET /customers/search?q=
func (h *CustomerHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), middleware.UserID(c), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("customer search failed")
		}
		resp := response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
	c.JSON(resp.Status, resp)
}
