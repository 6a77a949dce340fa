package handler

import (
	"net/http"

	"erp/internal/service"
	"erp/pkg/pagination"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs pages through the tenant's audit trail, newest first
// @Summary      Get audit logs
// @Description  Lists audit entries of the caller's tenant, optionally for one entity
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entity     query     string  false  "Entity name, e.g. variation"
// @Param        entity_id  query     string  false  "Entity ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), scope, service.AuditQuery{
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		Page:     params.Page,
		Limit:    params.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, params.Page, params.Limit, total))
}
