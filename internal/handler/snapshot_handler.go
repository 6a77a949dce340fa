package handler

import (
	"net/http"

	"erp/internal/model"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type SnapshotHandler struct {
	snapshotService service.SnapshotService
}

func NewSnapshotHandler(snapshotService service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: snapshotService}
}

func (h *SnapshotHandler) RegisterRoutes(router *gin.RouterGroup) {
	snapshot := router.Group("/api/projects/:projectId/snapshot")
	{
		snapshot.GET("", h.GetSnapshot)
		snapshot.POST("/recompute", h.Recompute)
	}
}

// RecomputeRequest names the categories to rebuild; empty means all.
type RecomputeRequest struct {
	Categories []model.SnapshotCategory `json:"categories"`
}

// GetSnapshot returns the project's denormalised dashboard row
// @Summary      Get project snapshot
// @Tags         snapshot
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  response.Response{data=model.ProjectSnapshot}
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/snapshot [get]
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	snap, err := h.snapshotService.Get(c.Request.Context(), scope, projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, snap))
}

// Recompute rebuilds the snapshot synchronously
// @Summary      Recompute project snapshot
// @Description  Rebuilds the named categories, or all of them when the body is empty
// @Tags         snapshot
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string            true   "Project ID"
// @Param        payload    body      RecomputeRequest  false  "Categories"
// @Success      200        {object}  response.Response{data=model.ProjectSnapshot}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/snapshot/recompute [post]
func (h *SnapshotHandler) Recompute(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	var req RecomputeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request payload: "+err.Error())
			return
		}
	}

	snap, err := h.snapshotService.RecomputeForTenant(c.Request.Context(), scope, projectID, req.Categories...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, snap))
}
