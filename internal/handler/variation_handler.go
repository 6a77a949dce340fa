package handler

import (
	"net/http"

	"erp/internal/service"
	"erp/pkg/pagination"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type VariationHandler struct {
	variationService service.VariationService
}

func NewVariationHandler(variationService service.VariationService) *VariationHandler {
	return &VariationHandler{variationService: variationService}
}

func (h *VariationHandler) RegisterRoutes(router *gin.RouterGroup) {
	variations := router.Group("/api/projects/:projectId/variations")
	{
		variations.GET("", h.ListVariations)
		variations.POST("", h.CreateVariation)
		variations.GET("/:id", h.GetVariation)
		variations.PUT("/:id", h.UpdateVariation)
		variations.POST("/:id/status", h.ChangeStatus)
		variations.GET("/:id/history", h.GetHistory)
	}
}

// ListVariations
// @Summary      List variations
// @Tags         variations
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        status     query     string  false  "Filter by status"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.VariationResponse}
// @Router       /api/projects/{projectId}/variations [get]
func (h *VariationHandler) ListVariations(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	params := pagination.Parse(c)

	list, total, err := h.variationService.List(c.Request.Context(), scope, projectID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, list, params.Page, params.Limit, total))
}

// CreateVariation raises a draft variation with the next VO reference
// @Summary      Create variation
// @Tags         variations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                          true  "Project ID"
// @Param        payload    body      service.CreateVariationRequest  true  "Variation"
// @Success      201        {object}  response.Response{data=service.VariationResponse}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/variations [post]
func (h *VariationHandler) CreateVariation(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	var req service.CreateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	v, err := h.variationService.Create(c.Request.Context(), scope, projectID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, v))
}

// GetVariation
// @Summary      Get variation
// @Tags         variations
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Param        id         path      string  true  "Variation ID"
// @Success      200        {object}  response.Response{data=service.VariationResponse}
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/variations/{id} [get]
func (h *VariationHandler) GetVariation(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	v, err := h.variationService.Get(c.Request.Context(), scope, projectID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, v))
}

// UpdateVariation edits descriptive fields, values and lines
// @Summary      Update variation
// @Tags         variations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                          true  "Project ID"
// @Param        id         path      string                          true  "Variation ID"
// @Param        payload    body      service.UpdateVariationRequest  true  "Fields to change"
// @Success      200        {object}  response.Response{data=service.VariationResponse}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/variations/{id} [put]
func (h *VariationHandler) UpdateVariation(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	v, err := h.variationService.Update(c.Request.Context(), scope, projectID, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, v))
}

// ChangeStatus moves a variation along its workflow
// @Summary      Change variation status
// @Description  Appends a history row; returns 409 when the workflow forbids the move
// @Tags         variations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                       true  "Project ID"
// @Param        id         path      string                       true  "Variation ID"
// @Param        payload    body      service.ChangeStatusRequest  true  "Target status"
// @Success      200        {object}  response.Response{data=service.VariationResponse}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Failure      409        {object}  response.Response
// @Router       /api/projects/{projectId}/variations/{id}/status [post]
func (h *VariationHandler) ChangeStatus(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	v, err := h.variationService.ChangeStatus(c.Request.Context(), scope, projectID, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, v))
}

// GetHistory
// @Summary      Variation status history
// @Tags         variations
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Param        id         path      string  true  "Variation ID"
// @Success      200        {object}  response.Response{data=[]model.VariationStatusHistory}
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/variations/{id}/history [get]
func (h *VariationHandler) GetHistory(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	history, err := h.variationService.History(c.Request.Context(), scope, projectID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}
