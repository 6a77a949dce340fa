package handler

import (
	"net/http"
	"strconv"

	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type CVRHandler struct {
	cvrService service.CVRService
}

func NewCVRHandler(cvrService service.CVRService) *CVRHandler {
	return &CVRHandler{cvrService: cvrService}
}

func (h *CVRHandler) RegisterRoutes(router *gin.RouterGroup) {
	cvr := router.Group("/api/projects/:projectId/cvr")
	{
		cvr.GET("/totals", h.GetTotals)
		cvr.GET("/cost-codes", h.GetByCostCode)
		cvr.GET("/periods/:period", h.GetPeriod)
	}
}

// GetTotals returns whole-project cost/value figures
// @Summary      CVR totals
// @Tags         cvr
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  response.Response{data=service.Breakdown}
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/cvr/totals [get]
func (h *CVRHandler) GetTotals(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	totals, err := h.cvrService.SnapshotTotals(c.Request.Context(), scope, projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}

// GetByCostCode
// @Summary      CVR by cost code
// @Description  Groups budget, commitments, actuals and forecasts by cost code with a per-period trend
// @Tags         cvr
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  response.Response{data=service.CostCodeReport}
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/cvr/cost-codes [get]
func (h *CVRHandler) GetByCostCode(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	report, err := h.cvrService.ByCostCode(c.Request.Context(), scope, projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetPeriod reports one month with PM and QS views
// @Summary      CVR for a period
// @Tags         cvr
// @Produce      json
// @Security     BearerAuth
// @Param        projectId           path      string  true   "Project ID"
// @Param        period              path      string  true   "Period (YYYY-MM)"
// @Param        include_variations  query     bool    false  "Add approved variations to value (default true)"
// @Param        limit               query     int     false  "Trend length in months"
// @Success      200                 {object}  response.Response{data=service.PeriodReport}
// @Failure      400                 {object}  response.Response
// @Failure      404                 {object}  response.Response
// @Router       /api/projects/{projectId}/cvr/periods/{period} [get]
func (h *CVRHandler) GetPeriod(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	var opts service.PeriodOptions
	if raw := c.Query("include_variations"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "include_variations must be true or false")
			return
		}
		opts.IncludeVariations = &include
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		opts.TrendLimit = limit
	}

	report, err := h.cvrService.ForPeriod(c.Request.Context(), scope, projectID, c.Param("period"), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
