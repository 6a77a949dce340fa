package handler

import (
	"context"
	"net/http"

	"erp/internal/finance"
	"erp/internal/repository"
	"erp/internal/service"
	"erp/pkg/pagination"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LedgerHandler struct {
	ledgerService service.LedgerService
}

func NewLedgerHandler(ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	project := router.Group("/api/projects/:projectId")
	{
		project.GET("/budget-lines", h.ListBudgetLines)
		project.POST("/budget-lines", h.CreateBudgetLine)
		project.PUT("/budget-lines/:id", h.UpdateBudgetLine)
		project.DELETE("/budget-lines/:id", h.DeleteBudgetLine)

		project.GET("/commitments", h.ListCommitments)
		project.POST("/commitments", h.CreateCommitment)
		project.PUT("/commitments/:id", h.UpdateCommitment)
		project.DELETE("/commitments/:id", h.DeleteCommitment)

		project.GET("/actual-costs", h.ListActualCosts)
		project.POST("/actual-costs", h.CreateActualCost)
		project.PUT("/actual-costs/:id", h.UpdateActualCost)
		project.DELETE("/actual-costs/:id", h.DeleteActualCost)

		project.GET("/forecasts", h.ListForecasts)
		project.POST("/forecasts", h.CreateForecast)
		project.PUT("/forecasts/:id", h.UpdateForecast)
		project.DELETE("/forecasts/:id", h.DeleteForecast)
	}
}

func listLedger[T any](c *gin.Context, list func(context.Context, service.Scope, uuid.UUID, repository.ListFilter) ([]T, int64, error)) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	period := c.Query("period")
	if period != "" {
		if _, err := finance.ParsePeriod(period); err != nil {
			badRequest(c, "invalid period: "+err.Error())
			return
		}
	}
	params := pagination.Parse(c)

	rows, total, err := list(c.Request.Context(), scope, projectID, repository.ListFilter{
		Period: period,
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, rows, params.Page, params.Limit, total))
}

func createLedger[T, In any](c *gin.Context, create func(context.Context, service.Scope, uuid.UUID, In) (*T, error)) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	var in In
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	row, err := create(c.Request.Context(), scope, projectID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, row))
}

func updateLedger[T, In any](c *gin.Context, update func(context.Context, service.Scope, uuid.UUID, uuid.UUID, In) (*T, error)) {
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
	var in In
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	row, err := update(c.Request.Context(), scope, projectID, id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, row))
}

func deleteLedger(c *gin.Context, del func(context.Context, service.Scope, uuid.UUID, uuid.UUID) error) {
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
	if err := del(c.Request.Context(), scope, projectID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id}))
}

// --- Budget lines ---

// ListBudgetLines pages through a project's budget
// @Summary      List budget lines
// @Tags         ledgers
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        period     query     string  false  "Period (YYYY-MM)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]model.BudgetLine}
// @Router       /api/projects/{projectId}/budget-lines [get]
func (h *LedgerHandler) ListBudgetLines(c *gin.Context) {
	listLedger(c, h.ledgerService.ListBudgetLines)
}

// CreateBudgetLine
// @Summary      Create budget line
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                   true  "Project ID"
// @Param        payload    body      service.BudgetLineInput  true  "Budget line"
// @Success      201        {object}  response.Response{data=model.BudgetLine}
// @Failure      400        {object}  response.Response
// @Router       /api/projects/{projectId}/budget-lines [post]
func (h *LedgerHandler) CreateBudgetLine(c *gin.Context) {
	createLedger(c, h.ledgerService.CreateBudgetLine)
}

// UpdateBudgetLine
// @Summary      Update budget line
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                   true  "Project ID"
// @Param        id         path      string                   true  "Budget line ID"
// @Param        payload    body      service.BudgetLineInput  true  "Fields to change"
// @Success      200        {object}  response.Response{data=model.BudgetLine}
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/budget-lines/{id} [put]
func (h *LedgerHandler) UpdateBudgetLine(c *gin.Context) {
	updateLedger(c, h.ledgerService.UpdateBudgetLine)
}

// DeleteBudgetLine
// @Summary      Delete budget line
// @Tags         ledgers
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Param        id         path      string  true  "Budget line ID"
// @Success      200        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId}/budget-lines/{id} [delete]
func (h *LedgerHandler) DeleteBudgetLine(c *gin.Context) {
	deleteLedger(c, h.ledgerService.DeleteBudgetLine)
}

// --- Commitments ---

// ListCommitments
// @Summary      List commitments
// @Tags         ledgers
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        period     query     string  false  "Period (YYYY-MM)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]model.Commitment}
// @Router       /api/projects/{projectId}/commitments [get]
func (h *LedgerHandler) ListCommitments(c *gin.Context) {
	listLedger(c, h.ledgerService.ListCommitments)
}

// CreateCommitment records a purchase order or subcontract value
// @Summary      Create commitment
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                   true  "Project ID"
// @Param        payload    body      service.CommitmentInput  true  "Commitment"
// @Success      201        {object}  response.Response{data=model.Commitment}
// @Failure      400        {object}  response.Response
// @Router       /api/projects/{projectId}/commitments [post]
func (h *LedgerHandler) CreateCommitment(c *gin.Context) {
	createLedger(c, h.ledgerService.CreateCommitment)
}

// UpdateCommitment
// @Summary      Update commitment
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                   true  "Project ID"
// @Param        id         path      string                   true  "Commitment ID"
// @Param        payload    body      service.CommitmentInput  true  "Fields to change"
// @Success      200        {object}  response.Response{data=model.Commitment}
// @Router       /api/projects/{projectId}/commitments/{id} [put]
func (h *LedgerHandler) UpdateCommitment(c *gin.Context) {
	updateLedger(c, h.ledgerService.UpdateCommitment)
}

// DeleteCommitment
// @Summary      Delete commitment
// @Tags         ledgers
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Param        id         path      string  true  "Commitment ID"
// @Success      200        {object}  response.Response
// @Router       /api/projects/{projectId}/commitments/{id} [delete]
func (h *LedgerHandler) DeleteCommitment(c *gin.Context) {
	deleteLedger(c, h.ledgerService.DeleteCommitment)
}

// --- Actual costs ---

// ListActualCosts
// @Summary      List actual costs
// @Tags         ledgers
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        period     query     string  false  "Period (YYYY-MM)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]model.ActualCost}
// @Router       /api/projects/{projectId}/actual-costs [get]
func (h *LedgerHandler) ListActualCosts(c *gin.Context) {
	listLedger(c, h.ledgerService.ListActualCosts)
}

// CreateActualCost books incurred cost; the period defaults to the month of incurred_at
// @Summary      Create actual cost
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                   true  "Project ID"
// @Param        payload    body      service.ActualCostInput  true  "Actual cost"
// @Success      201        {object}  response.Response{data=model.ActualCost}
// @Failure      400        {object}  response.Response
// @Router       /api/projects/{projectId}/actual-costs [post]
func (h *LedgerHandler) CreateActualCost(c *gin.Context) {
	createLedger(c, h.ledgerService.CreateActualCost)
}

// UpdateActualCost
// @Summary      Update actual cost
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                   true  "Project ID"
// @Param        id         path      string                   true  "Actual cost ID"
// @Param        payload    body      service.ActualCostInput  true  "Fields to change"
// @Success      200        {object}  response.Response{data=model.ActualCost}
// @Router       /api/projects/{projectId}/actual-costs/{id} [put]
func (h *LedgerHandler) UpdateActualCost(c *gin.Context) {
	updateLedger(c, h.ledgerService.UpdateActualCost)
}

// DeleteActualCost
// @Summary      Delete actual cost
// @Tags         ledgers
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Param        id         path      string  true  "Actual cost ID"
// @Success      200        {object}  response.Response
// @Router       /api/projects/{projectId}/actual-costs/{id} [delete]
func (h *LedgerHandler) DeleteActualCost(c *gin.Context) {
	deleteLedger(c, h.ledgerService.DeleteActualCost)
}

// --- Forecasts ---

// ListForecasts
// @Summary      List forecasts
// @Tags         ledgers
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        period     query     string  false  "Period (YYYY-MM)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]model.Forecast}
// @Router       /api/projects/{projectId}/forecasts [get]
func (h *LedgerHandler) ListForecasts(c *gin.Context) {
	listLedger(c, h.ledgerService.ListForecasts)
}

// CreateForecast sets the forecast for a period, replacing any earlier one
// @Summary      Upsert forecast
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                 true  "Project ID"
// @Param        payload    body      service.ForecastInput  true  "Forecast"
// @Success      201        {object}  response.Response{data=model.Forecast}
// @Failure      400        {object}  response.Response
// @Router       /api/projects/{projectId}/forecasts [post]
func (h *LedgerHandler) CreateForecast(c *gin.Context) {
	createLedger(c, h.ledgerService.CreateForecast)
}

// UpdateForecast
// @Summary      Update forecast
// @Tags         ledgers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                 true  "Project ID"
// @Param        id         path      string                 true  "Forecast ID"
// @Param        payload    body      service.ForecastInput  true  "Fields to change"
// @Success      200        {object}  response.Response{data=model.Forecast}
// @Router       /api/projects/{projectId}/forecasts/{id} [put]
func (h *LedgerHandler) UpdateForecast(c *gin.Context) {
	updateLedger(c, h.ledgerService.UpdateForecast)
}

// DeleteForecast
// @Summary      Delete forecast
// @Tags         ledgers
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Param        id         path      string  true  "Forecast ID"
// @Success      200        {object}  response.Response
// @Router       /api/projects/{projectId}/forecasts/{id} [delete]
func (h *LedgerHandler) DeleteForecast(c *gin.Context) {
	deleteLedger(c, h.ledgerService.DeleteForecast)
}
