package handler

import (
	"net/http"

	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/api/projects")
	{
		projects.POST("", h.CreateProject)
		projects.GET("/:projectId", h.GetProject)
	}
}

// CreateProject registers a project for the caller's tenant
// @Summary      Create project
// @Description  Creates a project and schedules its first snapshot build
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProjectRequest  true  "Project"
// @Success      201      {object}  response.Response{data=model.Project}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), scope, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, project))
}

// GetProject returns one project
// @Summary      Get project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  response.Response{data=model.Project}
// @Failure      404        {object}  response.Response
// @Router       /api/projects/{projectId} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "projectId")
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), scope, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}
