package handler

import (
	"errors"
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts with the envelope for err. Internal errors are attached
// to the context for the request logger and hidden from the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, response.Error(status, msg))
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

// scopeOf reads the tenant scope set by middleware.RequireTenant.
func scopeOf(c *gin.Context) (service.Scope, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "missing tenant scope"))
		return service.Scope{}, false
	}
	return service.Scope{TenantID: id.TenantID, UserID: id.UserID}, true
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
