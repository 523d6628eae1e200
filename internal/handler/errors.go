package handler

import (
	"errors"
	"net/http"
	"strings"

	"invoicing/internal/billing"
	applog "invoicing/internal/log"
	"invoicing/internal/middleware"
	"invoicing/internal/repository"
	"invoicing/internal/service"
	"invoicing/internal/session"
	"invoicing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// writeError maps service errors to HTTP statuses. Unexpected errors are
// logged and hidden from the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, response.Invalid(http.StatusBadRequest, "Invalid input", fieldErrors(err)))
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, service.ErrConflict), errors.Is(err, session.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		applog.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed",
			applog.FieldPath, c.FullPath(),
			applog.FieldError, err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

// fieldErrors flattens joined validation errors into one message per field.
func fieldErrors(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		var ie *billing.InputError
		switch x := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		default:
			if errors.As(e, &ie) {
				out = append(out, ie.Error())
			}
		}
	}
	walk(err)
	return out
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

// mustSession returns the session set by RequireAuth or aborts with 401.
func mustSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return sess, ok
}

func paramID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid id: must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// agentFilter reads the agent_id query. It returns billing.AllAgents when the
// parameter is absent or "all", the canonical id otherwise, and aborts with
// 400 on anything that is not a UUID.
func agentFilter(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Query("agent_id"))
	if raw == "" || strings.EqualFold(raw, billing.AllAgents) {
		return billing.AllAgents, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "Invalid agent_id: must be a UUID or 'all'")
		return "", false
	}
	return id.String(), true
}
