package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/infrastructure/logger"
	"github.com/intellipost/backend/internal/interfaces/http/dto"
	"github.com/intellipost/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides shared response helpers
type BaseHandler struct{}

// Success sends a 200 with the data envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.OK(data))
}

// Created sends a 201 with the data envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.OK(data))
}

// NoContent sends a 204
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated sends a 200 with pagination meta
func (h *BaseHandler) Paginated(c *gin.Context, data any, page, pageSize int, total int64) {
	c.JSON(http.StatusOK, dto.Paginated(data, page, pageSize, total))
}

// BadRequest sends a 400 for malformed input
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.Err("BAD_REQUEST", message))
}

// HandleError maps a service error to its HTTP response. Domain errors
// carry their own code; anything else is an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.StatusForCode(domainErr.Code), dto.Err(domainErr.Code, domainErr.Message))
		return
	}

	logger.L(c.Request.Context()).Error("unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, dto.Err("INTERNAL_ERROR", "Internal server error"))
}

// userID returns the authenticated user, aborting with 401 if the
// middleware did not set one
func (h *BaseHandler) userID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Err("UNAUTHORIZED", "Authentication required"))
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a UUID path parameter
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}
