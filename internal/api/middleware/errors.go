package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmservice/assistant-service/internal/api/dto"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
)

const errCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

var internalError = dto.ErrorResponse{
	Code:    domainerrors.ErrCodeInternal,
	Message: "internal server error",
}

// ErrorMiddleware turns panics and handler errors into JSON error bodies.
type ErrorMiddleware struct{}

// NewErrorMiddleware creates a new ErrorMiddleware.
func NewErrorMiddleware() *ErrorMiddleware {
	return &ErrorMiddleware{}
}

// Recovery returns a gin middleware that recovers from panics.
func (m *ErrorMiddleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				GetRequestLogger(c).Error().
					Interface("panic", r).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, internalError)
			}
		}()
		c.Next()
	}
}

// HandleError writes err as a JSON error body and aborts the chain.
// Domain errors keep their status and code; anything else is a 500 whose
// cause is only logged.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	domainErr, ok := domainerrors.GetDomainError(err)
	if !ok {
		GetRequestLogger(c).Error().Err(err).Msg("unhandled error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, internalError)
		return
	}

	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		GetRequestLogger(c).Error().Err(err).Str("code", domainErr.Code).Msg("request failed")
	}
	c.AbortWithStatusJSON(domainErr.HTTPStatus, dto.ErrorResponse{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: domainErr.Details,
	})
}

// NotFound answers unknown routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Code:    domainerrors.ErrCodeNotFound,
			Message: "resource not found",
			Details: c.Request.URL.Path,
		})
	}
}

func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.ErrorResponse{
			Code:    errCodeMethodNotAllowed,
			Message: "method not allowed",
			Details: c.Request.Method,
		})
	}
}
