package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/server/validation"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service error onto an HTTP status and the message the
// client sees. Unknown errors are 500 with a fixed message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusUnprocessableEntity, "validation error"
	case errors.Is(err, common.ErrComputation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, common.ErrInvalidID):
		return http.StatusBadRequest, "invalid id"
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, "username or email already exists"
	case errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict, "calculation was modified by another request"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "could not validate credentials"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "not allowed to modify another user"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	}
	return http.StatusInternalServerError, "internal server error"
}

// abortWithError writes the error body and stops the handler chain.
func (s *Server) abortWithError(c *gin.Context, err error) {
	code, detail := statusFor(err)
	body := errorResponse{Detail: detail}

	var ve *common.ValidationError
	if errors.As(err, &ve) {
		body.Fields = ve.Fields
	}

	if code == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", common.BearerScheme)
	}
	if code == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "request_id", requestID(c), "error", err)
	}

	c.AbortWithStatusJSON(code, body)
}

// bindError turns a binding failure into a validation error. Field rule
// violations keep their per-field messages; malformed bodies do not.
func bindError(err error) error {
	translated := validation.Translate(err)
	if errors.Is(translated, common.ErrValidation) {
		return translated
	}
	return common.NewValidationError("body", "malformed request body")
}
