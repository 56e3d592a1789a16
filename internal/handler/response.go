package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/recovery-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Fields  interface{} `json:"fields,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps the error taxonomy onto HTTP statuses and keeps the
// aggregated field violations in the payload.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrNotFound:
			status = http.StatusNotFound
		case apperrors.ErrBadRequest, apperrors.ErrValidation:
			status = http.StatusBadRequest
		case apperrors.ErrUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrForbidden:
			status = http.StatusForbidden
		case apperrors.ErrConflict:
			status = http.StatusConflict
		}
		resp := NewErrorResponse(appErr.Message)
		if len(appErr.Fields) > 0 {
			resp.Fields = appErr.Fields
		}
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
}

// RespondBindError turns gin binding failures into the same shape as
// service-level validation errors.
func RespondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		violations := make([]apperrors.FieldViolation, 0, len(verrs))
		for _, fe := range verrs {
			violations = append(violations, apperrors.FieldViolation{
				Field:   fe.Field(),
				Message: "failed " + fe.Tag() + " validation",
			})
		}
		resp := NewErrorResponse("validation failed")
		resp.Fields = violations
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
}
