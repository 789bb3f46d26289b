package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/citizen-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
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

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

// RespondWithCreated sends a 201 success response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

// RespondWithError sends an error response carrying the error kind so the
// client can tell a lost slot race from a forbidden action.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, &Response{
			Status:  "error",
			Message: "internal server error",
		})
		return
	}

	message := appErr.Message
	if appErr.Kind == errors.KindValidation && appErr.Err != nil {
		message = appErr.Error()
	}

	c.AbortWithStatusJSON(appErr.StatusCode(), &Response{
		Status:  "error",
		Code:    string(appErr.Kind),
		Message: message,
	})
}

// RespondWithBadRequest reports malformed input before it reaches a service.
func RespondWithBadRequest(c *gin.Context, message string, err error) {
	RespondWithError(c, errors.Validation(message, err))
}
