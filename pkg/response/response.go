package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/safewalk-backend/internal/apperrors"
)

// ErrorBody is the client-visible part of a failure.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindInvalidArgument:  http.StatusBadRequest,
	apperrors.KindNotFound:         http.StatusNotFound,
	apperrors.KindPermissionDenied: http.StatusForbidden,
	apperrors.KindUnauthenticated:  http.StatusUnauthorized,
	apperrors.KindConflict:         http.StatusConflict,
	apperrors.KindRateLimited:      http.StatusTooManyRequests,
	apperrors.KindStorageFailure:   http.StatusInternalServerError,
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(kind apperrors.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Success sends a 200 response carrying data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// SuccessWithMessage sends a success response with a status and message
func SuccessWithMessage(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}

// Error sends the failure envelope for err. Errors outside the taxonomy are
// attached to the context for logging and rendered as a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		InternalError(c, "internal server error")
		return
	}
	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	Fail(c, appErr.Kind, appErr.Message)
}

// Fail sends a failure envelope of the given kind.
func Fail(c *gin.Context, kind apperrors.Kind, message string) {
	c.AbortWithStatusJSON(StatusFor(kind), Response{
		Success: false,
		Error:   &ErrorBody{Kind: kind.String(), Message: message},
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string) {
	Fail(c, apperrors.KindInvalidArgument, message)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, message string) {
	Fail(c, apperrors.KindNotFound, message)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   &ErrorBody{Kind: apperrors.KindUnknown.String(), Message: message},
	})
}
