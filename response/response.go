package response

import (
	"net/http"

	apperrors "dormitory/errors"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Code       int         `json:"code"`
	Mess       string      `json:"mess"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ErrorResponse carries the machine-readable code of a failed request.
type ErrorResponse struct {
	Code       int                 `json:"code"`
	Mess       string              `json:"mess"`
	ErrorCode  apperrors.ErrorCode `json:"errorCode"`
	Suggestion string              `json:"suggestion,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 1,
		Mess: "Success",
		Data: data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code: 1,
		Mess: "Created",
		Data: data,
	})
}

// SuccessWithPagination returns a page of results.
func SuccessWithPagination(c *gin.Context, data interface{}, page, limit, total int) {
	c.JSON(http.StatusOK, Response{
		Code: 1,
		Mess: "Success",
		Data: data,
		Pagination: &Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}

// FromError maps an error to its HTTP status. Internal causes are never echoed.
func FromError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		ServerError(c)
		return
	}

	body := ErrorResponse{
		Code:       0,
		Mess:       appErr.Message,
		ErrorCode:  appErr.Code,
		Suggestion: appErr.Suggestion,
	}
	if status == http.StatusInternalServerError {
		body.Mess = "Internal server error"
	}
	c.JSON(status, body)
}

func ServerError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:      0,
		Mess:      "Internal server error",
		ErrorCode: apperrors.ErrCodeDBError,
	})
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Code:      0,
		Mess:      message,
		ErrorCode: apperrors.ErrCodeUnauthorized,
	})
}

func Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, ErrorResponse{
		Code:      0,
		Mess:      "Access denied",
		ErrorCode: apperrors.ErrCodeForbidden,
	})
}

// BadRequest reports a request that failed binding or validation.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:      0,
		Mess:      message,
		ErrorCode: apperrors.ErrCodeInvalidInput,
	})
}
