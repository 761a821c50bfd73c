package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the JSON envelope of every portal endpoint that answers
// JSON callers.
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    Meta       `json:"meta"`
}

// ErrorInfo describes a failed request. Fields is set for validation
// failures, keyed by form field.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID  string      `json:"requestId"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination mirrors the paging of a donation report. TotalPages comes
// from the donation API, which owns the paging.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Success writes a success envelope.
func Success(c *gin.Context, code int, message string, data any) {
	write(c, code, Response{Success: true, Message: message, Data: data})
}

// SuccessWithPagination writes a success envelope carrying report paging.
func SuccessWithPagination(c *gin.Context, code int, message string, data any, p Pagination) {
	p.Page = max(p.Page, 1)
	resp := Response{Success: true, Message: message, Data: data}
	resp.Meta.Pagination = &p
	write(c, code, resp)
}

// Error writes an error envelope with an error code such as UNAUTHORIZED.
func Error(c *gin.Context, code int, errCode, message string) {
	write(c, code, Response{
		Message: message,
		Error:   &ErrorInfo{Code: errCode, Message: message},
	})
}

// ValidationError writes a 422 envelope listing the invalid form fields.
func ValidationError(c *gin.Context, fields map[string]string) {
	const msg = "Please correct the highlighted fields"
	write(c, 422, Response{
		Message: msg,
		Error:   &ErrorInfo{Code: "VALIDATION_FAILED", Message: msg, Fields: fields},
	})
}

// WantsJSON reports whether the caller asked for JSON rather than a page.
func WantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func write(c *gin.Context, code int, resp Response) {
	resp.Code = code
	resp.Meta.RequestID = getRequestID(c)
	resp.Meta.Timestamp = time.Now().Format(time.RFC3339)
	c.JSON(code, resp)
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
