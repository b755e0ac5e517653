package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope. Data may accompany an error (e.g. field errors).
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404 with optional detail.
func NotFound(c *gin.Context, err string, detail ...interface{}) {
	c.JSON(http.StatusNotFound, failure(err, detail))
}

// Conflict sends 409 with optional detail.
func Conflict(c *gin.Context, err string, detail ...interface{}) {
	c.JSON(http.StatusConflict, failure(err, detail))
}

// Unprocessable sends 422 with per-field messages.
func Unprocessable(c *gin.Context, err string, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, Body{Success: false, Error: err, Data: fields})
}

// BadGateway sends 502 when a collaborator call failed, with optional detail.
func BadGateway(c *gin.Context, err string, detail ...interface{}) {
	c.JSON(http.StatusBadGateway, failure(err, detail))
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

func failure(err string, detail []interface{}) Body {
	b := Body{Success: false, Error: err}
	if len(detail) > 0 {
		b.Data = detail[0]
	}
	return b
}
