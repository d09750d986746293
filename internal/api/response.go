// Package api is the gin HTTP layer: a fixed response envelope, bearer
// token auth and one handler per dashboard domain.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the wire shape of every response. Data carries the payload
// on success, Error the reason otherwise. A successful read with no
// stored snapshot returns success with null data.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, reason string) {
	c.JSON(status, Envelope{Success: false, Message: "request failed", Error: reason})
}
