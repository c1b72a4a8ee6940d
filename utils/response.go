package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmed-mouatassim/saleflow/config"
)

// Success writes the uniform envelope. data may be nil for delete-style
// responses; when present the "data" key is always included.
func Success(c *gin.Context, message string, data interface{}) {
	resp := gin.H{"success": true, "message": message}
	if data != nil {
		resp["data"] = data
	}
	c.JSON(http.StatusOK, resp)
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// ServerError logs the real failure and returns a generic message. The
// underlying error text never reaches the client.
func ServerError(c *gin.Context, module string, handler string, err error) {
	config.LogError(module, handler, c.Request.Method+" "+c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Internal server error",
	})
}
