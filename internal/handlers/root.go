package handlers

import (
	"net/http"

	"do-todo/internal/models"

	"github.com/gin-gonic/gin"
)

// Root handles GET /
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Hello World"})
}
