package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AdaptersController struct {
	registry AdapterLister
}

func NewAdaptersController(registry AdapterLister) *AdaptersController {
	return &AdaptersController{registry: registry}
}

// List handles GET /api/adapters
func (ac *AdaptersController) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"adapters": ac.registry.List()})
}
