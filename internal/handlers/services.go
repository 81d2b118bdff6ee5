package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jeevan-poddar/letushelp/internal/models"
	"gorm.io/gorm"
)

// GetServices lists the static service catalog.
func GetServices(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var services []models.Service
		if err := db.Order("name").Find(&services).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch services"})
			return
		}

		c.JSON(200, gin.H{"services": services})
	}
}
