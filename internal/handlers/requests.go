package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeevan-poddar/letushelp/internal/models"
	"gorm.io/gorm"
)

type CreateServiceRequestInput struct {
	ServiceID     uint     `json:"service_id" binding:"required"`
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Address       string   `json:"address" binding:"required"`
	City          string   `json:"city" binding:"required"`
	PreferredDate string   `json:"preferred_date"`
	PreferredTime string   `json:"preferred_time"`
	BudgetMin     *float64 `json:"budget_min"`
	BudgetMax     *float64 `json:"budget_max"`
}

// CreateRequest posts a new service request. Any authenticated identity
// may create one; it starts out pending.
func CreateRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input CreateServiceRequestInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var service models.Service
		if err := db.First(&service, input.ServiceID).Error; err != nil {
			c.JSON(400, gin.H{"error": "Invalid service id"})
			return
		}

		var preferredDate *time.Time
		if input.PreferredDate != "" {
			parsed, err := time.Parse("2006-01-02", input.PreferredDate)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid preferred date format, use YYYY-MM-DD"})
				return
			}
			preferredDate = &parsed
		}

		request := models.ServiceRequest{
			UserID:        userId,
			ServiceID:     input.ServiceID,
			Title:         input.Title,
			Description:   input.Description,
			Address:       input.Address,
			City:          input.City,
			PreferredDate: preferredDate,
			PreferredTime: input.PreferredTime,
			BudgetMin:     input.BudgetMin,
			BudgetMax:     input.BudgetMax,
			Status:        models.RequestStatusPending,
		}

		if err := db.Create(&request).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create service request"})
			return
		}

		if err := db.Preload("Service").Preload("User").First(&request, request.ID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch service request"})
			return
		}

		c.JSON(201, gin.H{"request": models.NewRequestWithDetails(request)})
	}
}

// GetUserRequests lists the caller's own requests, newest first.
func GetUserRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var requests []models.ServiceRequest
		if err := db.Where("user_id = ?", userId).
			Preload("Service").
			Preload("User").
			Order("created_at DESC").
			Find(&requests).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch requests"})
			return
		}

		views := make([]models.RequestWithDetails, 0, len(requests))
		for _, request := range requests {
			views = append(views, models.NewRequestWithDetails(request))
		}

		c.JSON(200, gin.H{"requests": views})
	}
}

// GetProviderRequests computes the matching set for the calling provider:
// pending requests in the provider's city (case-insensitive) whose service
// the provider offers and which no booking has claimed yet.
func GetProviderRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.UserRoleProvider) {
			c.JSON(403, gin.H{"error": "Provider access required"})
			return
		}

		profile, err := findProviderProfile(db, userId)
		if err != nil {
			c.JSON(404, gin.H{"error": "Provider profile not found"})
			return
		}

		var requests []models.ServiceRequest
		if err := db.
			Joins("JOIN provider_services ps ON ps.service_id = service_requests.service_id AND ps.provider_profile_id = ?", profile.ID).
			Where("service_requests.status = ?", models.RequestStatusPending).
			Where("LOWER(service_requests.city) = LOWER(?)", profile.City).
			Where("NOT EXISTS (SELECT 1 FROM bookings b WHERE b.request_id = service_requests.id AND b.deleted_at IS NULL)").
			Preload("Service").
			Preload("User").
			Order("service_requests.created_at DESC").
			Find(&requests).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch requests"})
			return
		}

		views := make([]models.RequestWithDetails, 0, len(requests))
		for _, request := range requests {
			views = append(views, models.NewRequestWithDetails(request))
		}

		c.JSON(200, gin.H{"requests": views})
	}
}

// DeleteRequest removes one of the caller's requests while it is still
// pending. Ownership and the pending guard live in the delete's WHERE
// clause, so a miss for any reason reads as not found.
func DeleteRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		requestId, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request ID"})
			return
		}

		result := db.Where("id = ? AND user_id = ? AND status = ?", requestId, userId, models.RequestStatusPending).
			Delete(&models.ServiceRequest{})
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to delete request"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Request not found or cannot be deleted"})
			return
		}

		c.JSON(200, gin.H{"message": "Request deleted successfully"})
	}
}
