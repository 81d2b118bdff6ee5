package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jeevan-poddar/letushelp/internal/models"
	"gorm.io/gorm"
)

type CreateProviderProfileInput struct {
	City            string   `json:"city" binding:"required"`
	Bio             string   `json:"bio"`
	ExperienceYears int      `json:"experience_years" binding:"gte=0"`
	HourlyRate      *float64 `json:"hourly_rate"`
	ServiceIDs      []uint   `json:"service_ids" binding:"required,min=1"`
}

type UpdateProviderProfileInput struct {
	City            *string  `json:"city"`
	Bio             *string  `json:"bio"`
	ExperienceYears *int     `json:"experience_years"`
	HourlyRate      *float64 `json:"hourly_rate"`
	ServiceIDs      []uint   `json:"service_ids"`
}

// findProviderProfile loads the profile owned by userId with its service
// set. Shared by the request and booking handlers, which are all scoped to
// the caller's profile rather than trusting a client-supplied provider id.
func findProviderProfile(db *gorm.DB, userId uint) (*models.ProviderProfile, error) {
	var profile models.ProviderProfile
	if err := db.Preload("Services").Where("user_id = ?", userId).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func loadServices(db *gorm.DB, ids []uint) ([]models.Service, error) {
	var services []models.Service
	if err := db.Where("id IN ?", ids).Find(&services).Error; err != nil {
		return nil, err
	}
	if len(services) != len(ids) {
		return nil, gorm.ErrRecordNotFound
	}
	return services, nil
}

// CreateProviderProfile creates the caller's provider profile together
// with its offered-service links in one transaction.
func CreateProviderProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.UserRoleProvider) {
			c.JSON(403, gin.H{"error": "Provider access required"})
			return
		}

		var input CreateProviderProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		services, err := loadServices(db, input.ServiceIDs)
		if err != nil {
			c.JSON(400, gin.H{"error": "One or more service ids are invalid"})
			return
		}

		profile := models.ProviderProfile{
			UserID:          userId,
			City:            input.City,
			Bio:             input.Bio,
			ExperienceYears: input.ExperienceYears,
			HourlyRate:      input.HourlyRate,
			IsAvailable:     true,
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Create(&profile).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(409, gin.H{"error": "Provider profile already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create provider profile"})
			return
		}

		if err := tx.Model(&profile).Association("Services").Replace(services); err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to link services"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to complete transaction"})
			return
		}

		created, err := findProviderProfile(db, userId)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch provider profile"})
			return
		}

		c.JSON(201, gin.H{"profile": created})
	}
}

func GetProviderProfile(db *gorm.DB) gin.HandlerFunc {
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

		c.JSON(200, gin.H{"profile": profile})
	}
}

// UpdateProviderProfile applies a sparse update: only fields present in
// the request body change, and the service set is replaced wholesale when
// service_ids is supplied.
func UpdateProviderProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.UserRoleProvider) {
			c.JSON(403, gin.H{"error": "Provider access required"})
			return
		}

		var input UpdateProviderProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		profile, err := findProviderProfile(db, userId)
		if err != nil {
			c.JSON(404, gin.H{"error": "Provider profile not found"})
			return
		}

		updates := map[string]interface{}{}
		if input.City != nil {
			updates["city"] = *input.City
		}
		if input.Bio != nil {
			updates["bio"] = *input.Bio
		}
		if input.ExperienceYears != nil {
			if *input.ExperienceYears < 0 {
				c.JSON(400, gin.H{"error": "Experience years must be non-negative"})
				return
			}
			updates["experience_years"] = *input.ExperienceYears
		}
		if input.HourlyRate != nil {
			updates["hourly_rate"] = *input.HourlyRate
		}

		var services []models.Service
		if input.ServiceIDs != nil {
			services, err = loadServices(db, input.ServiceIDs)
			if err != nil {
				c.JSON(400, gin.H{"error": "One or more service ids are invalid"})
				return
			}
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if len(updates) > 0 {
			if err := tx.Model(&models.ProviderProfile{}).Where("id = ?", profile.ID).Updates(updates).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to update provider profile"})
				return
			}
		}

		if input.ServiceIDs != nil {
			if err := tx.Model(profile).Association("Services").Replace(services); err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to update services"})
				return
			}
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to complete transaction"})
			return
		}

		updated, err := findProviderProfile(db, userId)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch provider profile"})
			return
		}

		c.JSON(200, gin.H{"profile": updated})
	}
}

func ToggleAvailability(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.UserRoleProvider) {
			c.JSON(403, gin.H{"error": "Provider access required"})
			return
		}

		result := db.Model(&models.ProviderProfile{}).
			Where("user_id = ?", userId).
			Update("is_available", gorm.Expr("NOT is_available"))
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update availability"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Provider profile not found"})
			return
		}

		profile, err := findProviderProfile(db, userId)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch provider profile"})
			return
		}

		c.JSON(200, gin.H{"profile": profile})
	}
}
