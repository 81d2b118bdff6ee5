package handlers

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeevan-poddar/letushelp/internal/models"
	"github.com/jeevan-poddar/letushelp/pkg/utils"
	"gorm.io/gorm"
)

type CreateBookingInput struct {
	RequestID         uint     `json:"request_id" binding:"required"`
	ScheduledDate     string   `json:"scheduled_date"`
	ScheduledTime     string   `json:"scheduled_time"`
	EstimatedDuration *int     `json:"estimated_duration"`
	FinalPrice        *float64 `json:"final_price"`
	Notes             string   `json:"notes"`
}

type UpdateBookingInput struct {
	ScheduledDate     *string  `json:"scheduled_date"`
	ScheduledTime     *string  `json:"scheduled_time"`
	EstimatedDuration *int     `json:"estimated_duration"`
	FinalPrice        *float64 `json:"final_price"`
	Notes             *string  `json:"notes"`
}

type RateBookingInput struct {
	Rating int     `json:"rating" binding:"required,gte=1,lte=5"`
	Review *string `json:"review"`
}

// CreateBooking accepts a pending service request on behalf of the calling
// provider. The booking insert and the request's flip to accepted commit
// in one transaction. The pending pre-check is only a fast path: two
// providers can race past it, and the unique index on request_id is what
// actually guarantees at most one booking per request.
func CreateBooking(db *gorm.DB) gin.HandlerFunc {
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

		var input CreateBookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var scheduledDate *time.Time
		if input.ScheduledDate != "" {
			parsed, err := time.Parse("2006-01-02", input.ScheduledDate)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid scheduled date format, use YYYY-MM-DD"})
				return
			}
			scheduledDate = &parsed
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		var request models.ServiceRequest
		if err := tx.First(&request, input.RequestID).Error; err != nil {
			tx.Rollback()
			c.JSON(404, gin.H{"error": "Service request not found"})
			return
		}

		if request.Status != models.RequestStatusPending {
			tx.Rollback()
			c.JSON(409, gin.H{"error": "Service request is no longer available"})
			return
		}

		booking := models.Booking{
			RequestID:         request.ID,
			ProviderID:        profile.ID,
			ReferenceID:       utils.GenerateBookingReference(),
			ScheduledDate:     scheduledDate,
			ScheduledTime:     input.ScheduledTime,
			EstimatedDuration: input.EstimatedDuration,
			FinalPrice:        input.FinalPrice,
			Status:            models.BookingStatusConfirmed,
			Notes:             input.Notes,
		}

		if err := tx.Create(&booking).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(409, gin.H{"error": "This request has already been accepted"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create booking"})
			return
		}

		if err := tx.Model(&request).Update("status", models.RequestStatusAccepted).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to update request status"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to complete transaction"})
			return
		}

		c.JSON(201, gin.H{"booking": booking})
	}
}

// GetUserBookings lists bookings against the caller's requests, including
// the accepting provider's contact summary.
func GetUserBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var bookings []models.Booking
		if err := db.
			Joins("JOIN service_requests sr ON sr.id = bookings.request_id").
			Where("sr.user_id = ?", userId).
			Preload("Request").
			Preload("Request.Service").
			Preload("Request.User").
			Preload("Provider").
			Preload("Provider.User").
			Order("bookings.created_at DESC").
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		views := make([]models.BookingWithDetails, 0, len(bookings))
		for _, booking := range bookings {
			views = append(views, models.NewBookingWithDetails(booking, true))
		}

		c.JSON(200, gin.H{"bookings": views})
	}
}

// GetProviderBookings lists the calling provider's bookings with the
// requester's contact summary.
func GetProviderBookings(db *gorm.DB) gin.HandlerFunc {
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

		var bookings []models.Booking
		if err := db.
			Where("provider_id = ?", profile.ID).
			Preload("Request").
			Preload("Request.Service").
			Preload("Request.User").
			Order("created_at DESC").
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		views := make([]models.BookingWithDetails, 0, len(bookings))
		for _, booking := range bookings {
			views = append(views, models.NewBookingWithDetails(booking, false))
		}

		c.JSON(200, gin.H{"bookings": views})
	}
}

// allowedPriorStatuses returns the statuses a booking may currently hold
// for a move to target to be legal. Terminal statuses are never included,
// and nothing transitions back to confirmed. Strict mode additionally
// requires completed to come through in_progress.
func allowedPriorStatuses(target models.BookingStatus, strict bool) []models.BookingStatus {
	switch target {
	case models.BookingStatusConfirmed:
		return []models.BookingStatus{models.BookingStatusConfirmed}
	case models.BookingStatusInProgress:
		return []models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusInProgress}
	case models.BookingStatusCompleted:
		if strict {
			return []models.BookingStatus{models.BookingStatusInProgress}
		}
		return []models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusInProgress}
	case models.BookingStatusCancelled:
		return []models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusInProgress}
	}
	return nil
}

func requestStatusFor(status models.BookingStatus) models.RequestStatus {
	switch status {
	case models.BookingStatusInProgress:
		return models.RequestStatusInProgress
	case models.BookingStatusCompleted:
		return models.RequestStatusCompleted
	case models.BookingStatusCancelled:
		return models.RequestStatusCancelled
	}
	return models.RequestStatusAccepted
}

func strictTransitionsEnabled() bool {
	return os.Getenv("BOOKING_STRICT_TRANSITIONS") == "true"
}

// UpdateBookingStatus advances a booking through its lifecycle. Ownership
// and the legal prior statuses are part of the UPDATE's WHERE clause, so
// another provider's booking can never be touched, not even between a read
// and a write. The linked request mirrors the move in the same
// transaction.
func UpdateBookingStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.UserRoleProvider) {
			c.JSON(403, gin.H{"error": "Provider access required"})
			return
		}

		bookingId, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		var input struct {
			Status string `json:"status" binding:"required,oneof=confirmed in_progress completed cancelled"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		profile, err := findProviderProfile(db, userId)
		if err != nil {
			c.JSON(404, gin.H{"error": "Provider profile not found"})
			return
		}

		newStatus := models.BookingStatus(input.Status)
		allowed := allowedPriorStatuses(newStatus, strictTransitionsEnabled())

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		result := tx.Model(&models.Booking{}).
			Where("id = ? AND provider_id = ? AND status IN ?", bookingId, profile.ID, allowed).
			Update("status", newStatus)
		if result.Error != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to update booking status"})
			return
		}

		if result.RowsAffected == 0 {
			tx.Rollback()
			// Not found and not-yours are deliberately the same answer;
			// only a booking the caller owns reveals its current status.
			var existing models.Booking
			if err := db.Where("id = ? AND provider_id = ?", bookingId, profile.ID).First(&existing).Error; err != nil {
				c.JSON(404, gin.H{"error": "Booking not found"})
				return
			}
			c.JSON(409, gin.H{"error": fmt.Sprintf("Booking cannot move from %s to %s", existing.Status, newStatus)})
			return
		}

		var booking models.Booking
		if err := tx.First(&booking, bookingId).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to fetch booking"})
			return
		}

		if newStatus != models.BookingStatusConfirmed {
			if err := tx.Model(&models.ServiceRequest{}).
				Where("id = ?", booking.RequestID).
				Update("status", requestStatusFor(newStatus)).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to update request status"})
				return
			}
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to complete transaction"})
			return
		}

		c.JSON(200, gin.H{"booking": booking})
	}
}

// UpdateBooking applies a merge patch to the scheduling fields: fields
// absent from the body stay untouched.
func UpdateBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.UserRoleProvider) {
			c.JSON(403, gin.H{"error": "Provider access required"})
			return
		}

		bookingId, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		var input UpdateBookingInput
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
		if input.ScheduledDate != nil {
			parsed, err := time.Parse("2006-01-02", *input.ScheduledDate)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid scheduled date format, use YYYY-MM-DD"})
				return
			}
			updates["scheduled_date"] = parsed
		}
		if input.ScheduledTime != nil {
			updates["scheduled_time"] = *input.ScheduledTime
		}
		if input.EstimatedDuration != nil {
			updates["estimated_duration"] = *input.EstimatedDuration
		}
		if input.FinalPrice != nil {
			updates["final_price"] = *input.FinalPrice
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}

		if len(updates) == 0 {
			c.JSON(400, gin.H{"error": "No fields to update"})
			return
		}

		result := db.Model(&models.Booking{}).
			Where("id = ? AND provider_id = ?", bookingId, profile.ID).
			Updates(updates)
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update booking"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		var booking models.Booking
		if err := db.First(&booking, bookingId).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch booking"})
			return
		}

		c.JSON(200, gin.H{"booking": booking})
	}
}

// RateBooking records a one-time rating by the user whose request the
// booking fulfilled. The rating IS NULL guard in the WHERE clause keeps a
// concurrent double submission from overwriting the first rating.
func RateBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		bookingId, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		var input RateBookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var booking models.Booking
		if err := db.Preload("Request").First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.Request.UserID != userId {
			c.JSON(403, gin.H{"error": "Only the requester can rate this booking"})
			return
		}

		if booking.Status != models.BookingStatusCompleted {
			c.JSON(400, gin.H{"error": "Only completed bookings can be rated"})
			return
		}

		if booking.Rating != nil {
			c.JSON(409, gin.H{"error": "Booking has already been rated"})
			return
		}

		result := db.Model(&models.Booking{}).
			Where("id = ? AND status = ? AND rating IS NULL", bookingId, models.BookingStatusCompleted).
			Updates(map[string]interface{}{
				"rating": input.Rating,
				"review": input.Review,
			})
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to save rating"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(409, gin.H{"error": "Booking has already been rated"})
			return
		}

		if err := db.Preload("Request").First(&booking, bookingId).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch booking"})
			return
		}

		c.JSON(200, gin.H{"booking": booking})
	}
}
