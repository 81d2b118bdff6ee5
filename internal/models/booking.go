package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// Booking is a provider's accepted claim on a service request. The unique
// index on request_id is the exclusivity guarantee: at most one booking
// may ever reference a given request, and the database arbitrates races
// between concurrent acceptances.
type Booking struct {
	gorm.Model
	RequestID         uint            `json:"request_id" gorm:"column:request_id;uniqueIndex;not null"`
	Request           ServiceRequest  `json:"-" gorm:"foreignKey:RequestID"`
	ProviderID        uint            `json:"provider_id" gorm:"column:provider_id;not null;index"`
	Provider          ProviderProfile `json:"-" gorm:"foreignKey:ProviderID"`
	ReferenceID       string          `json:"reference_id" gorm:"column:reference_id;not null"`
	ScheduledDate     *time.Time      `json:"scheduled_date" gorm:"column:scheduled_date"`
	ScheduledTime     string          `json:"scheduled_time" gorm:"column:scheduled_time"`
	EstimatedDuration *int            `json:"estimated_duration" gorm:"column:estimated_duration"`
	FinalPrice        *float64        `json:"final_price" gorm:"column:final_price"`
	Status            BookingStatus   `json:"status" gorm:"column:status;not null;default:'confirmed'"`
	Notes             string          `json:"notes" gorm:"column:notes"`
	Rating            *int            `json:"rating" gorm:"column:rating"`
	Review            *string         `json:"review" gorm:"column:review"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsTerminal reports whether the booking can no longer change status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}
