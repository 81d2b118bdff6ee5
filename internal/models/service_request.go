package models

import (
	"time"

	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusAccepted   RequestStatus = "accepted"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// ServiceRequest is a user's posted need for a service. Status only moves
// forward, driven by booking lifecycle events; the owner may delete it
// while it is still pending and never afterwards.
type ServiceRequest struct {
	gorm.Model
	UserID        uint          `json:"user_id" gorm:"column:user_id;not null;index"`
	User          User          `json:"user" gorm:"foreignKey:UserID"`
	ServiceID     uint          `json:"service_id" gorm:"column:service_id;not null"`
	Service       Service       `json:"service" gorm:"foreignKey:ServiceID"`
	Title         string        `json:"title" gorm:"column:title;not null"`
	Description   string        `json:"description" gorm:"column:description"`
	Address       string        `json:"address" gorm:"column:address;not null"`
	City          string        `json:"city" gorm:"column:city;not null"`
	PreferredDate *time.Time    `json:"preferred_date" gorm:"column:preferred_date"`
	PreferredTime string        `json:"preferred_time" gorm:"column:preferred_time"`
	BudgetMin     *float64      `json:"budget_min" gorm:"column:budget_min"`
	BudgetMax     *float64      `json:"budget_max" gorm:"column:budget_max"`
	Status        RequestStatus `json:"status" gorm:"column:status;not null;default:'pending'"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}
