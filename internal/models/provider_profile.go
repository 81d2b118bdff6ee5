package models

import (
	"gorm.io/gorm"
)

// ProviderProfile holds a provider's service area and offering. At most
// one profile exists per user; the offered-service set is replaced
// wholesale on update, never merged.
type ProviderProfile struct {
	gorm.Model
	UserID          uint      `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`
	User            User      `json:"-" gorm:"foreignKey:UserID"`
	City            string    `json:"city" gorm:"column:city;not null"`
	Bio             string    `json:"bio" gorm:"column:bio"`
	ExperienceYears int       `json:"experience_years" gorm:"column:experience_years;default:0"`
	HourlyRate      *float64  `json:"hourly_rate" gorm:"column:hourly_rate"`
	IsAvailable     bool      `json:"is_available" gorm:"column:is_available;default:true"`
	Services        []Service `json:"services" gorm:"many2many:provider_services;"`
}

func (ProviderProfile) TableName() string {
	return "provider_profiles"
}
