package models

import (
	"gorm.io/gorm"
)

// Service is static catalog data, seeded by migrations and read-only to
// the API.
type Service struct {
	gorm.Model
	Name        string `json:"name" gorm:"column:name;unique;not null"`
	Description string `json:"description" gorm:"column:description"`
}

func (Service) TableName() string {
	return "services"
}
