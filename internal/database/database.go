package database

import (
	"fmt"
	"os"

	"github.com/jeevan-poddar/letushelp/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	// TranslateError maps driver-level unique violations to
	// gorm.ErrDuplicatedKey, which the handlers surface as 409s.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.ProviderProfile{},
		&models.ServiceRequest{},
		&models.Booking{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
