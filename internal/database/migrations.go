package database

import (
	"github.com/jeevan-poddar/letushelp/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.ProviderProfile{},
		&models.ServiceRequest{},
		&models.Booking{},
	)
	if err != nil {
		return err
	}

	// Status check constraints
	if db.Migrator().HasTable(&models.User{}) {
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`)
		db.Exec(`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('user', 'provider'))`)
	}

	if db.Migrator().HasTable(&models.ServiceRequest{}) {
		db.Exec(`ALTER TABLE service_requests DROP CONSTRAINT IF EXISTS service_requests_status_check`)
		db.Exec(`ALTER TABLE service_requests ADD CONSTRAINT service_requests_status_check CHECK (status IN ('pending', 'accepted', 'in_progress', 'completed', 'cancelled'))`)
	}

	if db.Migrator().HasTable(&models.Booking{}) {
		db.Exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`)
		db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('confirmed', 'in_progress', 'completed', 'cancelled'))`)
		db.Exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_rating_check`)
		db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_rating_check CHECK (rating IS NULL OR (rating >= 1 AND rating <= 5))`)
	}

	return SeedServices(db)
}

// SeedServices inserts the static service catalog. Existing rows are left
// untouched so re-running migrations is safe.
func SeedServices(db *gorm.DB) error {
	services := []models.Service{
		{Name: "Plumbing", Description: "Pipe repairs, leak fixing, fittings and bathroom installations"},
		{Name: "Electrical", Description: "Wiring, switchboards, appliance connections and fault fixing"},
		{Name: "Carpentry", Description: "Furniture repair, woodwork and custom fittings"},
		{Name: "Cleaning", Description: "Home and office deep cleaning"},
		{Name: "Painting", Description: "Interior and exterior wall painting"},
		{Name: "Appliance Repair", Description: "Repair of household appliances"},
		{Name: "Pest Control", Description: "Treatment for insects and rodents"},
		{Name: "Gardening", Description: "Lawn care, planting and garden maintenance"},
	}

	for _, service := range services {
		var existing models.Service
		err := db.Where("name = ?", service.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&service).Error; err != nil {
			return err
		}
	}

	return nil
}
