package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jeevan-poddar/letushelp/internal/database"
	"github.com/jeevan-poddar/letushelp/internal/models"
	"github.com/jeevan-poddar/letushelp/pkg/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.ProviderProfile{},
		&models.ServiceRequest{},
		&models.Booking{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if err := database.SeedServices(db); err != nil {
		t.Fatalf("failed to seed services: %v", err)
	}

	return db
}

func setupRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, db)
	return r
}

// createUser inserts an account directly and returns it with a valid
// bearer token.
func createUser(t *testing.T, db *gorm.DB, email, role string) (models.User, string) {
	t.Helper()

	user := models.User{
		Email:     email,
		Role:      role,
		Password:  "secret123",
		FirstName: "Test",
		LastName:  "Person",
		Phone:     "9999900000",
	}
	if err := user.HashPassword(); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return user, token
}

func serviceByName(t *testing.T, db *gorm.DB, name string) models.Service {
	t.Helper()

	var service models.Service
	if err := db.Where("name = ?", name).First(&service).Error; err != nil {
		t.Fatalf("failed to find service %q: %v", name, err)
	}
	return service
}

// createProviderWithProfile sets up a provider account plus a profile
// offering the named services in the given city.
func createProviderWithProfile(t *testing.T, db *gorm.DB, email, city string, serviceNames ...string) (models.User, models.ProviderProfile, string) {
	t.Helper()

	user, token := createUser(t, db, email, string(models.UserRoleProvider))

	services := make([]models.Service, 0, len(serviceNames))
	for _, name := range serviceNames {
		services = append(services, serviceByName(t, db, name))
	}

	profile := models.ProviderProfile{
		UserID:      user.ID,
		City:        city,
		IsAvailable: true,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create provider profile: %v", err)
	}
	if err := db.Model(&profile).Association("Services").Replace(services); err != nil {
		t.Fatalf("failed to link services: %v", err)
	}

	return user, profile, token
}

func createPendingRequest(t *testing.T, db *gorm.DB, userId, serviceId uint, city string) models.ServiceRequest {
	t.Helper()

	request := models.ServiceRequest{
		UserID:    userId,
		ServiceID: serviceId,
		Title:     "Fix the kitchen sink",
		Address:   "12 MG Road",
		City:      city,
		Status:    models.RequestStatusPending,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to create service request: %v", err)
	}
	return request
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d (body: %s)", want, w.Code, w.Body.String())
	}
}
