package handlers

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/jeevan-poddar/letushelp/internal/models"
	"github.com/jeevan-poddar/letushelp/pkg/utils"
)

// Full lifecycle: request posted, matched, accepted, worked, completed,
// rated.
func TestBookingLifecycle(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	user, userToken := createUser(t, db, "asha@example.com", "user")
	_, _, providerToken := createProviderWithProfile(t, db, "ravi@example.com", "Noida", "Plumbing")
	plumbing := serviceByName(t, db, "Plumbing")

	request := createPendingRequest(t, db, user.ID, plumbing.ID, "Noida")

	w := doRequest(t, r, "GET", "/api/requests/provider", providerToken, nil)
	requireStatus(t, w, 200)
	if got := decodeBody(t, w)["requests"].([]interface{}); len(got) != 1 {
		t.Fatalf("provider should see the pending request, got %d entries", len(got))
	}

	w = doRequest(t, r, "POST", "/api/bookings", providerToken, map[string]interface{}{
		"request_id":     request.ID,
		"scheduled_date": "2026-09-15",
		"scheduled_time": "10:00",
		"final_price":    600.0,
		"notes":          "Bring spare washers",
	})
	requireStatus(t, w, 201)

	booking := decodeBody(t, w)["booking"].(map[string]interface{})
	if booking["status"] != "confirmed" {
		t.Fatalf("new bookings must start confirmed, got %v", booking["status"])
	}
	// The create response is the bare booking row; the associations are
	// only ever serialized through the list projections.
	if _, ok := booking["request"]; ok {
		t.Fatal("create response must not embed the request")
	}
	if _, ok := booking["provider"]; ok {
		t.Fatal("create response must not embed the provider profile")
	}
	ref, _ := booking["reference_id"].(string)
	if ok, _ := regexp.MatchString(`^BKG-\d{8}-[0-9A-F]{8}$`, ref); !ok {
		t.Fatalf("unexpected reference code %q", ref)
	}
	bookingId := uint(booking["ID"].(float64))

	var reloadedRequest models.ServiceRequest
	db.First(&reloadedRequest, request.ID)
	if reloadedRequest.Status != models.RequestStatusAccepted {
		t.Fatalf("request should be accepted after booking, got %s", reloadedRequest.Status)
	}

	statusPath := fmt.Sprintf("/api/bookings/%d/status", bookingId)
	requireStatus(t, doRequest(t, r, "PATCH", statusPath, providerToken, map[string]interface{}{"status": "in_progress"}), 200)

	db.First(&reloadedRequest, request.ID)
	if reloadedRequest.Status != models.RequestStatusInProgress {
		t.Fatalf("request should mirror in_progress, got %s", reloadedRequest.Status)
	}

	requireStatus(t, doRequest(t, r, "PATCH", statusPath, providerToken, map[string]interface{}{"status": "completed"}), 200)

	w = doRequest(t, r, "POST", fmt.Sprintf("/api/bookings/%d/rate", bookingId), userToken, map[string]interface{}{
		"rating": 5,
		"review": "Great job",
	})
	requireStatus(t, w, 200)

	var reloadedBooking models.Booking
	db.First(&reloadedBooking, bookingId)
	if reloadedBooking.Rating == nil || *reloadedBooking.Rating != 5 {
		t.Fatalf("expected rating 5, got %v", reloadedBooking.Rating)
	}

	// User's booking list carries the provider contact projection
	w = doRequest(t, r, "GET", "/api/bookings", userToken, nil)
	requireStatus(t, w, 200)
	bookings := decodeBody(t, w)["bookings"].([]interface{})
	if len(bookings) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(bookings))
	}
	view := bookings[0].(map[string]interface{})
	provider := view["provider"].(map[string]interface{})
	contact := provider["user"].(map[string]interface{})
	if contact["first_name"] == nil || contact["phone"] == nil {
		t.Fatal("expected provider contact details")
	}
	if _, exposed := contact["email"]; exposed {
		t.Fatal("counterpart projection must not carry the email")
	}

	// Provider's list joins the request and requester contact
	w = doRequest(t, r, "GET", "/api/bookings/provider", providerToken, nil)
	requireStatus(t, w, 200)
	bookings = decodeBody(t, w)["bookings"].([]interface{})
	if len(bookings) != 1 {
		t.Fatalf("expected 1 provider booking, got %d", len(bookings))
	}
	reqView := bookings[0].(map[string]interface{})["request"].(map[string]interface{})
	if reqView["title"] != "Fix the kitchen sink" {
		t.Fatalf("expected request details, got %v", reqView["title"])
	}
}

func TestCreateBookingExclusivity(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	user, _ := createUser(t, db, "u@example.com", "user")
	plumbing := serviceByName(t, db, "Plumbing")
	request := createPendingRequest(t, db, user.ID, plumbing.ID, "Noida")

	_, _, firstToken := createProviderWithProfile(t, db, "first@example.com", "Noida", "Plumbing")
	_, _, secondToken := createProviderWithProfile(t, db, "second@example.com", "Noida", "Plumbing")

	payload := map[string]interface{}{"request_id": request.ID}

	requireStatus(t, doRequest(t, r, "POST", "/api/bookings", firstToken, payload), 201)

	// The status pre-check catches the ordinary case.
	requireStatus(t, doRequest(t, r, "POST", "/api/bookings", secondToken, payload), 409)

	// Simulate the race where both providers read the request as pending:
	// put the status back without touching the booking row, so only the
	// unique index on request_id stands in the way.
	db.Model(&models.ServiceRequest{}).Where("id = ?", request.ID).Update("status", models.RequestStatusPending)
	requireStatus(t, doRequest(t, r, "POST", "/api/bookings", secondToken, payload), 409)

	var count int64
	db.Model(&models.Booking{}).Where("request_id = ?", request.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one booking for the request, got %d", count)
	}
}

func TestCreateBookingGuards(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	user, userToken := createUser(t, db, "u@example.com", "user")
	plumbing := serviceByName(t, db, "Plumbing")
	request := createPendingRequest(t, db, user.ID, plumbing.ID, "Noida")

	// Users cannot accept requests
	requireStatus(t, doRequest(t, r, "POST", "/api/bookings", userToken, map[string]interface{}{"request_id": request.ID}), 403)

	// Providers without a profile cannot either
	_, bareToken := createUser(t, db, "bare@example.com", "provider")
	requireStatus(t, doRequest(t, r, "POST", "/api/bookings", bareToken, map[string]interface{}{"request_id": request.ID}), 404)

	// Unknown request
	_, _, providerToken := createProviderWithProfile(t, db, "pro@example.com", "Noida", "Plumbing")
	requireStatus(t, doRequest(t, r, "POST", "/api/bookings", providerToken, map[string]interface{}{"request_id": 99999}), 404)
}

func TestStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	user, _ := createUser(t, db, "u@example.com", "user")
	plumbing := serviceByName(t, db, "Plumbing")
	_, profile, providerToken := createProviderWithProfile(t, db, "pro@example.com", "Noida", "Plumbing")

	newBooking := func(status models.BookingStatus) models.Booking {
		request := createPendingRequest(t, db, user.ID, plumbing.ID, "Noida")
		db.Model(&request).Update("status", models.RequestStatusAccepted)
		booking := models.Booking{
			RequestID:   request.ID,
			ProviderID:  profile.ID,
			ReferenceID: utils.GenerateBookingReference(),
			Status:      status,
		}
		if err := db.Create(&booking).Error; err != nil {
			t.Fatalf("failed to create booking: %v", err)
		}
		return booking
	}

	patch := func(id uint, status string) int {
		w := doRequest(t, r, "PATCH", fmt.Sprintf("/api/bookings/%d/status", id), providerToken, map[string]interface{}{"status": status})
		return w.Code
	}

	// Terminal states are dead ends
	completed := newBooking(models.BookingStatusCompleted)
	if code := patch(completed.ID, "in_progress"); code != 409 {
		t.Fatalf("completed booking must not move, got %d", code)
	}
	cancelled := newBooking(models.BookingStatusCancelled)
	if code := patch(cancelled.ID, "completed"); code != 409 {
		t.Fatalf("cancelled booking must not move, got %d", code)
	}

	// No way back to confirmed
	inProgress := newBooking(models.BookingStatusInProgress)
	if code := patch(inProgress.ID, "confirmed"); code != 409 {
		t.Fatalf("in_progress booking must not revert to confirmed, got %d", code)
	}

	// Lenient default allows skipping in_progress
	skipper := newBooking(models.BookingStatusConfirmed)
	if code := patch(skipper.ID, "completed"); code != 200 {
		t.Fatalf("confirmed booking should complete directly by default, got %d", code)
	}

	// Cancellation works from confirmed and in_progress
	cancelMe := newBooking(models.BookingStatusConfirmed)
	if code := patch(cancelMe.ID, "cancelled"); code != 200 {
		t.Fatalf("confirmed booking should cancel, got %d", code)
	}

	// Unknown status values fail validation
	fresh := newBooking(models.BookingStatusConfirmed)
	if code := patch(fresh.ID, "paused"); code != 400 {
		t.Fatalf("unknown status must be rejected, got %d", code)
	}
}

func TestStatusTransitionsStrictMode(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)
	t.Setenv("BOOKING_STRICT_TRANSITIONS", "true")

	user, _ := createUser(t, db, "u@example.com", "user")
	plumbing := serviceByName(t, db, "Plumbing")
	_, profile, providerToken := createProviderWithProfile(t, db, "pro@example.com", "Noida", "Plumbing")

	request := createPendingRequest(t, db, user.ID, plumbing.ID, "Noida")
	db.Model(&request).Update("status", models.RequestStatusAccepted)
	booking := models.Booking{
		RequestID:   request.ID,
		ProviderID:  profile.ID,
		ReferenceID: utils.GenerateBookingReference(),
		Status:      models.BookingStatusConfirmed,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	path := fmt.Sprintf("/api/bookings/%d/status", booking.ID)

	// Strict mode requires in_progress before completed
	requireStatus(t, doRequest(t, r, "PATCH", path, providerToken, map[string]interface{}{"status": "completed"}), 409)
	requireStatus(t, doRequest(t, r, "PATCH", path, providerToken, map[string]interface{}{"status": "in_progress"}), 200)
	requireStatus(t, doRequest(t, r, "PATCH", path, providerToken, map[string]interface{}{"status": "completed"}), 200)
}

func TestStatusUpdateScopedToOwningProvider(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	user, _ := createUser(t, db, "u@example.com", "user")
	plumbing := serviceByName(t, db, "Plumbing")
	_, owner, _ := createProviderWithProfile(t, db, "owner@example.com", "Noida", "Plumbing")
	_, _, rivalToken := createProviderWithProfile(t, db, "rival@example.com", "Noida", "Plumbing")

	request := createPendingRequest(t, db, user.ID, plumbing.ID, "Noida")
	db.Model(&request).Update("status", models.RequestStatusAccepted)
	booking := models.Booking{
		RequestID:   request.ID,
		ProviderID:  owner.ID,
		ReferenceID: utils.GenerateBookingReference(),
		Status:      models.BookingStatusConfirmed,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	// Another provider gets the same answer as for a missing booking
	w := doRequest(t, r, "PATCH", fmt.Sprintf("/api/bookings/%d/status", booking.ID), rivalToken, map[string]interface{}{"status": "in_progress"})
	requireStatus(t, w, 404)

	var reloaded models.Booking
	db.First(&reloaded, booking.ID)
	if reloaded.Status != models.BookingStatusConfirmed {
		t.Fatalf("booking must be untouched, got %s", reloaded.Status)
	}
}

func TestUpdateBookingMergePatch(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	user, _ := createUser(t, db, "u@example.com", "user")
	plumbing := serviceByName(t, db, "Plumbing")
	_, profile, providerToken := createProviderWithProfile(t, db, "pro@example.com", "Noida", "Plumbing")

	request := createPendingRequest(t, db, user.ID, plumbing.ID, "Noida")
	db.Model(&request).Update("status", models.RequestStatusAccepted)
	price := 750.0
	booking := models.Booking{
		RequestID:   request.ID,
		ProviderID:  profile.ID,
		ReferenceID: utils.GenerateBookingReference(),
		Status:      models.BookingStatusConfirmed,
		FinalPrice:  &price,
		Notes:       "Initial notes",
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	// Only notes in the body: price must not be nulled out
	w := doRequest(t, r, "PUT", fmt.Sprintf("/api/bookings/%d", booking.ID), providerToken, map[string]interface{}{
		"notes": "Customer prefers mornings",
	})
	requireStatus(t, w, 200)

	var reloaded models.Booking
	db.First(&reloaded, booking.ID)
	if reloaded.Notes != "Customer prefers mornings" {
		t.Fatalf("notes not updated: %q", reloaded.Notes)
	}
	if reloaded.FinalPrice == nil || *reloaded.FinalPrice != 750.0 {
		t.Fatalf("final price must be untouched, got %v", reloaded.FinalPrice)
	}

	// Empty patch is a validation error
	requireStatus(t, doRequest(t, r, "PUT", fmt.Sprintf("/api/bookings/%d", booking.ID), providerToken, map[string]interface{}{}), 400)
}

func TestRateBookingGuards(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	user, userToken := createUser(t, db, "u@example.com", "user")
	_, strangerToken := createUser(t, db, "stranger@example.com", "user")
	plumbing := serviceByName(t, db, "Plumbing")
	_, profile, _ := createProviderWithProfile(t, db, "pro@example.com", "Noida", "Plumbing")

	request := createPendingRequest(t, db, user.ID, plumbing.ID, "Noida")
	db.Model(&request).Update("status", models.RequestStatusAccepted)
	booking := models.Booking{
		RequestID:   request.ID,
		ProviderID:  profile.ID,
		ReferenceID: utils.GenerateBookingReference(),
		Status:      models.BookingStatusInProgress,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	path := fmt.Sprintf("/api/bookings/%d/rate", booking.ID)

	// Not completed yet
	requireStatus(t, doRequest(t, r, "POST", path, userToken, map[string]interface{}{"rating": 5}), 400)

	db.Model(&booking).Update("status", models.BookingStatusCompleted)

	// Not the requester
	requireStatus(t, doRequest(t, r, "POST", path, strangerToken, map[string]interface{}{"rating": 5}), 403)

	// Out of range
	requireStatus(t, doRequest(t, r, "POST", path, userToken, map[string]interface{}{"rating": 6}), 400)
	requireStatus(t, doRequest(t, r, "POST", path, userToken, map[string]interface{}{"rating": 0}), 400)

	// First rating sticks
	requireStatus(t, doRequest(t, r, "POST", path, userToken, map[string]interface{}{"rating": 4, "review": "Fine work"}), 200)

	// Re-rating is rejected, not overwritten
	requireStatus(t, doRequest(t, r, "POST", path, userToken, map[string]interface{}{"rating": 1}), 409)

	var reloaded models.Booking
	db.First(&reloaded, booking.ID)
	if reloaded.Rating == nil || *reloaded.Rating != 4 {
		t.Fatalf("original rating must survive, got %v", reloaded.Rating)
	}
}
