package models

import "time"

// Read-model projections returned by list endpoints. Counterpart contact
// details carry name and phone only; credential data never leaves the
// users table.

type ContactInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type ProviderSummary struct {
	User       ContactInfo `json:"user"`
	City       string      `json:"city"`
	HourlyRate *float64    `json:"hourly_rate"`
}

type RequestWithDetails struct {
	ID            uint          `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	PreferredDate *time.Time    `json:"preferred_date"`
	PreferredTime string        `json:"preferred_time"`
	BudgetMin     *float64      `json:"budget_min"`
	BudgetMax     *float64      `json:"budget_max"`
	Status        RequestStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	Service       Service       `json:"service"`
	User          ContactInfo   `json:"user"`
}

type BookingWithDetails struct {
	ID                uint               `json:"id"`
	ReferenceID       string             `json:"reference_id"`
	ScheduledDate     *time.Time         `json:"scheduled_date"`
	ScheduledTime     string             `json:"scheduled_time"`
	EstimatedDuration *int               `json:"estimated_duration"`
	FinalPrice        *float64           `json:"final_price"`
	Status            BookingStatus      `json:"status"`
	Notes             string             `json:"notes"`
	Rating            *int               `json:"rating"`
	Review            *string            `json:"review"`
	CreatedAt         time.Time          `json:"created_at"`
	Request           RequestWithDetails `json:"request"`
	Provider          *ProviderSummary   `json:"provider"`
}

func NewContactInfo(u User) ContactInfo {
	return ContactInfo{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// NewRequestWithDetails builds the projection from a request with its
// Service and User associations loaded.
func NewRequestWithDetails(r ServiceRequest) RequestWithDetails {
	return RequestWithDetails{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Address:       r.Address,
		City:          r.City,
		PreferredDate: r.PreferredDate,
		PreferredTime: r.PreferredTime,
		BudgetMin:     r.BudgetMin,
		BudgetMax:     r.BudgetMax,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		Service:       r.Service,
		User:          NewContactInfo(r.User),
	}
}

// NewBookingWithDetails builds the projection from a booking with its
// Request (and that request's Service and User) loaded. The provider
// summary is filled only when the provider's profile and user are loaded;
// providers listing their own bookings do not need it.
func NewBookingWithDetails(b Booking, includeProvider bool) BookingWithDetails {
	view := BookingWithDetails{
		ID:                b.ID,
		ReferenceID:       b.ReferenceID,
		ScheduledDate:     b.ScheduledDate,
		ScheduledTime:     b.ScheduledTime,
		EstimatedDuration: b.EstimatedDuration,
		FinalPrice:        b.FinalPrice,
		Status:            b.Status,
		Notes:             b.Notes,
		Rating:            b.Rating,
		Review:            b.Review,
		CreatedAt:         b.CreatedAt,
		Request:           NewRequestWithDetails(b.Request),
	}
	if includeProvider {
		view.Provider = &ProviderSummary{
			User:       NewContactInfo(b.Provider.User),
			City:       b.Provider.City,
			HourlyRate: b.Provider.HourlyRate,
		}
	}
	return view
}
