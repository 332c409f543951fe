package catalog

import "time"

// Restaurant is a catalog record. The catalog is loaded once at startup and
// never mutated afterwards, so records can be shared across sessions freely.
type Restaurant struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Cuisine         string            `json:"cuisine"`
	Location        string            `json:"location"`
	Address         string            `json:"address"`
	SeatingCapacity int               `json:"seating_capacity"`
	OpeningHours    map[string]string `json:"opening_hours"`
	Rating          float64           `json:"rating"`
	Description     string            `json:"description"`
	Tags            []string          `json:"tags"`
}

// Reservation is created only by a successful booking. It lives in process
// memory for the lifetime of the Store and is never persisted.
type Reservation struct {
	ConfirmationCode string    `json:"confirmation_code"`
	RestaurantName   string    `json:"restaurant_name"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	PartySize        int       `json:"party_size"`
	UserName         string    `json:"user_name"`
	UserPhone        string    `json:"user_phone"`
	CreatedAt        time.Time `json:"created_at"`
}

// FailureReason classifies why an availability check or booking was declined.
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonNotFound         FailureReason = "not_found"
	ReasonInvalidFormat    FailureReason = "invalid_format"
	ReasonCapacityExceeded FailureReason = "capacity_exceeded"
	ReasonClosed           FailureReason = "closed"
	ReasonOutOfHours       FailureReason = "out_of_hours"
	ReasonNoSlot           FailureReason = "no_slot"
)

// AvailabilityResult reports the outcome of an availability check. Message is
// phrased for the end user; Reason is the machine-readable classification.
type AvailabilityResult struct {
	Available    bool
	Reason       FailureReason
	Message      string
	Restaurant   string
	Date         string
	Time         string
	PartySize    int
	OpeningHours string
}

// BookingResult reports the outcome of a reservation attempt.
type BookingResult struct {
	Success          bool
	Reason           FailureReason
	Message          string
	ConfirmationCode string
	Restaurant       string
	Date             string
	Time             string
	PartySize        int
	UserName         string
}

// Criteria is the optional filter set for Search. Zero values mean the filter
// is not applied; non-zero filters compose conjunctively.
type Criteria struct {
	Cuisine   string
	Location  string
	PartySize int
	Text      string
}
