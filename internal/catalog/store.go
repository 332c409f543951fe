package catalog

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	logx "github.com/Kaztic/foodiespot-reservation-agent/pkg/logger"
)

const (
	closedMarker = "closed"
	dateLayout   = "2006-01-02"
	timeLayout   = "15:04"

	// noSlotOdds is the placeholder probability that a structurally valid
	// request still finds the restaurant fully booked. A real inventory
	// check would replace the draw entirely.
	noSlotOdds = 0.2
)

// Option customizes a Store. Used by tests to pin the availability draw and
// the clock.
type Option func(*Store)

// WithRandom replaces the availability probability source. fn must return a
// value in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(s *Store) { s.randFloat = fn }
}

// WithClock replaces the reservation timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// Store answers restaurant lookups and owns the in-memory reservation book.
// The restaurant list is read-only after construction; the reservation map is
// guarded by mu so bookings from concurrent sessions serialize on insert.
type Store struct {
	restaurants []Restaurant

	mu           sync.Mutex
	reservations map[string]Reservation

	randFloat func() float64
	now       func() time.Time
}

// NewStore builds a Store over the given catalog.
func NewStore(restaurants []Restaurant, opts ...Option) *Store {
	s := &Store{
		restaurants:  restaurants,
		reservations: make(map[string]Reservation),
		randFloat:    rand.Float64,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStoreFromFile loads the catalog source file and builds a Store. A
// missing or malformed file yields an empty catalog, not a startup failure.
func NewStoreFromFile(path string, opts ...Option) *Store {
	return NewStore(LoadRestaurants(path), opts...)
}

// LoadRestaurants reads the restaurant catalog from a JSON file.
func LoadRestaurants(path string) []Restaurant {
	data, err := os.ReadFile(path)
	if err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("Could not read restaurant catalog, starting empty")
		return nil
	}

	var restaurants []Restaurant
	if err := json.Unmarshal(data, &restaurants); err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("Could not parse restaurant catalog, starting empty")
		return nil
	}

	logx.Info().Int("count", len(restaurants)).Str("path", path).Msg("Restaurant catalog loaded")
	return restaurants
}

// Restaurants returns the full catalog.
func (s *Store) Restaurants() []Restaurant {
	return s.restaurants
}

// Search returns the restaurants matching every non-zero filter in criteria.
// All string matching is case-insensitive and accepts substrings.
func (s *Store) Search(c Criteria) []Restaurant {
	matched := make([]Restaurant, 0, len(s.restaurants))

	cuisine := strings.ToLower(c.Cuisine)
	location := strings.ToLower(c.Location)
	text := strings.ToLower(c.Text)

	for _, r := range s.restaurants {
		if cuisine != "" && !strings.Contains(strings.ToLower(r.Cuisine), cuisine) {
			continue
		}
		if location != "" &&
			!strings.Contains(strings.ToLower(r.Location), location) &&
			!strings.Contains(strings.ToLower(r.Address), location) {
			continue
		}
		if c.PartySize > 0 && r.SeatingCapacity < c.PartySize {
			continue
		}
		if text != "" && !matchText(r, text) {
			continue
		}
		matched = append(matched, r)
	}

	return matched
}

func matchText(r Restaurant, text string) bool {
	if strings.Contains(strings.ToLower(r.Name), text) ||
		strings.Contains(strings.ToLower(r.Description), text) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return false
}

// FindByName resolves a possibly partial restaurant name. An exact
// case-insensitive match always wins. Otherwise the substring match whose
// name length is closest to the query is returned, ties going to catalog
// order.
func (s *Store) FindByName(name string) (Restaurant, bool) {
	if name == "" {
		return Restaurant{}, false
	}

	needle := strings.ToLower(name)
	for _, r := range s.restaurants {
		if strings.ToLower(r.Name) == needle {
			return r, true
		}
	}

	var (
		best     Restaurant
		bestDiff int
		found    bool
	)
	for _, r := range s.restaurants {
		if !strings.Contains(strings.ToLower(r.Name), needle) {
			continue
		}
		diff := len(r.Name) - len(name)
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < bestDiff {
			best, bestDiff, found = r, diff, true
		}
	}
	return best, found
}

// CheckAvailability validates the request against the restaurant's capacity
// and opening hours, then makes the placeholder availability draw. The draw
// is intentionally not idempotent: two identical calls may disagree.
// Closed-day and out-of-hours failures short-circuit before the draw.
func (s *Store) CheckAvailability(name, date, timeOfDay string, partySize int) AvailabilityResult {
	r, ok := s.FindByName(name)
	if !ok {
		return AvailabilityResult{
			Reason:  ReasonNotFound,
			Message: fmt.Sprintf("Restaurant '%s' not found.", name),
		}
	}

	bookingDate, err := time.Parse(dateLayout, date)
	if err != nil {
		return AvailabilityResult{
			Reason:     ReasonInvalidFormat,
			Message:    fmt.Sprintf("Invalid date %q. Please use YYYY-MM-DD format.", date),
			Restaurant: r.Name,
		}
	}
	bookingTime, err := time.Parse(timeLayout, timeOfDay)
	if err != nil {
		return AvailabilityResult{
			Reason:     ReasonInvalidFormat,
			Message:    fmt.Sprintf("Invalid time %q. Please use HH:MM format (24-hour).", timeOfDay),
			Restaurant: r.Name,
		}
	}

	if partySize > r.SeatingCapacity {
		return AvailabilityResult{
			Reason:     ReasonCapacityExceeded,
			Message:    fmt.Sprintf("Party size of %d exceeds the maximum capacity of %d.", partySize, r.SeatingCapacity),
			Restaurant: r.Name,
		}
	}

	weekday := strings.ToLower(bookingDate.Weekday().String())
	hours := r.OpeningHours[weekday]
	if strings.ToLower(hours) == closedMarker {
		return AvailabilityResult{
			Reason:     ReasonClosed,
			Message:    fmt.Sprintf("%s is closed on %s.", r.Name, capitalize(weekday)),
			Restaurant: r.Name,
		}
	}

	if open, close, ok := parseInterval(hours); ok {
		if bookingTime.Before(open) || bookingTime.After(close) {
			return AvailabilityResult{
				Reason:       ReasonOutOfHours,
				Message:      fmt.Sprintf("%s is only open from %s on %s.", r.Name, hours, capitalize(weekday)),
				Restaurant:   r.Name,
				OpeningHours: hours,
			}
		}
	}

	if s.randFloat() < noSlotOdds {
		return AvailabilityResult{
			Reason:     ReasonNoSlot,
			Message:    fmt.Sprintf("Sorry, %s is fully booked at that time. Please try another time.", r.Name),
			Restaurant: r.Name,
		}
	}

	return AvailabilityResult{
		Available:  true,
		Message:    fmt.Sprintf("Table for %d is available at %s on %s at %s.", partySize, r.Name, date, timeOfDay),
		Restaurant: r.Name,
		Date:       date,
		Time:       timeOfDay,
		PartySize:  partySize,
	}
}

// MakeReservation re-runs the availability check for the identical arguments
// and, when it passes, records a reservation under a fresh confirmation code.
func (s *Store) MakeReservation(name, date, timeOfDay string, partySize int, userName, userPhone string) BookingResult {
	avail := s.CheckAvailability(name, date, timeOfDay, partySize)
	if !avail.Available {
		return BookingResult{
			Reason:     avail.Reason,
			Message:    avail.Message,
			Restaurant: avail.Restaurant,
		}
	}

	code := newConfirmationCode()
	reservation := Reservation{
		ConfirmationCode: code,
		RestaurantName:   avail.Restaurant,
		Date:             date,
		Time:             timeOfDay,
		PartySize:        partySize,
		UserName:         userName,
		UserPhone:        userPhone,
		CreatedAt:        s.now(),
	}

	s.mu.Lock()
	s.reservations[code] = reservation
	s.mu.Unlock()

	logx.Info().
		Str("confirmation_code", code).
		Str("restaurant", avail.Restaurant).
		Str("date", date).
		Str("time", timeOfDay).
		Int("party_size", partySize).
		Msg("Reservation created")

	return BookingResult{
		Success:          true,
		ConfirmationCode: code,
		Message: fmt.Sprintf("Reservation confirmed at %s for %d people on %s at %s.",
			avail.Restaurant, partySize, date, timeOfDay),
		Restaurant: avail.Restaurant,
		Date:       date,
		Time:       timeOfDay,
		PartySize:  partySize,
		UserName:   userName,
	}
}

// GetReservation looks up a reservation by confirmation code.
func (s *Store) GetReservation(code string) (Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[code]
	return r, ok
}

// newConfirmationCode issues a code from a space large enough that collisions
// within a process run are negligible, so no dedup check is performed.
func newConfirmationCode() string {
	return "RS-" + strings.ToUpper(uuid.NewString()[:8])
}

func parseInterval(hours string) (open, close time.Time, ok bool) {
	parts := strings.SplitN(hours, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, false
	}
	open, err := time.Parse(timeLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	close, err = time.Parse(timeLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return open, close, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
