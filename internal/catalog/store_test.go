package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// 2026-08-26 is a Wednesday; 2026-08-25 is a Tuesday.
const (
	wednesday = "2026-08-26"
	tuesday   = "2026-08-25"
)

func fixtureRestaurants() []Restaurant {
	week := func(closedOn string) map[string]string {
		h := map[string]string{}
		for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
			if d == closedOn {
				h[d] = "Closed"
			} else {
				h[d] = "11:00-22:00"
			}
		}
		return h
	}

	return []Restaurant{
		{
			ID: "r-001", Name: "Pasta Paradise", Cuisine: "Italian", Location: "Downtown",
			Address: "12 Canal St", SeatingCapacity: 40, OpeningHours: week("tuesday"),
			Rating: 4.5, Description: "Fresh pasta and a cozy candle-lit room", Tags: []string{"romantic", "pasta"},
		},
		{
			ID: "r-002", Name: "Paradise Grill", Cuisine: "American", Location: "Midtown",
			Address: "88 5th Ave", SeatingCapacity: 60, OpeningHours: week("monday"),
			Rating: 4.1, Description: "Steaks and burgers off a charcoal grill", Tags: []string{"steak"},
		},
		{
			ID: "r-003", Name: "Thai Orchid", Cuisine: "Thai", Location: "Midtown",
			Address: "5 Orchid Ln", SeatingCapacity: 30, OpeningHours: week(""),
			Rating: 4.7, Description: "Quiet spot for curries", Tags: []string{"romantic"},
		},
		{
			ID: "r-004", Name: "Bangkok Bites", Cuisine: "Thai", Location: "Downtown",
			Address: "301 Market St", SeatingCapacity: 20, OpeningHours: week(""),
			Rating: 4.0, Description: "Street-food style Thai", Tags: []string{"casual"},
		},
		{
			ID: "r-005", Name: "Sakura", Cuisine: "Japanese", Location: "Westside",
			Address: "9 Cherry Rd", SeatingCapacity: 25, OpeningHours: week(""),
			Rating: 4.3, Description: "Omakase counter", Tags: []string{"sushi"},
		},
		{
			ID: "r-006", Name: "Sakura House", Cuisine: "Japanese", Location: "Westside",
			Address: "11 Cherry Rd", SeatingCapacity: 80, OpeningHours: week(""),
			Rating: 3.9, Description: "Family-style izakaya", Tags: []string{"group friendly"},
		},
	}
}

func alwaysAvailable() float64 { return 0.99 }
func neverAvailable() float64  { return 0.0 }

func TestSearch_ConjunctiveAndCaseInsensitive(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	got := s.Search(Criteria{Cuisine: "THAI", Location: "midTOWN"})
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].Name != "Thai Orchid" {
		t.Errorf("expected Thai Orchid, got %s", got[0].Name)
	}
}

func TestSearch_LocationMatchesAddress(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	got := s.Search(Criteria{Location: "market st"})
	if len(got) != 1 || got[0].Name != "Bangkok Bites" {
		t.Fatalf("expected Bangkok Bites via address match, got %v", names(got))
	}
}

func TestSearch_PartySize(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	got := s.Search(Criteria{PartySize: 50})
	if len(got) != 2 {
		t.Fatalf("expected 2 results with capacity >= 50, got %v", names(got))
	}
}

func TestSearch_TextMatchesTags(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	got := s.Search(Criteria{Text: "Romantic"})
	if len(got) != 2 {
		t.Fatalf("expected 2 romantic results, got %v", names(got))
	}
}

func TestSearch_EmptyCriteriaReturnsAll(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	if got := s.Search(Criteria{}); len(got) != len(fixtureRestaurants()) {
		t.Fatalf("expected full catalog, got %d records", len(got))
	}
}

func TestFindByName_ExactWinsOverSubstring(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	// "Sakura" is an exact match and also a substring of "Sakura House".
	r, ok := s.FindByName("sakura")
	if !ok || r.Name != "Sakura" {
		t.Fatalf("expected exact match Sakura, got %q (ok=%v)", r.Name, ok)
	}
}

func TestFindByName_ClosestLengthTieBreaksToCatalogOrder(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	// Both "Pasta Paradise" and "Paradise Grill" are 14 chars; the first
	// catalog entry wins the tie.
	r, ok := s.FindByName("Paradise")
	if !ok || r.Name != "Pasta Paradise" {
		t.Fatalf("expected Pasta Paradise, got %q (ok=%v)", r.Name, ok)
	}

	r, ok = s.FindByName("Grill")
	if !ok || r.Name != "Paradise Grill" {
		t.Fatalf("expected Paradise Grill, got %q (ok=%v)", r.Name, ok)
	}
}

func TestFindByName_Miss(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	if _, ok := s.FindByName("Burger Barn"); ok {
		t.Error("expected no match for unknown name")
	}
	if _, ok := s.FindByName(""); ok {
		t.Error("expected no match for empty name")
	}
}

func TestCheckAvailability_NotFound(t *testing.T) {
	s := NewStore(fixtureRestaurants(), WithRandom(alwaysAvailable))

	res := s.CheckAvailability("Burger Barn", wednesday, "19:00", 2)
	if res.Available || res.Reason != ReasonNotFound {
		t.Fatalf("expected not_found, got %+v", res)
	}
}

func TestCheckAvailability_InvalidFormats(t *testing.T) {
	s := NewStore(fixtureRestaurants(), WithRandom(alwaysAvailable))

	if res := s.CheckAvailability("Thai Orchid", "26-08-2026", "19:00", 2); res.Reason != ReasonInvalidFormat {
		t.Errorf("expected invalid_format for bad date, got %+v", res)
	}
	if res := s.CheckAvailability("Thai Orchid", wednesday, "7pm", 2); res.Reason != ReasonInvalidFormat {
		t.Errorf("expected invalid_format for bad time, got %+v", res)
	}
}

func TestCheckAvailability_CapacityExceeded(t *testing.T) {
	s := NewStore(fixtureRestaurants(), WithRandom(alwaysAvailable))

	res := s.CheckAvailability("Bangkok Bites", wednesday, "19:00", 21)
	if res.Available || res.Reason != ReasonCapacityExceeded {
		t.Fatalf("expected capacity_exceeded, got %+v", res)
	}
}

func TestCheckAvailability_ClosedShortCircuitsDraw(t *testing.T) {
	// Pasta Paradise is closed on Tuesdays. The draw source would report a
	// free table, so a Closed result proves the short-circuit.
	s := NewStore(fixtureRestaurants(), WithRandom(alwaysAvailable))

	res := s.CheckAvailability("Pasta Paradise", tuesday, "19:00", 2)
	if res.Available || res.Reason != ReasonClosed {
		t.Fatalf("expected closed, got %+v", res)
	}
}

func TestCheckAvailability_OutOfHours(t *testing.T) {
	s := NewStore(fixtureRestaurants(), WithRandom(alwaysAvailable))

	res := s.CheckAvailability("Pasta Paradise", wednesday, "23:30", 2)
	if res.Available || res.Reason != ReasonOutOfHours {
		t.Fatalf("expected out_of_hours, got %+v", res)
	}
	if res.OpeningHours != "11:00-22:00" {
		t.Errorf("expected opening hours echoed, got %q", res.OpeningHours)
	}
}

func TestCheckAvailability_DrawOutcomes(t *testing.T) {
	open := NewStore(fixtureRestaurants(), WithRandom(alwaysAvailable))
	res := open.CheckAvailability("Thai Orchid", wednesday, "19:00", 2)
	if !res.Available {
		t.Fatalf("expected available, got %+v", res)
	}
	if res.Restaurant != "Thai Orchid" || res.Date != wednesday || res.Time != "19:00" || res.PartySize != 2 {
		t.Errorf("expected echoed request details, got %+v", res)
	}

	full := NewStore(fixtureRestaurants(), WithRandom(neverAvailable))
	res = full.CheckAvailability("Thai Orchid", wednesday, "19:00", 2)
	if res.Available || res.Reason != ReasonNoSlot {
		t.Fatalf("expected no_slot, got %+v", res)
	}
}

func TestMakeReservation_RequiresAvailability(t *testing.T) {
	s := NewStore(fixtureRestaurants(), WithRandom(neverAvailable))

	res := s.MakeReservation("Thai Orchid", wednesday, "19:00", 2, "Ada", "555-0100")
	if res.Success {
		t.Fatal("booking must not succeed when the availability check fails")
	}
	if res.Reason != ReasonNoSlot || res.Message == "" {
		t.Errorf("expected the availability failure carried through, got %+v", res)
	}
	if _, ok := s.GetReservation(res.ConfirmationCode); ok {
		t.Error("no reservation should be stored on failure")
	}
}

func TestMakeReservation_NeverExceedsCapacity(t *testing.T) {
	s := NewStore(fixtureRestaurants(), WithRandom(alwaysAvailable))

	res := s.MakeReservation("Bangkok Bites", wednesday, "19:00", 40, "Ada", "555-0100")
	if res.Success || res.Reason != ReasonCapacityExceeded {
		t.Fatalf("expected capacity_exceeded, got %+v", res)
	}
}

func TestMakeReservation_Success(t *testing.T) {
	created := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	s := NewStore(fixtureRestaurants(),
		WithRandom(alwaysAvailable),
		WithClock(func() time.Time { return created }),
	)

	res := s.MakeReservation("thai orchid", wednesday, "19:00", 2, "Ada", "555-0100")
	if !res.Success {
		t.Fatalf("expected booking success, got %+v", res)
	}
	if len(res.ConfirmationCode) < 4 || res.ConfirmationCode[:3] != "RS-" {
		t.Errorf("unexpected confirmation code %q", res.ConfirmationCode)
	}

	stored, ok := s.GetReservation(res.ConfirmationCode)
	if !ok {
		t.Fatal("reservation not stored")
	}
	if stored.RestaurantName != "Thai Orchid" || stored.PartySize != 2 ||
		stored.UserName != "Ada" || stored.UserPhone != "555-0100" {
		t.Errorf("unexpected stored reservation %+v", stored)
	}
	if !stored.CreatedAt.Equal(created) {
		t.Errorf("expected created_at %v, got %v", created, stored.CreatedAt)
	}
}

func TestMakeReservation_UniqueConfirmationCodes(t *testing.T) {
	s := NewStore(fixtureRestaurants(), WithRandom(alwaysAvailable))

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		res := s.MakeReservation("Thai Orchid", wednesday, "19:00", 2, "Ada", "555-0100")
		if !res.Success {
			t.Fatalf("booking %d failed: %+v", i, res)
		}
		if seen[res.ConfirmationCode] {
			t.Fatalf("duplicate confirmation code %s", res.ConfirmationCode)
		}
		seen[res.ConfirmationCode] = true
	}
}

func TestGetReservation_Miss(t *testing.T) {
	s := NewStore(fixtureRestaurants())

	if _, ok := s.GetReservation("RS-NOPE"); ok {
		t.Error("expected miss for unknown confirmation code")
	}
}

func TestLoadRestaurants_MissingFileYieldsEmptyCatalog(t *testing.T) {
	got := LoadRestaurants(filepath.Join(t.TempDir(), "nope.json"))
	if len(got) != 0 {
		t.Fatalf("expected empty catalog, got %d records", len(got))
	}
}

func TestLoadRestaurants_MalformedFileYieldsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := LoadRestaurants(path); len(got) != 0 {
		t.Fatalf("expected empty catalog, got %d records", len(got))
	}
}

func names(rs []Restaurant) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}
