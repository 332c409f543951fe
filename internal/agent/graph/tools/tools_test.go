package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/tool"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
)

func testStore() *catalog.Store {
	week := map[string]string{
		"monday": "Closed", "tuesday": "11:00-22:00", "wednesday": "11:00-22:00",
		"thursday": "11:00-22:00", "friday": "11:00-23:00", "saturday": "11:00-23:00",
		"sunday": "11:00-21:00",
	}
	return catalog.NewStore([]catalog.Restaurant{
		{
			ID: "r-001", Name: "Thai Orchid", Cuisine: "Thai", Location: "Midtown",
			Address: "5 Orchid Ln", SeatingCapacity: 30, OpeningHours: week,
			Rating: 4.7, Description: "Quiet spot for curries", Tags: []string{"romantic"},
		},
		{
			ID: "r-002", Name: "Sakura House", Cuisine: "Japanese", Location: "Westside",
			Address: "11 Cherry Rd", SeatingCapacity: 80, OpeningHours: week,
			Rating: 3.9, Description: "Family-style izakaya", Tags: []string{"group friendly"},
		},
	}, catalog.WithRandom(func() float64 { return 0.99 }))
}

func invoke(t *testing.T, bt tool.BaseTool, args string) map[string]any {
	t.Helper()
	inv, ok := bt.(tool.InvokableTool)
	if !ok {
		t.Fatal("tool is not invokable")
	}
	out, err := inv.InvokableRun(context.Background(), args)
	if err != nil {
		t.Fatalf("InvokableRun failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("tool output is not JSON: %v (%s)", err, out)
	}
	return m
}

func toolByName(t *testing.T, store *catalog.Store, name string) tool.BaseTool {
	t.Helper()
	for _, bt := range Registry(store) {
		info, err := bt.Info(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if info.Name == name {
			return bt
		}
	}
	t.Fatalf("tool %s not in registry", name)
	return nil
}

func TestRegistry_DecodeFailureBecomesErrorResult(t *testing.T) {
	// Arguments the tool cannot decode must surface as a structured error
	// result, not as an execution error that would abort the whole turn.
	bt := toolByName(t, testStore(), ToolCheckAvailability)

	out := invoke(t, bt, `{"restaurant_name":"Thai Orchid","date":"2026-08-26","time":"19:00","party_size":2.5}`)

	if out["error"] != true {
		t.Fatalf("expected error result, got %v", out)
	}
	msg, _ := out["message"].(string)
	if !strings.Contains(msg, "An error occurred") {
		t.Errorf("expected generic error message, got %q", msg)
	}
	if strings.Contains(strings.ToLower(msg), "unmarshal") {
		t.Errorf("error message leaks decoder internals: %q", msg)
	}
}

func TestRegistry_AdvertisesFourTools(t *testing.T) {
	ts := Registry(testStore())
	if len(ts) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(ts))
	}

	infos, err := ToolInfos(context.Background(), ts)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		ToolListRestaurants:      true,
		ToolGetRestaurantDetails: true,
		ToolCheckAvailability:    true,
		ToolMakeReservation:      true,
	}
	for _, info := range infos {
		if !want[info.Name] {
			t.Errorf("unexpected tool %q", info.Name)
		}
		delete(want, info.Name)
	}
	if len(want) != 0 {
		t.Errorf("missing tools: %v", want)
	}
}

func TestListRestaurants_SummaryProjection(t *testing.T) {
	store := testStore()
	out := invoke(t, toolByName(t, store, ToolListRestaurants), `{"cuisine":"thai"}`)

	if out["count"].(float64) != 1 {
		t.Fatalf("expected count 1, got %v", out["count"])
	}
	rs := out["restaurants"].([]any)
	first := rs[0].(map[string]any)
	if first["name"] != "Thai Orchid" {
		t.Errorf("expected Thai Orchid, got %v", first["name"])
	}
	if _, ok := first["description"]; ok {
		t.Error("summary projection must not include the description")
	}
	if _, ok := first["opening_hours"]; ok {
		t.Error("summary projection must not include opening hours")
	}
}

func TestListRestaurants_NoCriteriaReturnsAll(t *testing.T) {
	store := testStore()
	out := invoke(t, toolByName(t, store, ToolListRestaurants), `{}`)
	if out["count"].(float64) != 2 {
		t.Fatalf("expected full catalog, got %v", out["count"])
	}
}

func TestListRestaurants_DateTimeAcceptedButUnused(t *testing.T) {
	store := testStore()
	out := invoke(t, toolByName(t, store, ToolListRestaurants),
		`{"date":"2026-08-26","time":"19:00"}`)
	if out["count"].(float64) != 2 {
		t.Fatalf("date/time must not filter results, got %v", out["count"])
	}
}

func TestGetRestaurantDetails_Found(t *testing.T) {
	store := testStore()
	out := invoke(t, toolByName(t, store, ToolGetRestaurantDetails), `{"restaurant_name":"orchid"}`)

	if out["found"] != true {
		t.Fatalf("expected found, got %v", out)
	}
	r := out["restaurant"].(map[string]any)
	hours := r["opening_hours"].(map[string]any)
	if _, ok := hours["Monday"]; !ok {
		t.Errorf("expected capitalized weekday keys, got %v", hours)
	}
	if _, ok := hours["monday"]; ok {
		t.Errorf("lowercase weekday keys should not survive, got %v", hours)
	}
}

func TestGetRestaurantDetails_Miss(t *testing.T) {
	store := testStore()
	out := invoke(t, toolByName(t, store, ToolGetRestaurantDetails), `{"restaurant_name":"Burger Barn"}`)

	if out["found"] != false {
		t.Fatalf("expected miss, got %v", out)
	}
	if !strings.Contains(out["message"].(string), "not found") {
		t.Errorf("expected a not-found message, got %v", out["message"])
	}
}

func TestCheckAvailability_StructuralValidation(t *testing.T) {
	store := testStore()
	ca := toolByName(t, store, ToolCheckAvailability)

	cases := []struct {
		name string
		args string
	}{
		{"zero party size", `{"restaurant_name":"Thai Orchid","date":"2026-08-26","time":"19:00","party_size":0}`},
		{"two-part date", `{"restaurant_name":"Thai Orchid","date":"2026-08","time":"19:00","party_size":2}`},
		{"one-part time", `{"restaurant_name":"Thai Orchid","date":"2026-08-26","time":"1900","party_size":2}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := invoke(t, ca, tc.args)
			if out["error"] != true {
				t.Fatalf("expected validation error, got %v", out)
			}
		})
	}
}

func TestCheckAvailability_Available(t *testing.T) {
	store := testStore()
	out := invoke(t, toolByName(t, store, ToolCheckAvailability),
		`{"restaurant_name":"Thai Orchid","date":"2026-08-26","time":"19:00","party_size":2}`)

	if out["available"] != true {
		t.Fatalf("expected available, got %v", out)
	}
	if out["restaurant"] != "Thai Orchid" || out["date"] != "2026-08-26" {
		t.Errorf("expected echoed details, got %v", out)
	}
}

func TestMakeReservation_RequiresContactDetails(t *testing.T) {
	store := testStore()
	mr := toolByName(t, store, ToolMakeReservation)

	out := invoke(t, mr, `{"restaurant_name":"Thai Orchid","date":"2026-08-26","time":"19:00","party_size":2,"user_name":"","user_phone":"555-0100"}`)
	if out["error"] != true {
		t.Fatalf("expected error for missing name, got %v", out)
	}

	out = invoke(t, mr, `{"restaurant_name":"Thai Orchid","date":"2026-08-26","time":"19:00","party_size":2,"user_name":"Ada","user_phone":""}`)
	if out["error"] != true {
		t.Fatalf("expected error for missing phone, got %v", out)
	}
}

func TestMakeReservation_Success(t *testing.T) {
	store := testStore()
	out := invoke(t, toolByName(t, store, ToolMakeReservation),
		`{"restaurant_name":"Thai Orchid","date":"2026-08-26","time":"19:00","party_size":2,"user_name":"Ada","user_phone":"555-0100"}`)

	if out["success"] != true {
		t.Fatalf("expected success, got %v", out)
	}
	code, _ := out["confirmation_code"].(string)
	if !strings.HasPrefix(code, "RS-") {
		t.Errorf("unexpected confirmation code %q", code)
	}
	if _, ok := store.GetReservation(code); !ok {
		t.Error("reservation not visible in store")
	}
}
