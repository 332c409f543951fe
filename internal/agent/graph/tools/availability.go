package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
)

type CheckAvailabilityInput struct {
	RestaurantName string `json:"restaurant_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	PartySize      int    `json:"party_size"`
}

type CheckAvailabilityOutput struct {
	Error        bool   `json:"error,omitempty"`
	Available    bool   `json:"available"`
	Message      string `json:"message"`
	Restaurant   string `json:"restaurant,omitempty"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	PartySize    int    `json:"party_size,omitempty"`
	OpeningHours string `json:"opening_hours,omitempty"`
}

func createCheckAvailabilityTool(store *catalog.Store) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCheckAvailability,
			Desc: "Check if a restaurant has availability for a reservation at a given date and time. Always check availability before making a reservation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"restaurant_name": {
					Type:     "string",
					Desc:     "Name of the restaurant to check availability",
					Required: true,
				},
				"date": {
					Type:     "string",
					Desc:     "Date for reservation in YYYY-MM-DD format",
					Required: true,
				},
				"time": {
					Type:     "string",
					Desc:     "Time for reservation in HH:MM format (24-hour)",
					Required: true,
				},
				"party_size": {
					Type:     "integer",
					Desc:     "Number of people in the party",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *CheckAvailabilityInput) (*CheckAvailabilityOutput, error) {
			if msg, ok := validateBookingRequest(in.Date, in.Time, in.PartySize); !ok {
				return &CheckAvailabilityOutput{Error: true, Message: msg}, nil
			}

			res := store.CheckAvailability(in.RestaurantName, in.Date, in.Time, in.PartySize)
			return &CheckAvailabilityOutput{
				Available:    res.Available,
				Message:      res.Message,
				Restaurant:   res.Restaurant,
				Date:         res.Date,
				Time:         res.Time,
				PartySize:    res.PartySize,
				OpeningHours: res.OpeningHours,
			}, nil
		},
	)
}

// validateBookingRequest performs the structural checks shared by the
// availability and reservation tools. The catalog store does the real
// calendar validation.
func validateBookingRequest(date, timeOfDay string, partySize int) (string, bool) {
	if partySize <= 0 {
		return "Party size must be a positive number.", false
	}
	if !validDateShape(date) {
		return "Invalid date format. Please use YYYY-MM-DD format.", false
	}
	if !validTimeShape(timeOfDay) {
		return "Invalid time format. Please use HH:MM format (24-hour).", false
	}
	return "", true
}
