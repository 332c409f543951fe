package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
)

type MakeReservationInput struct {
	RestaurantName string `json:"restaurant_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	PartySize      int    `json:"party_size"`
	UserName       string `json:"user_name"`
	UserPhone      string `json:"user_phone"`
}

type MakeReservationOutput struct {
	Error            bool   `json:"error,omitempty"`
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
	Restaurant       string `json:"restaurant,omitempty"`
	Date             string `json:"date,omitempty"`
	Time             string `json:"time,omitempty"`
	PartySize        int    `json:"party_size,omitempty"`
	UserName         string `json:"user_name,omitempty"`
}

func createMakeReservationTool(store *catalog.Store) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolMakeReservation,
			Desc: "Book a reservation at a restaurant. Requires the guest's name and phone number in addition to the restaurant, date, time, and party size.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"restaurant_name": {
					Type:     "string",
					Desc:     "Name of the restaurant to book",
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
				"user_name": {
					Type:     "string",
					Desc:     "Name of the person making the reservation",
					Required: true,
				},
				"user_phone": {
					Type:     "string",
					Desc:     "Contact phone number",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *MakeReservationInput) (*MakeReservationOutput, error) {
			if msg, ok := validateBookingRequest(in.Date, in.Time, in.PartySize); !ok {
				return &MakeReservationOutput{Error: true, Message: msg}, nil
			}
			if in.UserName == "" {
				return &MakeReservationOutput{Error: true, Message: "Please provide your name for the reservation."}, nil
			}
			if in.UserPhone == "" {
				return &MakeReservationOutput{Error: true, Message: "Please provide a contact phone number for the reservation."}, nil
			}

			res := store.MakeReservation(in.RestaurantName, in.Date, in.Time, in.PartySize, in.UserName, in.UserPhone)
			return &MakeReservationOutput{
				Success:          res.Success,
				Message:          res.Message,
				ConfirmationCode: res.ConfirmationCode,
				Restaurant:       res.Restaurant,
				Date:             res.Date,
				Time:             res.Time,
				PartySize:        res.PartySize,
				UserName:         res.UserName,
			}, nil
		},
	)
}
