package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
)

type GetRestaurantDetailsInput struct {
	RestaurantName string `json:"restaurant_name"`
}

type RestaurantDetails struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Cuisine         string            `json:"cuisine"`
	Location        string            `json:"location"`
	Address         string            `json:"address"`
	SeatingCapacity int               `json:"seating_capacity"`
	OpeningHours    map[string]string `json:"opening_hours"`
	Rating          float64           `json:"rating"`
	Description     string            `json:"description"`
	Tags            []string          `json:"tags,omitempty"`
}

type GetRestaurantDetailsOutput struct {
	Found      bool               `json:"found"`
	Message    string             `json:"message,omitempty"`
	Restaurant *RestaurantDetails `json:"restaurant,omitempty"`
}

func createGetRestaurantDetailsTool(store *catalog.Store) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetRestaurantDetails,
			Desc: "Get detailed information about a specific restaurant, including address, seating capacity, opening hours, rating, and description. Partial names are resolved to the closest catalog entry.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"restaurant_name": {
					Type:     "string",
					Desc:     "Name of the restaurant to get details for",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetRestaurantDetailsInput) (*GetRestaurantDetailsOutput, error) {
			r, ok := store.FindByName(in.RestaurantName)
			if !ok {
				return &GetRestaurantDetailsOutput{
					Found:   false,
					Message: fmt.Sprintf("Restaurant '%s' not found.", in.RestaurantName),
				}, nil
			}

			// Weekday keys are stored lowercase; capitalize for display.
			hours := make(map[string]string, len(r.OpeningHours))
			for day, h := range r.OpeningHours {
				hours[capitalizeDay(day)] = h
			}

			return &GetRestaurantDetailsOutput{
				Found: true,
				Restaurant: &RestaurantDetails{
					ID:              r.ID,
					Name:            r.Name,
					Cuisine:         r.Cuisine,
					Location:        r.Location,
					Address:         r.Address,
					SeatingCapacity: r.SeatingCapacity,
					OpeningHours:    hours,
					Rating:          r.Rating,
					Description:     r.Description,
					Tags:            r.Tags,
				},
			}, nil
		},
	)
}

func capitalizeDay(day string) string {
	if day == "" {
		return day
	}
	return strings.ToUpper(day[:1]) + strings.ToLower(day[1:])
}
