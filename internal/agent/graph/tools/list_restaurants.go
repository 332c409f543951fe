package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
)

// ===================================
// List Restaurants Tool
// ===================================

type ListRestaurantsInput struct {
	Cuisine   string `json:"cuisine,omitempty"`
	Location  string `json:"location,omitempty"`
	PartySize int    `json:"party_size,omitempty"`
	Text      string `json:"text,omitempty"`
	// Date and Time are accepted but not applied as filters yet; reserved
	// for availability-aware search.
	Date string `json:"date,omitempty"`
	Time string `json:"time,omitempty"`
}

// RestaurantSummary is the search projection: enough to pick a restaurant,
// not the full record.
type RestaurantSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Cuisine         string  `json:"cuisine"`
	Location        string  `json:"location"`
	Address         string  `json:"address"`
	SeatingCapacity int     `json:"seating_capacity"`
	Rating          float64 `json:"rating"`
}

type ListRestaurantsOutput struct {
	Count       int                 `json:"count"`
	Restaurants []RestaurantSummary `json:"restaurants"`
}

func createListRestaurantsTool(store *catalog.Store) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolListRestaurants,
			Desc: "Search for restaurants based on criteria like cuisine, location, party size, or descriptive text (e.g. romantic, rooftop). All criteria are optional; with no criteria the full catalog is returned. Use this tool whenever the user is looking for a place to eat.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"cuisine": {
					Type: "string",
					Desc: "Type of cuisine (e.g., Italian, Japanese, Indian)",
				},
				"location": {
					Type: "string",
					Desc: "Area or neighborhood (e.g., Downtown, Westside)",
				},
				"party_size": {
					Type: "integer",
					Desc: "Number of people in the party",
				},
				"text": {
					Type: "string",
					Desc: "Additional search text to match against restaurant name, description, or tags",
				},
				"date": {
					Type: "string",
					Desc: "Date for reservation in YYYY-MM-DD format",
				},
				"time": {
					Type: "string",
					Desc: "Time for reservation in HH:MM format (24-hour)",
				},
			}),
		},
		func(ctx context.Context, in *ListRestaurantsInput) (*ListRestaurantsOutput, error) {
			matched := store.Search(catalog.Criteria{
				Cuisine:   in.Cuisine,
				Location:  in.Location,
				PartySize: in.PartySize,
				Text:      in.Text,
			})

			results := make([]RestaurantSummary, 0, len(matched))
			for _, r := range matched {
				results = append(results, RestaurantSummary{
					ID:              r.ID,
					Name:            r.Name,
					Cuisine:         r.Cuisine,
					Location:        r.Location,
					Address:         r.Address,
					SeatingCapacity: r.SeatingCapacity,
					Rating:          r.Rating,
				})
			}

			return &ListRestaurantsOutput{
				Count:       len(results),
				Restaurants: results,
			}, nil
		},
	)
}
