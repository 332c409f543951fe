package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph/tools"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/model"
)

//go:embed template/response_prompt.txt
var coreSystemPrompt string

// RenderResponseSystem renders the dynamic Response system prompt and triggers prompt callbacks.
func RenderResponseSystem(ctx context.Context, config model.ResponsePromptConfig) (string, error) {
	name := strings.TrimSpace(config.BusinessName)
	if name == "" {
		name = "FoodieSpot"
	}

	// Render via Eino prompt component (Go template) to both format and emit callbacks
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
	)
	vars := map[string]any{
		"BusinessName":     name,
		"ListTool":         tools.ToolListRestaurants,
		"DetailsTool":      tools.ToolGetRestaurantDetails,
		"AvailabilityTool": tools.ToolCheckAvailability,
		"ReserveTool":      tools.ToolMakeReservation,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("response prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("response prompt render: empty result")
	}
	return msgs[0].Content, nil
}
