package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
	logx "github.com/Kaztic/foodiespot-reservation-agent/pkg/logger"
)

// Tool names advertised to the model. The registry below is the closed set:
// the orchestrator binds exactly these four operations.
const (
	ToolListRestaurants      = "list_restaurants"
	ToolGetRestaurantDetails = "get_restaurant_details"
	ToolCheckAvailability    = "check_availability"
	ToolMakeReservation      = "make_reservation"
)

// Registry returns the reservation tools bound to the given catalog store.
// Every tool is wrapped so an execution failure — typically mis-typed
// arguments that fail to decode — surfaces as a structured error result the
// model can narrate, never as a Go error that would abort the turn.
func Registry(store *catalog.Store) []tool.BaseTool {
	return []tool.BaseTool{
		failsafe(ToolListRestaurants, createListRestaurantsTool(store)),
		failsafe(ToolGetRestaurantDetails, createGetRestaurantDetailsTool(store)),
		failsafe(ToolCheckAvailability, createCheckAvailabilityTool(store)),
		failsafe(ToolMakeReservation, createMakeReservationTool(store)),
	}
}

// failsafeTool converts execution errors into a generic error result at the
// tool boundary. The real cause is logged; the model only sees that the
// action failed.
type failsafeTool struct {
	name  string
	inner tool.InvokableTool
}

func failsafe(name string, bt tool.BaseTool) tool.BaseTool {
	inv, ok := bt.(tool.InvokableTool)
	if !ok {
		return bt
	}
	return &failsafeTool{name: name, inner: inv}
}

func (t *failsafeTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return t.inner.Info(ctx)
}

func (t *failsafeTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	out, err := t.inner.InvokableRun(ctx, argumentsInJSON, opts...)
	if err == nil {
		return out, nil
	}

	logx.Error().
		Str("tool", t.name).
		Str("arguments", argumentsInJSON).
		Err(err).
		Msg("Tool execution failed; returning error result")

	b, merr := json.Marshal(map[string]any{
		"error":   true,
		"message": fmt.Sprintf("An error occurred while trying to execute the %s action.", t.name),
	})
	if merr != nil {
		return `{"error":true,"message":"An error occurred while trying to execute the action."}`, nil
	}
	return string(b), nil
}

// ToolInfos collects the declared schemas for binding to the chat model.
func ToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// validDateShape checks only the YYYY-MM-DD structure; calendar validity is
// the catalog store's concern.
func validDateShape(date string) bool {
	return date != "" && len(strings.Split(date, "-")) == 3
}

// validTimeShape checks only the HH:MM structure.
func validTimeShape(t string) bool {
	return t != "" && len(strings.Split(t, ":")) == 2
}
