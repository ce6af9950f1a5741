package fellow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// dayNames is the slot order used by the schedule API.
var dayNames = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// ScheduleSpec is the body accepted by the schedule create endpoint.
type ScheduleSpec struct {
	Days                    [7]bool `json:"days"`
	SecondFromStartOfTheDay int     `json:"secondFromStartOfTheDay"`
	Enabled                 bool    `json:"enabled"`
	AmountOfWater           int     `json:"amountOfWater"`
	ProfileID               string  `json:"profileId"`
}

// ParseDays turns "mon,Wed,friday" into Sunday-first day flags. Only the
// first three letters of each entry are significant; unknown entries match
// no day.
func ParseDays(raw string) [7]bool {
	requested := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if len(name) > 3 {
			name = name[:3]
		}
		requested[name] = true
	}

	var days [7]bool
	for i, day := range dayNames {
		days[i] = requested[day]
	}
	return days
}

// ParseTimeOfDay converts an "HH:MM" clock time to seconds since midnight.
func ParseTimeOfDay(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hours*3600 + minutes*60, nil
}

// Schedules lists the brew schedules stored on the brewer.
func (c *Client) Schedules(ctx context.Context) ([]Schedule, error) {
	var schedules []Schedule
	if err := c.session.getJSON(ctx, c.devicePath("schedules"), &schedules); err != nil {
		return nil, RemoteError{Op: "list schedules", Err: err}
	}
	return schedules, nil
}

func (c *Client) CreateSchedule(ctx context.Context, spec ScheduleSpec) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.session.postJSON(ctx, c.devicePath("schedules"), spec, &result); err != nil {
		return nil, RemoteError{Op: "create schedule", Err: err}
	}
	return result, nil
}

func (c *Client) DeleteSchedule(ctx context.Context, id string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.session.delete(ctx, c.devicePath("schedules", id), &result); err != nil {
		return nil, RemoteError{Op: "delete schedule", Err: err}
	}
	return result, nil
}
