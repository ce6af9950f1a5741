package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshp123/fellow-aiden/plugins/fellow"
)

func (a *app) schedulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Manage brew schedules",
		Args:  cobra.NoArgs,
		RunE:  requireSubcommand,
	}
	cmd.AddCommand(
		a.schedulesListCmd(),
		a.schedulesCreateCmd(),
		a.schedulesDeleteCmd(),
	)
	return cmd
}

func (a *app) schedulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all schedules",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			schedules, err := client.Schedules(ctx)
			if err != nil {
				return nil, err
			}
			if schedules == nil {
				schedules = []fellow.Schedule{}
			}
			return map[string]any{"schedules": schedules, "count": len(schedules)}, nil
		}),
	}
}

func (a *app) schedulesCreateCmd() *cobra.Command {
	var days, clock string
	spec := fellow.ScheduleSpec{Enabled: true}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a brew schedule",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			seconds, err := fellow.ParseTimeOfDay(clock)
			if err != nil {
				return nil, err
			}
			spec.Days = fellow.ParseDays(days)
			spec.SecondFromStartOfTheDay = seconds

			result, err := client.CreateSchedule(ctx, spec)
			if err != nil {
				return nil, err
			}
			return envelope{
				Success: true,
				Message: fmt.Sprintf("Schedule created: %s at %s, %dml, profile %s", days, clock, spec.AmountOfWater, spec.ProfileID),
				Result:  result,
			}, nil
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&days, "days", "", `comma-separated days (e.g. "mon,tue,wed,thu,fri" or "sun,sat")`)
	flags.StringVar(&clock, "time", "", "brew time in HH:MM 24h format (e.g. 07:30)")
	flags.IntVar(&spec.AmountOfWater, "water", 0, "water amount in ml (150-1500)")
	flags.StringVar(&spec.ProfileID, "profile-id", "", "profile id to brew (e.g. p2)")
	for _, name := range []string{"days", "time", "water", "profile-id"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) schedulesDeleteCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a schedule",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			if _, err := client.DeleteSchedule(ctx, id); err != nil {
				return nil, err
			}
			return envelope{Success: true, Message: fmt.Sprintf("Schedule '%s' deleted.", id)}, nil
		}),
	}
	cmd.Flags().StringVar(&id, "id", "", "schedule id (e.g. s0)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
