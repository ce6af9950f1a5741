package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshp123/fellow-aiden/plugins/fellow"
)

var errNoSelector = errors.New("provide --id or --title")

// profileSelector is the --id/--title/--fuzzy trio shared by get, delete
// and share.
type profileSelector struct {
	id    string
	title string
	fuzzy bool
}

func (s *profileSelector) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.id, "id", "", "profile id (e.g. p0)")
	cmd.Flags().StringVar(&s.title, "title", "", "profile title")
	cmd.Flags().BoolVar(&s.fuzzy, "fuzzy", false, "also match titles with a word starting with --title")
}

func (s *profileSelector) resolve(ctx context.Context, client *fellow.Client) (fellow.Profile, error) {
	switch {
	case s.id != "":
		return client.Profile(ctx, s.id)
	case s.title != "":
		return client.FindProfile(ctx, s.title, s.fuzzy)
	default:
		return nil, errNoSelector
	}
}

func (a *app) profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage brew profiles",
		Args:  cobra.NoArgs,
		RunE:  requireSubcommand,
	}
	cmd.AddCommand(
		a.profilesListCmd(),
		a.profilesGetCmd(),
		a.profilesCreateCmd(),
		a.profilesDeleteCmd(),
		a.profilesImportCmd(),
		a.profilesShareCmd(),
		a.profilesBackupCmd(),
	)
	return cmd
}

func (a *app) profilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all profiles",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			profiles, err := client.Profiles(ctx)
			if err != nil {
				return nil, err
			}
			return profileListing(profiles), nil
		}),
	}
}

func profileListing(profiles []fellow.Profile) map[string]any {
	if profiles == nil {
		profiles = []fellow.Profile{}
	}
	return map[string]any{"profiles": profiles, "count": len(profiles)}
}

func (a *app) profilesGetCmd() *cobra.Command {
	var sel profileSelector
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a profile by id or title",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			return sel.resolve(ctx, client)
		}),
	}
	sel.bind(cmd)
	return cmd
}

func (a *app) profilesCreateCmd() *cobra.Command {
	spec := fellow.DefaultProfileSpec("")
	var noBloom bool
	var ssTemps, batchTemps string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new brew profile",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			var err error
			if spec.SSPulseTemperatures, err = parseTemperaturesFlag("ss-temps", ssTemps); err != nil {
				return nil, err
			}
			if spec.BatchPulseTemperatures, err = parseTemperaturesFlag("batch-temps", batchTemps); err != nil {
				return nil, err
			}
			if noBloom {
				spec.BloomEnabled = false
			}
			spec.Normalize()

			result, err := client.CreateProfile(ctx, spec)
			if err != nil {
				return nil, err
			}
			return envelope{
				Success: true,
				Message: fmt.Sprintf("Profile '%s' created.", spec.Title),
				Result:  result,
			}, nil
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&spec.Title, "title", "", "profile name")
	flags.Float64Var(&spec.Ratio, "ratio", spec.Ratio, "water-to-coffee ratio")
	flags.BoolVar(&spec.BloomEnabled, "bloom", spec.BloomEnabled, "enable the bloom phase")
	flags.BoolVar(&noBloom, "no-bloom", false, "disable the bloom phase")
	flags.Float64Var(&spec.BloomRatio, "bloom-ratio", spec.BloomRatio, "bloom water ratio")
	flags.IntVar(&spec.BloomDuration, "bloom-duration", spec.BloomDuration, "bloom duration in seconds")
	flags.Float64Var(&spec.BloomTemperature, "bloom-temp", spec.BloomTemperature, "bloom temperature in °C")
	flags.IntVar(&spec.SSPulsesNumber, "ss-pulses", spec.SSPulsesNumber, "number of single-serve pulses")
	flags.IntVar(&spec.SSPulsesInterval, "ss-interval", spec.SSPulsesInterval, "single-serve pulse interval in seconds")
	flags.StringVar(&ssTemps, "ss-temps", "", `single-serve pulse temperatures, comma-separated (e.g. "96,97,98")`)
	flags.IntVar(&spec.BatchPulsesNumber, "batch-pulses", spec.BatchPulsesNumber, "number of batch pulses")
	flags.IntVar(&spec.BatchPulsesInterval, "batch-interval", spec.BatchPulsesInterval, "batch pulse interval in seconds")
	flags.StringVar(&batchTemps, "batch-temps", "", `batch pulse temperatures, comma-separated (e.g. "96,97")`)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// parseTemperaturesFlag parses a temperature list flag, naming the flag in
// the error.
func parseTemperaturesFlag(name, raw string) ([]float64, error) {
	temps, err := fellow.ParseTemperatures(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return temps, nil
}

func (a *app) profilesDeleteCmd() *cobra.Command {
	var sel profileSelector
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a profile",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			if sel.id != "" {
				if _, err := client.DeleteProfile(ctx, sel.id); err != nil {
					return nil, err
				}
				return envelope{Success: true, Message: fmt.Sprintf("Profile '%s' deleted.", sel.id)}, nil
			}

			profile, err := sel.resolve(ctx, client)
			if err != nil {
				return nil, err
			}
			id := profile.ID()
			if _, err := client.DeleteProfile(ctx, id); err != nil {
				return nil, err
			}
			title := profile.Title()
			if title == "" {
				title = id
			}
			return envelope{Success: true, Message: fmt.Sprintf("Profile '%s' (id: %s) deleted.", title, id)}, nil
		}),
	}
	sel.bind(cmd)
	return cmd
}

func (a *app) profilesImportCmd() *cobra.Command {
	var link string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a profile from a brew.link URL",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			result, err := client.ImportProfile(ctx, link)
			if err != nil {
				return nil, err
			}
			return envelope{
				Success: true,
				Message: fmt.Sprintf("Profile imported from %s", link),
				Result:  result,
			}, nil
		}),
	}
	cmd.Flags().StringVar(&link, "url", "", "brew.link share URL (e.g. https://brew.link/p/ws98)")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

type shareResult struct {
	Success   bool   `json:"success"`
	ShareURL  string `json:"share_url"`
	ProfileID string `json:"profile_id"`
}

func (a *app) profilesShareCmd() *cobra.Command {
	var sel profileSelector
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Generate a brew.link share URL for a profile",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(ctx context.Context, client *fellow.Client) (any, error) {
			id := sel.id
			if id == "" {
				profile, err := sel.resolve(ctx, client)
				if err != nil {
					return nil, err
				}
				id = profile.ID()
			}
			link, err := client.ShareLink(ctx, id)
			if err != nil {
				return nil, err
			}
			return shareResult{Success: true, ShareURL: link, ProfileID: id}, nil
		}),
	}
	sel.bind(cmd)
	return cmd
}
