package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/friendzone-web/internal/config"
	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/friendzone"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/provider"
	"github.com/noah-isme/friendzone-web/internal/service"
)

type options struct {
	token   string
	userID  int64
	fixture bool
	verbose bool
	timeout time.Duration
}

// newRootCmd builds the CLI. It drives the same view controllers as the web pages,
// without a browser, against the live API or the fixture data.
func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "friendzonectl",
		Short: "Browse and join FriendZone communities from the terminal",
		Long: `friendzonectl loads the community list and detail views headlessly.

Use --fixture to work against the built-in sample data instead of the API.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token forwarded to the API")
	root.PersistentFlags().Int64Var(&opts.userID, "user-id", 1, "id of the session user")
	root.PersistentFlags().BoolVar(&opts.fixture, "fixture", false, "use the built-in sample data")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "overall command timeout")

	root.AddCommand(
		newListCmd(opts),
		newSearchCmd(opts),
		newJoinCmd(opts),
		newShowCmd(opts),
	)
	return root
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show joined, recommended and all communities plus similar users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			list, err := opts.listView()
			if err != nil {
				return err
			}
			defer list.Close()

			list.Load(ctx)
			printList(cmd.OutOrStdout(), list.Snapshot())
			return nil
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Filter the catalog by text and category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			list, err := opts.listView()
			if err != nil {
				return err
			}
			defer list.Close()

			list.Load(ctx)
			list.FilterByCategory(category)
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			visibility := list.Search(query)

			snapshot := list.Snapshot()
			visible := make(map[int64]struct{}, len(visibility.Visible))
			for _, id := range visibility.Visible {
				visible[id] = struct{}{}
			}
			out := cmd.OutOrStdout()
			for _, community := range catalog(snapshot) {
				if _, ok := visible[community.ID]; ok {
					printCommunity(out, community)
				}
			}
			fmt.Fprintf(out, "%d visible, %d hidden\n", len(visibility.Visible), len(visibility.Hidden))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category to filter by (technology, sports, arts, outdoor, education, social)")
	return cmd
}

func newJoinCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "join <community-id>",
		Short: "Join a community, or report that you already belong to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCommunityID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			list, err := opts.listView()
			if err != nil {
				return err
			}
			defer list.Close()

			list.Load(ctx)
			result, err := list.JoinCommunity(ctx, id)
			if err != nil {
				return fmt.Errorf("join failed: %s", friendzone.MessageOf(err, err.Error()))
			}

			out := cmd.OutOrStdout()
			if result.Redirect != "" {
				fmt.Fprintf(out, "already a member, see %s\n", result.Redirect)
				return nil
			}
			fmt.Fprintf(out, "joined community %d\n", id)
			return nil
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <community-id>",
		Short: "Show a community with its members, chat and recent activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCommunityID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			factory, auth, err := opts.factory()
			if err != nil {
				return err
			}
			detail := factory.NewDetail("cli", auth)
			defer detail.Close()

			if err := detail.Load(ctx, id); err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), detail.Snapshot())
			return nil
		},
	}
}

func (o *options) factory() (service.ViewFactory, provider.Auth, error) {
	logger := zerolog.Nop()
	if o.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger()
	}

	cfg := config.Config{ProviderMode: config.ProviderFixture}
	var api provider.API
	if !o.fixture {
		loaded, err := config.Load()
		if err != nil {
			return service.ViewFactory{}, provider.Auth{}, err
		}
		cfg = loaded
		client, err := friendzone.New(friendzone.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout, Logger: logger})
		if err != nil {
			return service.ViewFactory{}, provider.Auth{}, err
		}
		api = client
	}

	p, err := provider.New(&cfg, api, logger)
	if err != nil {
		return service.ViewFactory{}, provider.Auth{}, err
	}

	auth := provider.Auth{Token: o.token, User: &models.User{ID: o.userID}}
	return service.ViewFactory{Provider: p, Logger: logger}, auth, nil
}

func (o *options) listView() (*service.CommunityListController, error) {
	factory, auth, err := o.factory()
	if err != nil {
		return nil, err
	}
	return factory.NewList("cli", auth), nil
}

func parseCommunityID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid community id %q", raw)
	}
	return id, nil
}

func catalog(snapshot dto.ListSnapshot) []models.Community {
	seen := map[int64]struct{}{}
	var result []models.Community
	for _, region := range []dto.CommunityRegion{snapshot.Recommended, snapshot.All} {
		for _, community := range region.Communities {
			if _, ok := seen[community.ID]; ok {
				continue
			}
			seen[community.ID] = struct{}{}
			result = append(result, community)
		}
	}
	return result
}
