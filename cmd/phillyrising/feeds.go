package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"phillyrising/domain"
	"phillyrising/internal/validate"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Manage RSS/Atom feed sources",
}

func init() {
	feedsCmd.AddCommand(feedsAddCmd)
	feedsCmd.AddCommand(feedsListCmd)
	feedsCmd.AddCommand(feedsDeleteCmd)

	feedsAddCmd.Flags().String("name", "", "feed name")
	feedsAddCmd.Flags().String("url", "", "feed URL")
	feedsAddCmd.Flags().String("category", domain.CategoryNews, "feed category (events, news, meetings)")
	feedsAddCmd.Flags().String("neighborhood", "", "neighborhood tag items are filed under")

	feedsListCmd.Flags().Int("num", 0, "limit number of feeds (0 = all)")

	feedsDeleteCmd.Flags().String("name", "", "feed name")

	itemsCmd.Flags().String("feed", "", "feed name")
	itemsCmd.Flags().Int("num", 3, "number of items")
}

var feedsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new feed source",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		url, _ := cmd.Flags().GetString("url")
		category, _ := cmd.Flags().GetString("category")
		neighborhood, _ := cmd.Flags().GetString("neighborhood")
		if strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
			return fmt.Errorf("both --name and --url are required")
		}
		switch category {
		case domain.CategoryEvents, domain.CategoryNews, domain.CategoryMeetings:
		default:
			return fmt.Errorf("unknown category: %s", category)
		}
		if err := validate.Reachable(url); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		f, err := st.feeds.AddFeed(ctx, domain.Feed{
			Name:            name,
			URL:             url,
			Category:        category,
			NeighborhoodTag: neighborhood,
		})
		if err != nil {
			return err
		}
		recordFeedRevision(ctx, st, f, domain.RevisionCreate)
		fmt.Printf("Feed %q registered (%s)\n", f.Name, f.Category)
		return nil
	},
}

var feedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered feed sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		num, _ := cmd.Flags().GetInt("num")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		feeds, err := st.feeds.ListFeeds(ctx, num)
		if err != nil {
			return err
		}
		fmt.Printf("# Registered Feeds\n\n")
		for i, f := range feeds {
			fmt.Printf("%d. Name: %s\n   URL: %s\n   Category: %s", i+1, f.Name, f.URL, f.Category)
			if f.NeighborhoodTag != "" {
				fmt.Printf("\n   Neighborhood: %s", f.NeighborhoodTag)
			}
			if f.Failures > 0 {
				fmt.Printf("\n   Consecutive failures: %d", f.Failures)
			}
			fmt.Printf("\n   Added: %s\n\n", f.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var feedsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a feed source and its items",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("--name is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		f, err := st.feeds.GetFeedByName(ctx, name)
		if err != nil {
			return err
		}
		n, err := st.feeds.DeleteFeed(ctx, name)
		if err != nil {
			return err
		}
		if n > 0 {
			recordFeedRevision(ctx, st, f, domain.RevisionDelete)
		}
		fmt.Printf("Deleted %d feed(s)\n", n)
		return nil
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Show the latest ingested items for a feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		feedName, _ := cmd.Flags().GetString("feed")
		num, _ := cmd.Flags().GetInt("num")
		if strings.TrimSpace(feedName) == "" {
			return fmt.Errorf("--feed is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		f, err := st.feeds.GetFeedByName(ctx, feedName)
		if err != nil {
			return err
		}
		items, err := st.feeds.ListItems(ctx, domain.ItemFilter{FeedID: f.ID, Limit: num})
		if err != nil {
			return err
		}
		fmt.Printf("Feed: %s\n\n", f.Name)
		for i, it := range items {
			fmt.Printf("%d. [%s] %s\n   %s\n\n", i+1, it.PublishedAt.Format("2006-01-02"), it.Title, it.Link)
		}
		return nil
	},
}

func recordFeedRevision(ctx context.Context, st *store, f domain.Feed, op string) {
	snap, err := json.Marshal(f)
	if err != nil {
		return
	}
	_ = st.revisions.RecordRevision(ctx, domain.Revision{
		Kind:     domain.RevisionFeed,
		EntityID: f.ID,
		Op:       op,
		Actor:    "cli",
		Snapshot: snap,
	})
}
