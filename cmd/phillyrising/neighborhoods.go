package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"phillyrising/domain"
)

var neighborhoodsCmd = &cobra.Command{
	Use:   "neighborhoods",
	Short: "Manage neighborhoods",
}

func init() {
	neighborhoodsCmd.AddCommand(neighborhoodsAddCmd)
	neighborhoodsCmd.AddCommand(neighborhoodsListCmd)

	neighborhoodsAddCmd.Flags().String("tag", "", "unique neighborhood slug")
	neighborhoodsAddCmd.Flags().String("name", "", "display name")
	neighborhoodsAddCmd.Flags().String("description", "", "description")
	neighborhoodsAddCmd.Flags().Float64("lat", 0, "center latitude")
	neighborhoodsAddCmd.Flags().Float64("lng", 0, "center longitude")
}

var neighborhoodsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a neighborhood",
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		if strings.TrimSpace(tag) == "" || strings.TrimSpace(name) == "" {
			return fmt.Errorf("both --tag and --name are required")
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

		n, err := st.neighborhoods.AddNeighborhood(ctx, domain.Neighborhood{
			Tag:         tag,
			Name:        name,
			Description: description,
			Lat:         lat,
			Lng:         lng,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Neighborhood %q added (tag %s)\n", n.Name, n.Tag)
		return nil
	},
}

var neighborhoodsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List neighborhoods with their 30-day point totals",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		hoods, err := st.neighborhoods.ListNeighborhoods(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("# Neighborhoods\n\n")
		for i, n := range hoods {
			fmt.Printf("%d. %s (%s): %d points\n", i+1, n.Name, n.Tag, n.Points)
		}
		return nil
	},
}
