package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"phillyrising/cli/control"
)

var setIntervalCmd = &cobra.Command{
	Use:   "set-interval DURATION",
	Short: "Change the fetch interval of a running daemon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := control.NewClient(cfg.ControlAddr)
		old, err := c.SetInterval(d)
		if err != nil {
			return err
		}
		fmt.Printf("Fetch interval changed from %s to %s\n", old.String(), d.String())
		return nil
	},
}

var setWorkersCmd = &cobra.Command{
	Use:   "set-workers COUNT",
	Short: "Resize the worker pool of a running daemon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var n int
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n <= 0 {
			return fmt.Errorf("invalid workers count: %v", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := control.NewClient(cfg.ControlAddr)
		old, err := c.SetWorkers(n)
		if err != nil {
			return err
		}
		fmt.Printf("Number of workers changed from %d to %d\n", old, n)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's ingestion settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := control.NewClient(cfg.ControlAddr)
		interval, workers, err := c.Status()
		if err != nil {
			return err
		}
		fmt.Printf("Interval: %s\nWorkers: %d\n", interval, workers)
		return nil
	},
}
