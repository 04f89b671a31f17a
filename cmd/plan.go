package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dronershare/mobility/config"
	"github.com/dronershare/mobility/core/geo"
	"github.com/dronershare/mobility/core/routing"
)

var planFlags struct {
	startLat, startLng float64
	endLat, endLng     float64
	payloadKg          float64
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a route between two points and print it as JSON",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().Float64Var(&planFlags.startLat, "start-lat", 0, "start latitude")
	planCmd.Flags().Float64Var(&planFlags.startLng, "start-lng", 0, "start longitude")
	planCmd.Flags().Float64Var(&planFlags.endLat, "end-lat", 0, "end latitude")
	planCmd.Flags().Float64Var(&planFlags.endLng, "end-lng", 0, "end longitude")
	planCmd.Flags().Float64Var(&planFlags.payloadKg, "payload", 0, "payload in kg")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	planner := routing.NewPlanner(nil, cfg.Planner)
	route, err := planner.PlanRoute(cmd.Context(),
		geo.Point{Lat: planFlags.startLat, Lng: planFlags.startLng},
		geo.Point{Lat: planFlags.endLat, Lng: planFlags.endLng},
		routing.Options{PayloadKg: planFlags.payloadKg},
	)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(route, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
