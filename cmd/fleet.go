package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dronershare/mobility/config"
	"github.com/dronershare/mobility/core/analytics"
	"github.com/dronershare/mobility/core/fleet"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List vehicles from the seed file",
	RunE:  runFleetLs,
}

var fleetKpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Print fleet KPIs as JSON",
	RunE:  runFleetKpi,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	fleetCmd.AddCommand(fleetKpiCmd)
	rootCmd.AddCommand(fleetCmd)
}

func seededStore() (*fleet.MemoryStore, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	store := fleet.NewMemoryStore()
	if cfg.Fleet.VehiclesFile == "" {
		return nil, fmt.Errorf("no vehicles_file configured")
	}
	if _, err := store.LoadVehicles(cfg.Fleet.VehiclesFile); err != nil {
		return nil, fmt.Errorf("seed vehicles: %w", err)
	}
	return store, nil
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	store, err := seededStore()
	if err != nil {
		return err
	}
	for _, v := range store.Vehicles(fleet.VehicleQuery{}) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.0f%%\n", v.ID, v.Status, v.BatteryLevel)
	}
	return nil
}

func runFleetKpi(cmd *cobra.Command, args []string) error {
	store, err := seededStore()
	if err != nil {
		return err
	}
	report := analytics.Summarize(store.Vehicles(fleet.VehicleQuery{}))
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
