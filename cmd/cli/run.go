package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kosarica/network-optimizer/internal/optimizer"
	"github.com/kosarica/network-optimizer/internal/scenario"
)

var (
	locateCustomers string
	locateSeed      uint64
	locateDCs       int
)

var solveCmd = &cobra.Command{
	Use:   "solve <scenario.json>",
	Short: "Solve facility-to-customer flows with the LP solver",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(cmd.Context(), args[0], optimizer.KindSolve, nil)
	},
}

var allocateCmd = &cobra.Command{
	Use:   "allocate <scenario.json>",
	Short: "Allocate customer demand to facilities by gravity score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(cmd.Context(), args[0], optimizer.KindAllocate, nil)
	},
}

var locateCmd = &cobra.Command{
	Use:   "locate <scenario.json>",
	Short: "Plan distribution center locations",
	Long: `Plan distribution center locations for the customers in a scenario.

--customers replaces the scenario's customers with a CSV or XLSX table with
columns id, latitude, longitude and demand (or demand_<product>).`,
	Example: `  netopt locate plan.json
  netopt locate plan.json --customers stores.csv --seed 42 --dcs 3 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(cmd.Context(), args[0], optimizer.KindLocate, func(req *optimizer.LocateRequest) error {
			if locateCustomers != "" {
				customers, err := scenario.ReadCustomers(locateCustomers)
				if err != nil {
					return err
				}
				logger.Info().Str("file", locateCustomers).Int("customers", len(customers)).Msg("Loaded customers")
				req.Customers = customers
			}
			if cmd.Flags().Changed("seed") {
				req.Settings.Seed = &locateSeed
			}
			if locateDCs > 0 {
				req.Settings.NumDCs = locateDCs
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(solveCmd, allocateCmd, locateCmd)

	locateCmd.Flags().StringVar(&locateCustomers, "customers", "", "customer table (.csv or .xlsx) replacing the scenario's customers")
	locateCmd.Flags().Uint64Var(&locateSeed, "seed", 0, "random seed for reproducible clustering")
	locateCmd.Flags().IntVar(&locateDCs, "dcs", 0, "number of distribution centers (overrides the scenario)")
}

// runScenario loads path, applies the locate overrides when given and prints the result.
func runScenario(ctx context.Context, path, kind string, override func(*optimizer.LocateRequest) error) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if sc.Kind != "" && sc.Kind != kind {
		return fmt.Errorf("%s is a %s scenario, not %s", path, sc.Kind, kind)
	}

	svc := optimizer.NewService(optimizerConfig())

	var result any
	if override != nil {
		var req optimizer.LocateRequest
		if err := sc.Decode(&req); err != nil {
			return err
		}
		if err := override(&req); err != nil {
			return err
		}
		if result, err = svc.Locate(ctx, &req); err != nil {
			return err
		}
	} else if result, err = sc.Run(ctx, svc, kind); err != nil {
		return err
	}

	return printResult(sc.Name, result)
}
