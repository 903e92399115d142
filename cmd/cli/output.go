package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kosarica/network-optimizer/internal/costmodel"
	"github.com/kosarica/network-optimizer/internal/optimizer"
)

var out io.Writer = os.Stdout

// printResult writes result in the selected output format.
func printResult(name string, result any) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, color.New(color.Bold).Sprint(name))
	switch r := result.(type) {
	case *optimizer.SolveResponse:
		printSolve(r)
	case *optimizer.AllocateResponse:
		printAllocate(r)
	case *optimizer.LocateResponse:
		printLocate(r)
	default:
		return fmt.Errorf("cannot print %T", result)
	}
	return nil
}

func statusString(status string, ok bool) string {
	if ok {
		return color.GreenString(status)
	}
	return color.YellowString(status)
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(out, color.YellowString("warning: %s", w))
	}
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printSolve(r *optimizer.SolveResponse) {
	fmt.Fprintf(out, "Status: %s  objective %.2f  iterations %d  (%d variables, %d constraints)\n",
		statusString(r.Status, r.Status == "optimal"), r.ObjectiveValue, r.Iterations, r.Variables, r.Constraints)
	printWarnings(r.Warnings)

	w := newTable()
	fmt.Fprintln(w, "\nPRODUCT\tFROM\tTO\tQUANTITY")
	for _, f := range r.Flows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", f.Product, f.From, f.To, f.Quantity)
	}
	fmt.Fprintln(w, "\nPRODUCT\tDEMAND\tDELIVERED\tSERVICE")
	for _, p := range r.Products {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.1f%%\n", p.Product, p.Demand, p.Delivered, p.ServiceLevel)
	}
	w.Flush()
}

func printAllocate(r *optimizer.AllocateResponse) {
	w := newTable()
	fmt.Fprintln(w, "CUSTOMER\tFACILITY\tPRODUCT\tQUANTITY\tDISTANCE")
	for _, a := range r.Assignments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\n", a.CustomerID, a.FacilityID, a.Product, a.Quantity, a.Distance)
	}
	fmt.Fprintln(w, "\nFACILITY\tPRODUCT\tALLOCATED\tCAPACITY")
	for _, l := range r.Loads {
		capacity := "unbounded"
		if l.Capacity != nil {
			capacity = fmt.Sprintf("%.2f", *l.Capacity)
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", l.FacilityID, l.Product, l.Allocated, capacity)
	}
	w.Flush()

	printCosts(r.CostBreakdown)
	k := r.KPIs
	fmt.Fprintf(out, "Demand: %.2f fulfilled, %.2f unmet of %.2f  service %s  avg distance %.2f  facilities %d\n",
		k.FulfilledDemand, k.UnmetDemand, k.TotalDemand,
		statusString(fmt.Sprintf("%.1f%%", k.ServiceLevel), k.UnmetDemand == 0), k.AverageDistance, k.FacilitiesUsed)
}

func printLocate(r *optimizer.LocateResponse) {
	fmt.Fprintf(out, "Status: %s  strategy %s  iterations %d\n",
		statusString(r.Status, r.Feasible), r.Strategy, r.Iterations)
	printWarnings(r.Warnings)

	w := newTable()
	fmt.Fprintln(w, "DC\tLATITUDE\tLONGITUDE\tEXISTING\tCUSTOMERS\tDEMAND\tCAPACITY")
	for _, dc := range r.DCs {
		capacity := "-"
		if dc.Capacity > 0 {
			capacity = fmt.Sprintf("%.2f", dc.Capacity)
		}
		fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%t\t%d\t%.2f\t%s\n",
			dc.ID, dc.Latitude, dc.Longitude, dc.Existing, len(dc.AssignedCustomers), dc.TotalDemand, capacity)
	}
	w.Flush()

	if len(r.Evaluated) > 0 {
		w = newTable()
		fmt.Fprintln(w, "\nSITES\tTOTAL COST")
		for n := 1; n <= maxKey(r.Evaluated); n++ {
			if cost, ok := r.Evaluated[n]; ok {
				fmt.Fprintf(w, "%d\t%.2f\n", n, cost)
			}
		}
		w.Flush()
	}

	printCosts(r.CostBreakdown)
	fmt.Fprintf(out, "Service level %.1f%%  avg distance %.2f\n", r.ServiceLevel, r.AverageDistance)
}

func printCosts(b costmodel.Breakdown) {
	fmt.Fprintf(out, "\nCost: total %.2f  transport %.2f  facilities %.2f  new sites %d\n",
		b.TotalCost, b.TransportationCost, b.FacilityCost, b.NumSites)
}

func maxKey(m map[int]float64) int {
	n := 0
	for k := range m {
		n = max(n, k)
	}
	return n
}
