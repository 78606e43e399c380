// Package cmd - metals command
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jewelcost/core/metals"
	"jewelcost/internal/app"
	"jewelcost/internal/config"
)

var metalsFormat string

// metalsCmd shows the current metal price table.
var metalsCmd = &cobra.Command{
	Use:   "metals",
	Short: "Show current metal prices",
	RunE:  runMetals,
}

// metalsRefreshCmd forces a live fetch.
var metalsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a live metal price fetch",
	RunE:  runMetalsRefresh,
}

func init() {
	metalsCmd.PersistentFlags().StringVarP(&metalsFormat, "format", "f", "cli", "output format (cli, json)")
	metalsCmd.AddCommand(metalsRefreshCmd)
}

func runMetals(cmd *cobra.Command, args []string) error {
	engine, err := app.Build(config.Get())
	if err != nil {
		return err
	}
	defer engine.Close()

	prices := engine.Metals.PricesSafe(context.Background())
	return printMetals(prices)
}

func runMetalsRefresh(cmd *cobra.Command, args []string) error {
	engine, err := app.Build(config.Get())
	if err != nil {
		return err
	}
	defer engine.Close()

	prices, err := engine.Metals.Refresh(context.Background())
	if err != nil {
		return err
	}
	return printMetals(prices)
}

func printMetals(p metals.Prices) error {
	if metalsFormat == "json" {
		return printJSON(os.Stdout, p)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Gold 24k\t%s ILS/g\n", p.Gold24K)
	fmt.Fprintf(tw, "Gold 18k\t%s ILS/g\n", p.Gold18K)
	fmt.Fprintf(tw, "Gold 14k\t%s ILS/g\n", p.Gold14K)
	fmt.Fprintf(tw, "Silver\t%s ILS/g\n", p.Silver)
	fmt.Fprintf(tw, "Platinum\t%s ILS/g\n", p.Platinum)
	fmt.Fprintf(tw, "Source\t%s\n", p.Source)
	if !p.Timestamp.IsZero() {
		fmt.Fprintf(tw, "As of\t%s\n", p.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	return tw.Flush()
}
