// Package cmd - quote command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jewelcost/core/confidence"
	"jewelcost/core/gemstones"
	"jewelcost/core/metals"
	"jewelcost/core/pricing"
	"jewelcost/internal/app"
	"jewelcost/internal/config"
)

var (
	quoteFormat      string
	quoteMaterial    string
	quoteType        string
	quoteSize        string
	quoteComplexity  string
	quoteDescription string
	quoteVolume      float64
	quoteMargin      float64
	quoteStonesFile  string
	quoteUseAI       bool
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a jewelry piece",
	Long: `Produce a full cost breakdown for a jewelry piece.

Stones can be supplied as a JSON file holding an array of
{"type","size":{"category"|"carat"},"quality","quantity"} objects.

Examples:
  jewelcost quote --material gold_18k --type ring
  jewelcost quote --material platinum --type necklace --size large --format json
  jewelcost quote --material gold_14k --type pendant --stones stones.json`,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVarP(&quoteFormat, "format", "f", "cli", "output format (cli, json)")
	quoteCmd.Flags().StringVarP(&quoteMaterial, "material", "m", "gold_18k", "material (gold_24k, gold_18k, gold_14k, silver, platinum)")
	quoteCmd.Flags().StringVarP(&quoteType, "type", "t", "ring", "jewelry type (ring, pendant, earrings, bracelet, necklace)")
	quoteCmd.Flags().StringVarP(&quoteSize, "size", "s", "", "size (small, medium, large)")
	quoteCmd.Flags().StringVarP(&quoteComplexity, "complexity", "c", "", "complexity (simple, moderate, complex, master)")
	quoteCmd.Flags().StringVarP(&quoteDescription, "description", "d", "", "free-text description for labor estimation")
	quoteCmd.Flags().Float64Var(&quoteVolume, "volume", 0, "metal volume in cm3 (overrides the type/size table)")
	quoteCmd.Flags().Float64Var(&quoteMargin, "margin", 0, "margin multiplier (overrides the default)")
	quoteCmd.Flags().StringVar(&quoteStonesFile, "stones", "", "JSON file listing stones")
	quoteCmd.Flags().BoolVar(&quoteUseAI, "ai", false, "use AI labor estimation when configured")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	engine, err := app.Build(config.Get())
	if err != nil {
		return err
	}
	defer engine.Close()

	var stones []gemstones.Stone
	if quoteStonesFile != "" {
		data, err := os.ReadFile(quoteStonesFile)
		if err != nil {
			return fmt.Errorf("reading stones file: %w", err)
		}
		if err := json.Unmarshal(data, &stones); err != nil {
			return fmt.Errorf("parsing stones file: %w", err)
		}
	}

	breakdown, err := engine.Calculator.Advanced(ctx, pricing.AdvancedRequest{
		Material:         metals.Material(quoteMaterial),
		JewelryType:      quoteType,
		Description:      quoteDescription,
		Size:             quoteSize,
		VolumeCm3:        quoteVolume,
		Stones:           stones,
		Complexity:       quoteComplexity,
		MarginMultiplier: quoteMargin,
		IncludeAI:        quoteUseAI,
	})
	if err != nil {
		return err
	}

	if quoteFormat == "json" {
		return printJSON(os.Stdout, breakdown)
	}
	printBreakdown(os.Stdout, breakdown)
	return nil
}

func printBreakdown(w io.Writer, b *pricing.Breakdown) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Materials\t%.2fg × %s %s/g × %s waste\t%s %s\n",
		b.Materials.WeightGrams, b.Materials.PricePerGram, b.Currency,
		b.Materials.WasteFactor, b.Materials.Subtotal, b.Currency)

	for _, item := range b.Stones.Items {
		fmt.Fprintf(tw, "Stone\t%d × %s %.2fct %s\t%s %s\n",
			item.Quantity, item.Type, item.Carat, item.Quality, item.Total, b.Currency)
	}

	fmt.Fprintf(tw, "Labor\t%.1fh × %s %s/h (%s)\t%s %s\n",
		b.Labor.Hours, b.Labor.HourlyRate, b.Currency,
		b.Labor.Complexity, b.Labor.Subtotal, b.Currency)
	fmt.Fprintf(tw, "Overhead\t%s\t%s %s\n",
		b.Overhead.Percentage, b.Overhead.Subtotal, b.Currency)
	fmt.Fprintf(tw, "Margin\t×%s\t%s %s\n",
		b.MarginMultiplier, b.Margin, b.Currency)
	fmt.Fprintf(tw, "Total\t\t%s %s\n", b.Total, b.Currency)
	fmt.Fprintf(tw, "Range\t\t%s – %s %s\n",
		b.PriceRange.Low, b.PriceRange.High, b.Currency)
	fmt.Fprintf(tw, "Confidence\t%s\t%.2f\n",
		confidence.Level(b.Labor.Confidence), b.Labor.Confidence.Value())

	tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
