package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jewelcost/core/gemstones"
	"jewelcost/core/labor"
	"jewelcost/core/metals"
	"jewelcost/core/rates"
	"jewelcost/internal/errors"
	"jewelcost/internal/metrics"
)

// legacyStonePrices is the fixed size table the synchronous legacy
// variant uses instead of the full gemstone source.
var legacyStonePrices = map[gemstones.SizeCategory]decimal.Decimal{
	gemstones.SizeTiny:      decimal.NewFromInt(250),
	gemstones.SizeSmall:     decimal.NewFromInt(750),
	gemstones.SizeMedium:    decimal.NewFromInt(2150),
	gemstones.SizeLarge:     decimal.NewFromInt(3700),
	gemstones.SizeStatement: decimal.NewFromInt(11000),
}

// Calculator orchestrates the price sources into a breakdown. It
// never fails due to upstream unavailability; the only propagated
// failures are invalid input keys and full-spec gemstone lookups.
type Calculator struct {
	metals *metals.Source
	labor  *labor.Estimator
	table  *rates.Table
	logger *zap.Logger
	now    func() time.Time
}

// NewCalculator creates a calculator with its collaborators injected.
func NewCalculator(metalSource *metals.Source, estimator *labor.Estimator, table *rates.Table, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		metals: metalSource,
		labor:  estimator,
		table:  table,
		logger: logger,
		now:    time.Now,
	}
}

// Advanced composes the full breakdown for a pricing request.
func (c *Calculator) Advanced(ctx context.Context, req AdvancedRequest) (*Breakdown, error) {
	start := time.Now()

	prices := c.metals.PricesSafe(ctx)
	pricePerGram, err := metals.MaterialPrice(prices, req.Material)
	if err != nil {
		return nil, err
	}

	weight, err := c.weightGrams(req)
	if err != nil {
		return nil, err
	}

	// material cost with manufacturing waste
	materialCost := decimal.NewFromFloat(weight).Mul(pricePerGram).Mul(c.table.WasteFactor)

	stoneCost := decimal.Zero
	var stoneItems []gemstones.LineItem
	if len(req.Stones) > 0 {
		stoneCost, stoneItems, err = gemstones.StonesTotal(req.Stones)
		if err != nil {
			return nil, err
		}
	}

	est, laborSource, err := c.labor.Estimate(ctx, labor.Request{
		Description: req.Description,
		JewelryType: req.JewelryType,
		Material:    string(req.Material),
		Complexity:  req.Complexity,
		HasStones:   len(req.Stones) > 0,
		StoneCount:  stoneCount(req.Stones),
		IncludeAI:   req.IncludeAI,
	})
	if err != nil {
		return nil, err
	}

	// overhead applies to cost before overhead; it never compounds
	// with margin
	preOverhead := materialCost.Add(stoneCost).Add(est.Total)
	overhead := preOverhead.Mul(c.table.OverheadRate)

	costSubtotal := preOverhead.Add(overhead)

	margin := c.marginMultiplier(req.MarginMultiplier)
	marginAmount := costSubtotal.Mul(margin.Sub(decimal.NewFromInt(1)))
	total := costSubtotal.Mul(margin)

	variance := decimal.NewFromFloat(est.Confidence.Variance())
	one := decimal.NewFromInt(1)
	low := total.Mul(one.Sub(variance)).Round(0)
	high := total.Mul(one.Add(variance)).Round(0)

	b := &Breakdown{
		Currency: Currency,
		Materials: MaterialsCost{
			WeightGrams:  weight,
			PricePerGram: pricePerGram,
			WasteFactor:  c.table.WasteFactor,
			Subtotal:     materialCost.Round(0),
		},
		Stones: StonesCost{
			Items:    roundItems(stoneItems),
			Subtotal: stoneCost.Round(0),
		},
		Labor: LaborCost{
			Hours:      est.Hours,
			HourlyRate: est.HourlyRate,
			Complexity: est.Complexity,
			Confidence: est.Confidence,
			Subtotal:   est.Total.Round(0),
		},
		Overhead: OverheadCost{
			Percentage: c.table.OverheadRate,
			Subtotal:   overhead.Round(0),
		},
		CostSubtotal:     costSubtotal.Round(0),
		MarginMultiplier: margin,
		Margin:           marginAmount.Round(0),
		Total:            total.Round(0),
		PriceRange:       PriceRange{Low: low, High: high},
		Metadata: Metadata{
			MetalPricesSource: prices.Source,
			LaborSource:       string(laborSource),
			CalculatedAt:      c.now().UTC(),
		},
	}

	metrics.QuoteLatencySeconds.Observe(time.Since(start).Seconds())
	c.logger.Debug("breakdown composed",
		zap.String("jewelry_type", req.JewelryType),
		zap.String("material", string(req.Material)),
		zap.String("metal_source", prices.Source),
		zap.String("labor_source", string(laborSource)),
		zap.String("total", b.Total.String()),
	)

	return b, nil
}

// Legacy produces the flattened quick-quote breakdown. Without an
// explicit metal price it delegates to the advanced path with the AI
// path disabled; with one it runs fully synchronously on the same
// arithmetic, differing only in stone-pricing fidelity.
func (c *Calculator) Legacy(ctx context.Context, req LegacyRequest) (*LegacyBreakdown, error) {
	if req.MetalPricePerGram.IsZero() {
		stones := make([]gemstones.Stone, 0, len(req.StoneSizes))
		for _, size := range req.StoneSizes {
			stones = append(stones, gemstones.Stone{
				Type:     gemstones.Diamond,
				Size:     gemstones.Size{Category: size},
				Quantity: 1,
			})
		}

		b, err := c.Advanced(ctx, AdvancedRequest{
			Material:    req.Material,
			JewelryType: req.JewelryType,
			Size:        req.Size,
			Complexity:  req.Complexity,
			Stones:      stones,
			IncludeAI:   false,
		})
		if err != nil {
			return nil, err
		}
		return &LegacyBreakdown{
			Currency:  Currency,
			Materials: b.Materials.Subtotal,
			Stones:    b.Stones.Subtotal,
			Labor:     b.Labor.Subtotal,
			Total:     b.Total,
		}, nil
	}

	return c.legacySync(req)
}

// legacySync is the explicit-metal-price variant. Same waste, overhead
// and margin formulas; simplified stone pricing.
func (c *Calculator) legacySync(req LegacyRequest) (*LegacyBreakdown, error) {
	weight, err := c.weightGrams(AdvancedRequest{
		Material:    req.Material,
		JewelryType: req.JewelryType,
		Size:        req.Size,
	})
	if err != nil {
		return nil, err
	}

	materialCost := decimal.NewFromFloat(weight).Mul(req.MetalPricePerGram).Mul(c.table.WasteFactor)

	stoneCost := decimal.Zero
	for i, size := range req.StoneSizes {
		price, ok := legacyStonePrices[size]
		if !ok {
			return nil, errors.Inputf("stone[%d]: unknown size category: %s", i, size)
		}
		stoneCost = stoneCost.Add(price)
	}

	est, err := c.labor.QuickEstimate(req.JewelryType, req.Complexity, len(req.StoneSizes) > 0)
	if err != nil {
		return nil, err
	}

	preOverhead := materialCost.Add(stoneCost).Add(est.Total)
	costSubtotal := preOverhead.Add(preOverhead.Mul(c.table.OverheadRate))
	total := costSubtotal.Mul(c.table.DefaultMargin)

	return &LegacyBreakdown{
		Currency:  Currency,
		Materials: materialCost.Round(0),
		Stones:    stoneCost.Round(0),
		Labor:     est.Total.Round(0),
		Total:     total.Round(0),
	}, nil
}

// weightGrams resolves the effective volume and converts it to grams.
func (c *Calculator) weightGrams(req AdvancedRequest) (float64, error) {
	volume := req.VolumeCm3
	if volume <= 0 {
		base, err := c.table.BaseVolume(req.JewelryType)
		if err != nil {
			return 0, err
		}
		mult, err := c.table.SizeMultiplier(req.Size)
		if err != nil {
			return 0, err
		}
		volume = base * mult
	}

	density, err := c.table.Density(string(req.Material))
	if err != nil {
		return 0, err
	}

	return volume * density, nil
}

func (c *Calculator) marginMultiplier(override float64) decimal.Decimal {
	if override > 0 {
		return decimal.NewFromFloat(override)
	}
	return c.table.DefaultMargin
}

// roundItems rounds line-item prices for reporting.
func roundItems(items []gemstones.LineItem) []gemstones.LineItem {
	out := make([]gemstones.LineItem, len(items))
	for i, item := range items {
		item.UnitPrice = item.UnitPrice.Round(0)
		item.Total = item.Total.Round(0)
		out[i] = item
	}
	return out
}

func stoneCount(stones []gemstones.Stone) int {
	n := 0
	for _, s := range stones {
		n += s.Quantity
	}
	return n
}
