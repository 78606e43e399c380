// Package pricing - Pricing calculator and breakdown model
// Composes metal, stone and labor costs into a quoted price with a
// confidence-weighted range. Breakdowns are created fresh per request
// and immutable once returned.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"jewelcost/core/confidence"
	"jewelcost/core/gemstones"
	"jewelcost/core/metals"
)

// Currency is the fixed settlement currency.
const Currency = "ILS"

// AdvancedRequest is the full pricing input. The legacy/advanced
// split is an explicit request variant resolved at the API boundary,
// never inferred from which fields happen to be set.
type AdvancedRequest struct {
	Material    metals.Material
	JewelryType string
	Description string

	// Size scales the base volume; empty means medium
	Size string

	// VolumeCm3 overrides the type/size volume table when positive
	VolumeCm3 float64

	Stones []gemstones.Stone

	// Complexity seeds the rule-based labor path; empty means moderate
	Complexity string

	// MarginMultiplier overrides the default when positive
	MarginMultiplier float64

	// IncludeAI enables the AI labor path
	IncludeAI bool
}

// LegacyRequest is the flat quick-quote input.
type LegacyRequest struct {
	Material    metals.Material
	JewelryType string
	Size        string
	Complexity  string

	// StoneSizes prices stones through a fixed size table
	StoneSizes []gemstones.SizeCategory

	// MetalPricePerGram, when positive, bypasses the live metal
	// lookup and runs the fully synchronous variant
	MetalPricePerGram decimal.Decimal
}

// MaterialsCost is the metal component of a breakdown.
type MaterialsCost struct {
	WeightGrams  float64         `json:"weight_grams"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	WasteFactor  decimal.Decimal `json:"waste_factor"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// StonesCost is the stone component of a breakdown.
type StonesCost struct {
	Items    []gemstones.LineItem `json:"items,omitempty"`
	Subtotal decimal.Decimal      `json:"subtotal"`
}

// LaborCost is the labor component of a breakdown.
type LaborCost struct {
	Hours      float64          `json:"hours"`
	HourlyRate decimal.Decimal  `json:"hourly_rate"`
	Complexity string           `json:"complexity"`
	Confidence confidence.Score `json:"confidence"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
}

// OverheadCost is the overhead component of a breakdown.
type OverheadCost struct {
	Percentage decimal.Decimal `json:"percentage"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// PriceRange brackets the total by a variance proportional to
// (1 - confidence), in whole currency units.
type PriceRange struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

// Metadata reports where the inputs came from.
type Metadata struct {
	MetalPricesSource string    `json:"metal_prices_source"`
	LaborSource       string    `json:"labor_source"`
	CalculatedAt      time.Time `json:"calculated_at"`
}

// Breakdown is the engine's sole externally visible output.
// Reported subtotals are rounded to whole currency units at the leaf
// level; the summation itself runs on unrounded values, so component
// sums may differ from the total by rounding.
type Breakdown struct {
	Currency string `json:"currency"`

	Materials MaterialsCost `json:"materials"`
	Stones    StonesCost    `json:"stones"`
	Labor     LaborCost     `json:"labor"`
	Overhead  OverheadCost  `json:"overhead"`

	CostSubtotal     decimal.Decimal `json:"cost_subtotal"`
	MarginMultiplier decimal.Decimal `json:"margin_multiplier"`
	Margin           decimal.Decimal `json:"margin"`
	Total            decimal.Decimal `json:"total"`

	PriceRange PriceRange `json:"price_range"`
	Metadata   Metadata   `json:"metadata"`
}

// LegacyBreakdown is the flattened four-field quick-quote output.
type LegacyBreakdown struct {
	Currency  string          `json:"currency"`
	Materials decimal.Decimal `json:"materials"`
	Stones    decimal.Decimal `json:"stones"`
	Labor     decimal.Decimal `json:"labor"`
	Total     decimal.Decimal `json:"total"`
}
