// Package api - Thin HTTP layer
// The API is only responsible for input ingestion, engine
// orchestration and output serialization. It never performs pricing
// logic.
package api

import (
	"github.com/shopspring/decimal"

	"jewelcost/core/gemstones"
	"jewelcost/core/metals"
	"jewelcost/core/pricing"
)

// QuoteRequest is the full pricing request body.
type QuoteRequest struct {
	Material    string `json:"material" validate:"required,oneof=gold_14k gold_18k gold_24k silver platinum"`
	JewelryType string `json:"jewelry_type" validate:"required"`
	Description string `json:"description"`

	Size      string  `json:"size" validate:"omitempty,oneof=small medium large"`
	VolumeCm3 float64 `json:"volume_cm3" validate:"omitempty,gt=0"`

	Stones []StoneInput `json:"stones" validate:"omitempty,dive"`

	Complexity       string  `json:"complexity" validate:"omitempty,oneof=simple moderate complex master"`
	MarginMultiplier float64 `json:"margin_multiplier" validate:"omitempty,gt=1"`

	// IncludeAIEstimate defaults to true when omitted
	IncludeAIEstimate *bool `json:"include_ai_estimate"`
}

// StoneInput is one stone entry. Size is a named category or a
// numeric carat; a positive carat wins.
type StoneInput struct {
	Type     string  `json:"type" validate:"required,oneof=diamond sapphire ruby emerald"`
	Size     string  `json:"size" validate:"omitempty,oneof=tiny small medium large statement"`
	Carat    float64 `json:"carat" validate:"omitempty,gt=0"`
	Quality  string  `json:"quality" validate:"omitempty,oneof=economy standard premium luxury"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
}

// QuickQuoteRequest is the flat legacy request body.
type QuickQuoteRequest struct {
	Material    string `json:"material" validate:"required,oneof=gold_14k gold_18k gold_24k silver platinum"`
	JewelryType string `json:"jewelry_type" validate:"required"`
	Size        string `json:"size" validate:"omitempty,oneof=small medium large"`
	Complexity  string `json:"complexity" validate:"omitempty,oneof=simple moderate complex master"`

	StoneSizes []string `json:"stone_sizes" validate:"omitempty,dive,oneof=tiny small medium large statement"`

	// MetalPricePerGram bypasses the live metal lookup when positive
	MetalPricePerGram float64 `json:"metal_price_per_gram" validate:"omitempty,gt=0"`
}

// QuoteResponse wraps a breakdown with a server-assigned quote ID.
type QuoteResponse struct {
	QuoteID   string             `json:"quote_id"`
	Breakdown *pricing.Breakdown `json:"breakdown"`
}

// QuickQuoteResponse wraps the flattened legacy breakdown.
type QuickQuoteResponse struct {
	QuoteID   string                   `json:"quote_id"`
	Breakdown *pricing.LegacyBreakdown `json:"breakdown"`
}

// MetalsResponse reports the current safe price table and its
// freshness.
type MetalsResponse struct {
	Prices     metals.Prices `json:"prices"`
	Fresh      bool          `json:"fresh"`
	TTLSeconds int64         `json:"ttl_seconds"`
}

// StoneEstimateResponse is the quick diamond estimate output.
type StoneEstimateResponse struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// errorResponse is the error envelope.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toAdvancedRequest converts the DTO into the engine's tagged request
// variant, resolving the AI flag default here at the boundary.
func (r *QuoteRequest) toAdvancedRequest() pricing.AdvancedRequest {
	stones := make([]gemstones.Stone, 0, len(r.Stones))
	for _, s := range r.Stones {
		stones = append(stones, gemstones.Stone{
			Type: gemstones.StoneType(s.Type),
			Size: gemstones.Size{
				Category: gemstones.SizeCategory(s.Size),
				Carat:    s.Carat,
			},
			Quality:  gemstones.Quality(s.Quality),
			Quantity: s.Quantity,
		})
	}

	includeAI := r.IncludeAIEstimate == nil || *r.IncludeAIEstimate

	return pricing.AdvancedRequest{
		Material:         metals.Material(r.Material),
		JewelryType:      r.JewelryType,
		Description:      r.Description,
		Size:             r.Size,
		VolumeCm3:        r.VolumeCm3,
		Stones:           stones,
		Complexity:       r.Complexity,
		MarginMultiplier: r.MarginMultiplier,
		IncludeAI:        includeAI,
	}
}

// toLegacyRequest converts the DTO into the engine's legacy variant.
func (r *QuickQuoteRequest) toLegacyRequest() pricing.LegacyRequest {
	sizes := make([]gemstones.SizeCategory, 0, len(r.StoneSizes))
	for _, s := range r.StoneSizes {
		sizes = append(sizes, gemstones.SizeCategory(s))
	}

	price := decimal.Zero
	if r.MetalPricePerGram > 0 {
		price = decimal.NewFromFloat(r.MetalPricePerGram)
	}

	return pricing.LegacyRequest{
		Material:          metals.Material(r.Material),
		JewelryType:       r.JewelryType,
		Size:              r.Size,
		Complexity:        r.Complexity,
		StoneSizes:        sizes,
		MetalPricePerGram: price,
	}
}
