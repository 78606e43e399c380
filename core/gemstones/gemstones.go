// Package gemstones - Gemstone price source
// Quick size/quality estimates plus a full 4C lookup for diamonds.
// All prices are produced already in ILS; no currency conversion
// lives above this package.
package gemstones

import (
	"github.com/shopspring/decimal"

	"jewelcost/internal/errors"
)

// StoneType identifies a stone.
type StoneType string

const (
	Diamond  StoneType = "diamond"
	Sapphire StoneType = "sapphire"
	Ruby     StoneType = "ruby"
	Emerald  StoneType = "emerald"
)

// SizeCategory is a named stone size.
type SizeCategory string

const (
	SizeTiny      SizeCategory = "tiny"
	SizeSmall     SizeCategory = "small"
	SizeMedium    SizeCategory = "medium"
	SizeLarge     SizeCategory = "large"
	SizeStatement SizeCategory = "statement"
)

// Quality is a coarse quality tier for quick estimates.
type Quality string

const (
	QualityEconomy  Quality = "economy"
	QualityStandard Quality = "standard"
	QualityPremium  Quality = "premium"
	QualityLuxury   Quality = "luxury"
)

// Size is either a named category or a numeric carat weight. A
// positive Carat takes precedence over the category.
type Size struct {
	Category SizeCategory `json:"category,omitempty"`
	Carat    float64      `json:"carat,omitempty"`
}

// Stone is an immutable pricing input; it has no identity beyond its
// fields.
type Stone struct {
	Type     StoneType `json:"type"`
	Size     Size      `json:"size"`
	Quality  Quality   `json:"quality,omitempty"`
	Quantity int       `json:"quantity"`
}

// categoryCarats maps named sizes to carat weights.
var categoryCarats = map[SizeCategory]float64{
	SizeTiny:      0.05,
	SizeSmall:     0.15,
	SizeMedium:    0.3,
	SizeLarge:     0.5,
	SizeStatement: 1.0,
}

// qualityFactors adjust the per-carat base for quick estimates.
var qualityFactors = map[Quality]string{
	QualityEconomy:  "0.7",
	QualityStandard: "1.0",
	QualityPremium:  "1.4",
	QualityLuxury:   "2.0",
}

// clarityFactors adjust the per-carat base in the full 4C path.
var clarityFactors = map[string]string{
	"FL":   "1.8",
	"IF":   "1.6",
	"VVS1": "1.45",
	"VVS2": "1.35",
	"VS1":  "1.25",
	"VS2":  "1.15",
	"SI1":  "1.0",
	"SI2":  "0.85",
	"I1":   "0.65",
}

// colorFactors adjust the per-carat base in the full 4C path.
var colorFactors = map[string]string{
	"D": "1.5",
	"E": "1.4",
	"F": "1.3",
	"G": "1.2",
	"H": "1.1",
	"I": "1.0",
	"J": "0.9",
	"K": "0.8",
}

// cutFactors adjust for cut grade; quick estimates assume Excellent.
var cutFactors = map[string]string{
	"Excellent": "1.1",
	"Very Good": "1.0",
	"Good":      "0.9",
	"Fair":      "0.75",
}

// shapeFactors adjust for shape relative to round.
var shapeFactors = map[string]string{
	"round":    "1.0",
	"oval":     "0.95",
	"marquise": "0.94",
	"pear":     "0.93",
	"princess": "0.92",
	"emerald":  "0.91",
	"cushion":  "0.9",
}

// typeDiscount scales a non-diamond stone relative to an equivalent
// diamond, reflecting its lower baseline market price.
const nonDiamondDiscount = "0.6"

const (
	defaultCut   = "Excellent"
	defaultShape = "round"
)

// basePerCarat returns the per-carat market base price in ILS for a
// carat weight. Larger stones price higher per carat.
func basePerCarat(carat float64) decimal.Decimal {
	switch {
	case carat < 0.25:
		return decimal.NewFromInt(4200)
	case carat < 0.5:
		return decimal.NewFromInt(6500)
	case carat < 1.0:
		return decimal.NewFromInt(9800)
	case carat < 2.0:
		return decimal.NewFromInt(16000)
	default:
		return decimal.NewFromInt(24000)
	}
}

// resolveCarat turns a Size into a carat weight.
func resolveCarat(size Size) (float64, error) {
	if size.Carat > 0 {
		return size.Carat, nil
	}
	if size.Category == "" {
		return 0, errors.Input("stone size is required")
	}
	carat, ok := categoryCarats[size.Category]
	if !ok {
		return 0, errors.Inputf("unknown stone size category: %s", size.Category)
	}
	return carat, nil
}

func factor(table map[string]string, key string) (decimal.Decimal, bool) {
	s, ok := table[key]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.RequireFromString(s), true
}

// QuickDiamondEstimate prices a diamond from a size and quality tier.
// This is the path bulk stone aggregation uses.
func QuickDiamondEstimate(size Size, quality Quality) (decimal.Decimal, error) {
	carat, err := resolveCarat(size)
	if err != nil {
		return decimal.Zero, err
	}

	if quality == "" {
		quality = QualityStandard
	}
	qs, ok := qualityFactors[quality]
	if !ok {
		return decimal.Zero, errors.Inputf("unknown stone quality: %s", quality)
	}
	qf := decimal.RequireFromString(qs)

	cf, _ := factor(cutFactors, defaultCut)

	caratDec := decimal.NewFromFloat(carat)
	return caratDec.Mul(basePerCarat(carat)).Mul(qf).Mul(cf), nil
}

// Specs is a full diamond specification for the 4C path.
type Specs struct {
	Carat   float64 `json:"carat"`
	Clarity string  `json:"clarity"`
	Color   string  `json:"color"`
	Cut     string  `json:"cut,omitempty"`
	Shape   string  `json:"shape,omitempty"`
}

// DiamondPrice prices a diamond from its full specification. Missing
// cut defaults to Excellent, missing shape to round. This path has no
// fallback; an unknown clarity or color grade fails the call.
func DiamondPrice(specs Specs) (decimal.Decimal, error) {
	if specs.Carat <= 0 {
		return decimal.Zero, errors.Input("carat must be positive")
	}

	clarity, ok := factor(clarityFactors, specs.Clarity)
	if !ok {
		return decimal.Zero, errors.Inputf("unknown clarity grade: %s", specs.Clarity)
	}

	color, ok := factor(colorFactors, specs.Color)
	if !ok {
		return decimal.Zero, errors.Inputf("unknown color grade: %s", specs.Color)
	}

	cutKey := specs.Cut
	if cutKey == "" {
		cutKey = defaultCut
	}
	cut, ok := factor(cutFactors, cutKey)
	if !ok {
		return decimal.Zero, errors.Inputf("unknown cut grade: %s", specs.Cut)
	}

	shapeKey := specs.Shape
	if shapeKey == "" {
		shapeKey = defaultShape
	}
	shape, ok := factor(shapeFactors, shapeKey)
	if !ok {
		return decimal.Zero, errors.Inputf("unknown shape: %s", specs.Shape)
	}

	caratDec := decimal.NewFromFloat(specs.Carat)
	return caratDec.Mul(basePerCarat(specs.Carat)).Mul(clarity).Mul(color).Mul(cut).Mul(shape), nil
}

// LineItem is one priced stone entry, preserved in input order.
type LineItem struct {
	Type      StoneType       `json:"type"`
	Carat     float64         `json:"carat"`
	Quality   Quality         `json:"quality"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// StonesTotal prices a list of stones via the quick-estimate path,
// applying the non-diamond discount where it applies. The breakdown
// holds one line per input entry, in input order.
func StonesTotal(stones []Stone) (decimal.Decimal, []LineItem, error) {
	total := decimal.Zero
	breakdown := make([]LineItem, 0, len(stones))

	for i, stone := range stones {
		if stone.Quantity <= 0 {
			return decimal.Zero, nil, errors.Inputf("stone[%d]: quantity must be positive", i)
		}

		unit, err := QuickDiamondEstimate(stone.Size, stone.Quality)
		if err != nil {
			return decimal.Zero, nil, err
		}

		if stone.Type != Diamond {
			switch stone.Type {
			case Sapphire, Ruby, Emerald:
				unit = unit.Mul(decimal.RequireFromString(nonDiamondDiscount))
			default:
				return decimal.Zero, nil, errors.Inputf("stone[%d]: unknown stone type: %s", i, stone.Type)
			}
		}

		carat, _ := resolveCarat(stone.Size)
		quality := stone.Quality
		if quality == "" {
			quality = QualityStandard
		}

		lineTotal := unit.Mul(decimal.NewFromInt(int64(stone.Quantity)))
		breakdown = append(breakdown, LineItem{
			Type:      stone.Type,
			Carat:     carat,
			Quality:   quality,
			Quantity:  stone.Quantity,
			UnitPrice: unit,
			Total:     lineTotal,
		})
		total = total.Add(lineTotal)
	}

	return total, breakdown, nil
}
