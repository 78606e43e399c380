// Package rates - Manufacturing rate tables
// Densities, base volumes, labor rates and fixed pricing factors.
// Values are fixed workshop assumptions, overridable from an HCL file.
package rates

import (
	"github.com/shopspring/decimal"

	"jewelcost/internal/errors"
)

// Jewelry type keys
const (
	TypeRing     = "ring"
	TypeNecklace = "necklace"
	TypeBracelet = "bracelet"
	TypeEarrings = "earrings"
	TypePendant  = "pendant"
)

// Complexity tiers
const (
	ComplexitySimple   = "simple"
	ComplexityModerate = "moderate"
	ComplexityComplex  = "complex"
	ComplexityMaster   = "master"
)

// Size keys
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// MetalDefaults is the hardcoded last-resort metal price table,
// ILS per gram. Karat prices are always derived from 24k.
type MetalDefaults struct {
	Gold24K  decimal.Decimal
	Silver   decimal.Decimal
	Platinum decimal.Decimal
}

// Table holds every rate the pricing engine consumes.
type Table struct {
	// Densities maps material key to g/cm³
	Densities map[string]float64

	// BaseVolumes maps jewelry type to base volume in cm³
	BaseVolumes map[string]float64

	// SizeMultipliers scales the base volume
	SizeMultipliers map[string]float64

	// LaborHours maps jewelry type, then complexity, to hours
	LaborHours map[string]map[string]float64

	// StoneUpliftHours is the flat labor uplift when stones are set
	StoneUpliftHours float64

	// HourlyRate is the workshop labor rate, ILS per hour
	HourlyRate decimal.Decimal

	// MetalDefaults is the last-resort metal price table
	MetalDefaults MetalDefaults

	// WasteFactor covers manufacturing material loss
	WasteFactor decimal.Decimal

	// OverheadRate applies to cost before margin
	OverheadRate decimal.Decimal

	// DefaultMargin is the default margin multiplier
	DefaultMargin decimal.Decimal
}

// Default returns the built-in rate table.
func Default() *Table {
	return &Table{
		Densities: map[string]float64{
			"gold_24k": 19.3,
			"gold_18k": 15.5,
			"gold_14k": 13.5,
			"silver":   10.4,
			"platinum": 21.45,
		},
		BaseVolumes: map[string]float64{
			TypeRing:     0.8,
			TypePendant:  1.2,
			TypeEarrings: 1.0,
			TypeBracelet: 4.5,
			TypeNecklace: 6.0,
		},
		SizeMultipliers: map[string]float64{
			SizeSmall:  0.7,
			SizeMedium: 1.0,
			SizeLarge:  1.4,
		},
		LaborHours: map[string]map[string]float64{
			TypeRing:     {ComplexitySimple: 2.5, ComplexityModerate: 5, ComplexityComplex: 9, ComplexityMaster: 16},
			TypeNecklace: {ComplexitySimple: 3, ComplexityModerate: 6, ComplexityComplex: 11, ComplexityMaster: 20},
			TypeBracelet: {ComplexitySimple: 3, ComplexityModerate: 5.5, ComplexityComplex: 10, ComplexityMaster: 18},
			TypeEarrings: {ComplexitySimple: 2, ComplexityModerate: 4, ComplexityComplex: 8, ComplexityMaster: 14},
			TypePendant:  {ComplexitySimple: 2, ComplexityModerate: 4, ComplexityComplex: 7, ComplexityMaster: 12},
		},
		StoneUpliftHours: 1.5,
		HourlyRate:       decimal.NewFromInt(120),
		MetalDefaults: MetalDefaults{
			Gold24K:  decimal.NewFromInt(280),
			Silver:   decimal.RequireFromString("3.5"),
			Platinum: decimal.NewFromInt(115),
		},
		WasteFactor:   decimal.RequireFromString("1.15"),
		OverheadRate:  decimal.RequireFromString("0.15"),
		DefaultMargin: decimal.RequireFromString("2.5"),
	}
}

// Density returns the density for a material key in g/cm³.
func (t *Table) Density(material string) (float64, error) {
	d, ok := t.Densities[material]
	if !ok {
		return 0, errors.Inputf("unknown material: %s", material)
	}
	return d, nil
}

// BaseVolume returns the base volume for a jewelry type in cm³.
func (t *Table) BaseVolume(jewelryType string) (float64, error) {
	v, ok := t.BaseVolumes[jewelryType]
	if !ok {
		return 0, errors.Inputf("unknown jewelry type: %s", jewelryType)
	}
	return v, nil
}

// SizeMultiplier returns the volume multiplier for a size key.
// An empty size means medium.
func (t *Table) SizeMultiplier(size string) (float64, error) {
	if size == "" {
		size = SizeMedium
	}
	m, ok := t.SizeMultipliers[size]
	if !ok {
		return 0, errors.Inputf("unknown size: %s", size)
	}
	return m, nil
}

// Hours returns the labor hours for a jewelry type and complexity tier.
func (t *Table) Hours(jewelryType, complexity string) (float64, error) {
	byComplexity, ok := t.LaborHours[jewelryType]
	if !ok {
		return 0, errors.Inputf("unknown jewelry type: %s", jewelryType)
	}
	h, ok := byComplexity[complexity]
	if !ok {
		return 0, errors.Inputf("unknown complexity: %s", complexity)
	}
	return h, nil
}

// KnownJewelryType reports whether the key is in the table.
func (t *Table) KnownJewelryType(jewelryType string) bool {
	_, ok := t.BaseVolumes[jewelryType]
	return ok
}

// KnownComplexity reports whether the key names a complexity tier.
func KnownComplexity(complexity string) bool {
	switch complexity {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityMaster:
		return true
	default:
		return false
	}
}
