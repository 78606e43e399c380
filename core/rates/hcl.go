// Package rates - HCL override file support
// Operators can tune workshop rates without a rebuild.
package rates

import (
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/shopspring/decimal"

	"jewelcost/internal/errors"
)

// fileSchema is the HCL shape of a rates override file. Every value is
// optional; anything omitted keeps its built-in default.
type fileSchema struct {
	HourlyRate       *float64 `hcl:"hourly_rate,optional"`
	StoneUpliftHours *float64 `hcl:"stone_uplift_hours,optional"`
	WasteFactor      *float64 `hcl:"waste_factor,optional"`
	OverheadRate     *float64 `hcl:"overhead_rate,optional"`
	MarginMultiplier *float64 `hcl:"margin_multiplier,optional"`

	Densities   []densityBlock `hcl:"density,block"`
	BaseVolumes []volumeBlock  `hcl:"base_volume,block"`
	Labor       []laborBlock   `hcl:"labor,block"`

	MetalDefaults *metalDefaultsBlock `hcl:"metal_defaults,block"`
}

type densityBlock struct {
	Material    string  `hcl:"material,label"`
	GramsPerCm3 float64 `hcl:"grams_per_cm3"`
}

type volumeBlock struct {
	JewelryType string  `hcl:"jewelry_type,label"`
	Cm3         float64 `hcl:"cm3"`
}

type laborBlock struct {
	JewelryType string   `hcl:"jewelry_type,label"`
	Simple      *float64 `hcl:"simple,optional"`
	Moderate    *float64 `hcl:"moderate,optional"`
	Complex     *float64 `hcl:"complex,optional"`
	Master      *float64 `hcl:"master,optional"`
}

type metalDefaultsBlock struct {
	Gold24K  *float64 `hcl:"gold_24k,optional"`
	Silver   *float64 `hcl:"silver,optional"`
	Platinum *float64 `hcl:"platinum,optional"`
}

// Load returns the built-in table with overrides from an HCL file
// applied on top. A missing file is not an error; the defaults stand.
func Load(path string) (*Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return t, nil
	}

	var file fileSchema
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "parse rates file", err)
	}

	if file.HourlyRate != nil {
		t.HourlyRate = decimal.NewFromFloat(*file.HourlyRate)
	}
	if file.StoneUpliftHours != nil {
		t.StoneUpliftHours = *file.StoneUpliftHours
	}
	if file.WasteFactor != nil {
		t.WasteFactor = decimal.NewFromFloat(*file.WasteFactor)
	}
	if file.OverheadRate != nil {
		t.OverheadRate = decimal.NewFromFloat(*file.OverheadRate)
	}
	if file.MarginMultiplier != nil {
		t.DefaultMargin = decimal.NewFromFloat(*file.MarginMultiplier)
	}

	for _, d := range file.Densities {
		t.Densities[d.Material] = d.GramsPerCm3
	}
	for _, v := range file.BaseVolumes {
		t.BaseVolumes[v.JewelryType] = v.Cm3
	}
	for _, l := range file.Labor {
		byComplexity, ok := t.LaborHours[l.JewelryType]
		if !ok {
			byComplexity = make(map[string]float64)
			t.LaborHours[l.JewelryType] = byComplexity
		}
		if l.Simple != nil {
			byComplexity[ComplexitySimple] = *l.Simple
		}
		if l.Moderate != nil {
			byComplexity[ComplexityModerate] = *l.Moderate
		}
		if l.Complex != nil {
			byComplexity[ComplexityComplex] = *l.Complex
		}
		if l.Master != nil {
			byComplexity[ComplexityMaster] = *l.Master
		}
	}

	if md := file.MetalDefaults; md != nil {
		if md.Gold24K != nil {
			t.MetalDefaults.Gold24K = decimal.NewFromFloat(*md.Gold24K)
		}
		if md.Silver != nil {
			t.MetalDefaults.Silver = decimal.NewFromFloat(*md.Silver)
		}
		if md.Platinum != nil {
			t.MetalDefaults.Platinum = decimal.NewFromFloat(*md.Platinum)
		}
	}

	return t, nil
}
