// Package rates - Rate table tests
package rates

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDensityLookup checks known and unknown materials
func TestDensityLookup(t *testing.T) {
	table := Default()

	d, err := table.Density("gold_18k")
	if err != nil {
		t.Fatalf("Density(gold_18k): %v", err)
	}
	if d != 15.5 {
		t.Errorf("gold_18k density = %v, want 15.5", d)
	}

	if _, err := table.Density("mithril"); err == nil {
		t.Error("expected error for unknown material")
	}
}

// TestSizeMultiplierDefaultsToMedium proves empty size means medium
func TestSizeMultiplierDefaultsToMedium(t *testing.T) {
	table := Default()

	m, err := table.SizeMultiplier("")
	if err != nil {
		t.Fatalf("SizeMultiplier(\"\"): %v", err)
	}
	if m != 1.0 {
		t.Errorf("empty size multiplier = %v, want 1.0", m)
	}

	if _, err := table.SizeMultiplier("gigantic"); err == nil {
		t.Error("expected error for unknown size")
	}
}

// TestHoursLookup checks the labor hour matrix
func TestHoursLookup(t *testing.T) {
	table := Default()

	h, err := table.Hours(TypeRing, ComplexityMaster)
	if err != nil {
		t.Fatalf("Hours(ring, master): %v", err)
	}
	if h != 16 {
		t.Errorf("ring/master hours = %v, want 16", h)
	}

	if _, err := table.Hours("crown", ComplexitySimple); err == nil {
		t.Error("expected error for unknown jewelry type")
	}
	if _, err := table.Hours(TypeRing, "heroic"); err == nil {
		t.Error("expected error for unknown complexity")
	}
}

// TestKnownComplexity covers the complexity tier keys
func TestKnownComplexity(t *testing.T) {
	for _, c := range []string{ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityMaster} {
		if !KnownComplexity(c) {
			t.Errorf("KnownComplexity(%q) = false", c)
		}
	}
	if KnownComplexity("heroic") {
		t.Error("KnownComplexity(heroic) = true")
	}
}

// TestLoadMissingFileKeepsDefaults proves a missing override file is
// not an error
func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	if err != nil {
		t.Fatalf("Load(missing): %v", err)
	}
	if !table.HourlyRate.Equal(Default().HourlyRate) {
		t.Errorf("hourly rate changed without a file: %s", table.HourlyRate)
	}
}

// TestLoadAppliesOverrides proves HCL values win over defaults while
// untouched values stand
func TestLoadAppliesOverrides(t *testing.T) {
	src := `
hourly_rate = 150

density "gold_18k" {
  grams_per_cm3 = 15.6
}

base_volume "ring" {
  cm3 = 0.9
}

labor "ring" {
  master = 18
}

metal_defaults {
  gold_24k = 300
}
`
	path := filepath.Join(t.TempDir(), "rates.hcl")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := table.HourlyRate.String(); got != "150" {
		t.Errorf("hourly rate = %s, want 150", got)
	}
	if table.Densities["gold_18k"] != 15.6 {
		t.Errorf("gold_18k density = %v, want 15.6", table.Densities["gold_18k"])
	}
	if table.BaseVolumes[TypeRing] != 0.9 {
		t.Errorf("ring volume = %v, want 0.9", table.BaseVolumes[TypeRing])
	}
	if table.LaborHours[TypeRing][ComplexityMaster] != 18 {
		t.Errorf("ring/master hours = %v, want 18", table.LaborHours[TypeRing][ComplexityMaster])
	}
	if got := table.MetalDefaults.Gold24K.String(); got != "300" {
		t.Errorf("gold_24k default = %s, want 300", got)
	}

	// untouched values keep their defaults
	if table.LaborHours[TypeRing][ComplexitySimple] != 2.5 {
		t.Errorf("ring/simple hours = %v, want 2.5", table.LaborHours[TypeRing][ComplexitySimple])
	}
	if got := table.WasteFactor.String(); got != "1.15" {
		t.Errorf("waste factor = %s, want 1.15", got)
	}
}

// TestLoadRejectsMalformedFile proves a bad file is a config error
func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.hcl")
	if err := os.WriteFile(path, []byte("hourly_rate = {"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed file")
	}
}
