// Package pricing holds the static rate tables used to annotate discovered
// resources with cost estimates. The catalog is declarative data loaded at
// initialization; lookups never fail, falling back to per-family defaults so
// unpriced resources stay visible in the report.
package pricing

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

// Default rates applied when a subtype has no table entry. These estimates
// keep the resource in the report at the cost of some pricing error.
const (
	DefaultComputeHourly   = 0.05
	DefaultVolumeGBMonth   = 0.10
	DefaultStorageGBMonth  = 0.023
	DefaultAddressIdleHour = 0.005
	DefaultSnapshotGBMonth = 0.05
)

// Catalog maps (family, subtype) to unit rates. Mutation is confined to
// initialization (LoadOverrides); lookups are safe for concurrent use.
type Catalog struct {
	logger *slog.Logger
	tables map[inventory.Family]map[string]float64

	mu     sync.Mutex
	missed map[string]bool
}

// NewCatalog returns the built-in rate tables.
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalog{
		logger: logger,
		missed: make(map[string]bool),
		tables: map[inventory.Family]map[string]float64{
			inventory.FamilyCompute: {
				"t2.micro":  0.0116,
				"t2.small":  0.023,
				"t2.medium": 0.0467,
				"t2.large":  0.093,
				"t3.micro":  0.0104,
				"t3.small":  0.0208,
				"t3.medium": 0.0416,
				"t3.large":  0.0832,
			},
			inventory.FamilyBlockVolume: {
				"gp2": 0.10,
				"gp3": 0.08,
				"io1": 0.125,
				"io2": 0.125,
				"st1": 0.045,
				"sc1": 0.015,
			},
			inventory.FamilyObjectStore: {
				"standard":            0.023,
				"intelligent_tiering": 0.0125,
				"standard_ia":         0.0125,
				"onezone_ia":          0.01,
				"glacier":             0.004,
				"glacier_ir":          0.0036,
			},
			inventory.FamilyReservedAddress: {
				"idle": 0.005,
			},
			inventory.FamilySnapshot: {
				"standard": 0.05,
			},
		},
	}
}

// Zeroed returns a catalog with every rate set to zero. Used by --no-cost
// runs where the inventory matters but the estimates do not.
func Zeroed(logger *slog.Logger) *Catalog {
	c := NewCatalog(logger)
	for _, table := range c.tables {
		for k := range table {
			table[k] = 0
		}
	}
	return c
}

// overrideFile is the YAML shape accepted by LoadOverrides.
type overrideFile struct {
	Rates map[string]map[string]float64 `yaml:"rates"`
}

// LoadOverrides merges a YAML rate file over the built-in tables. Family
// keys follow the CLI service names (ec2, ebs, s3, eip, snapshot).
func (c *Catalog) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rates file: %w", err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse rates file: %w", err)
	}

	for name, rates := range file.Rates {
		family, err := inventory.ParseFamily(name)
		if err != nil {
			return fmt.Errorf("rates file: %w", err)
		}
		for subtype, rate := range rates {
			if rate < 0 {
				return fmt.Errorf("rates file: negative rate for %s/%s", name, subtype)
			}
			c.tables[family][subtype] = rate
		}
	}

	c.logger.Info("Pricing overrides loaded", "path", path)
	return nil
}

// Rate resolves the unit cost for (family, subtype). Unknown subtypes
// resolve to the family default; the miss is logged once, never raised.
func (c *Catalog) Rate(family inventory.Family, subtype string, unit inventory.Unit) inventory.PricingRow {
	if rate, ok := c.tables[family][subtype]; ok {
		return inventory.PricingRow{Family: family, Subtype: subtype, Rate: rate, Unit: unit}
	}

	c.warnMiss(family, subtype)
	return inventory.PricingRow{
		Family:  family,
		Subtype: subtype,
		Rate:    c.familyDefault(family),
		Unit:    unit,
	}
}

func (c *Catalog) familyDefault(family inventory.Family) float64 {
	// A zeroed catalog must also zero the fallbacks.
	if c.allZero(family) {
		return 0
	}

	switch family {
	case inventory.FamilyCompute:
		return DefaultComputeHourly
	case inventory.FamilyBlockVolume:
		return DefaultVolumeGBMonth
	case inventory.FamilyObjectStore:
		return DefaultStorageGBMonth
	case inventory.FamilyReservedAddress:
		return DefaultAddressIdleHour
	case inventory.FamilySnapshot:
		return DefaultSnapshotGBMonth
	}
	return 0
}

func (c *Catalog) allZero(family inventory.Family) bool {
	table := c.tables[family]
	if len(table) == 0 {
		return false
	}
	for _, rate := range table {
		if rate != 0 {
			return false
		}
	}
	return true
}

func (c *Catalog) warnMiss(family inventory.Family, subtype string) {
	key := string(family) + "/" + subtype
	c.mu.Lock()
	seen := c.missed[key]
	c.missed[key] = true
	c.mu.Unlock()

	if !seen {
		c.logger.Warn("No pricing entry, using family default",
			"family", family, "subtype", subtype)
	}
}
