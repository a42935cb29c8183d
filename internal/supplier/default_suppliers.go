package supplier

import (
	"github.com/shopspring/decimal"

	"vendsim/pkg/types"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// DefaultSuppliers returns two suppliers with overlapping catalogs at
// different prices — a deterministic, non-trivial fixture for demos and
// tests, recovered from the reference implementation's
// data/default_suppliers.py. sandwich and nuts are the only large items;
// everything else is small.
func DefaultSuppliers() []Supplier {
	largeItems := map[string]types.SizeClass{
		"sandwich": types.Large,
		"nuts":     types.Large,
	}

	return []Supplier{
		{
			ID:   "supplier_1",
			Name: "Bulk Snacks Co",
			Catalog: map[string]decimal.Decimal{
				"cola":          d(1.0),
				"water":         d(0.6),
				"chips":         d(1.2),
				"snickers":      d(1.1),
				"red_bull":      d(1.7),
				"orange_juice":  d(1.5),
				"cookies":       d(1.3),
				"gum":           d(0.7),
			},
			MinOrderValue:   d(50.0),
			LeadTimeLo:      2,
			LeadTimeHi:      4,
			SizeClassByItem: largeItems,
		},
		{
			ID:   "supplier_2",
			Name: "Beverage & More",
			Catalog: map[string]decimal.Decimal{
				"cola":         d(1.1),
				"water":        d(0.65),
				"red_bull":     d(1.8),
				"orange_juice": d(1.6),
				"nuts":         d(1.9),
				"sandwich":     d(2.6),
				"chips":        d(1.25),
				"gum":          d(0.75),
			},
			MinOrderValue:   d(40.0),
			LeadTimeLo:      3,
			LeadTimeHi:      5,
			SizeClassByItem: largeItems,
		},
	}
}
