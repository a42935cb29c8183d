package supplier

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	for _, s := range DefaultSuppliers() {
		r.RegisterSupplier(s)
	}
	return r
}

func nextID() func() string {
	n := 0
	return func() string {
		n++
		return "order_test"
	}
}

// Scenario (b), spec.md §8: successful order.
func TestParseOrderEmailSuccess(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	rng := rand.New(rand.NewSource(1))

	res := r.ParseOrderEmail("supplier_1", "Order", "cola 50", decimal.NewFromInt(500), 0, nextID(), rng)
	if !res.Success {
		t.Fatalf("expected success, got reply: %s", res.ReplyBody)
	}
	if res.Order.TotalCost.String() != "50" {
		t.Errorf("TotalCost = %s, want 50", res.Order.TotalCost)
	}
	if res.Order.Items["cola"] != 50 {
		t.Errorf("Items[cola] = %d, want 50", res.Order.Items["cola"])
	}
	if res.Order.ETADay < 2 || res.Order.ETADay > 4 {
		t.Errorf("ETADay = %d, want in [2,4]", res.Order.ETADay)
	}
}

// Scenario (c), spec.md §8: below-minimum order.
func TestParseOrderEmailBelowMinimum(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	rng := rand.New(rand.NewSource(1))

	res := r.ParseOrderEmail("supplier_1", "Order", "cola 10", decimal.NewFromInt(500), 0, nextID(), rng)
	if res.Success {
		t.Fatal("expected failure for below-minimum order")
	}
	if want := "Minimum order value is $50.00"; !strings.Contains(res.ReplyBody, want) {
		t.Errorf("ReplyBody = %q, want to contain %q", res.ReplyBody, want)
	}
}

func TestParseOrderEmailUnknownSupplier(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	rng := rand.New(rand.NewSource(1))

	res := r.ParseOrderEmail("nonexistent_supplier", "Order", "cola 50", decimal.NewFromInt(500), 0, nextID(), rng)
	if res.Success {
		t.Fatal("expected failure for unknown supplier")
	}
}

func TestParseOrderEmailUnknownProduct(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	rng := rand.New(rand.NewSource(1))

	res := r.ParseOrderEmail("supplier_1", "Order", "unobtainium 50", decimal.NewFromInt(500), 0, nextID(), rng)
	if res.Success {
		t.Fatal("expected failure for unknown product")
	}
	if want := "We don't carry 'unobtainium'"; !strings.Contains(res.ReplyBody, want) {
		t.Errorf("ReplyBody = %q, want to contain %q", res.ReplyBody, want)
	}
}

func TestParseOrderEmailInsufficientBalance(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	rng := rand.New(rand.NewSource(1))

	res := r.ParseOrderEmail("supplier_1", "Order", "cola 1000", decimal.NewFromInt(10), 0, nextID(), rng)
	if res.Success {
		t.Fatal("expected failure for insufficient balance")
	}
}

func TestParseOrderEmailNoParsableItems(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	rng := rand.New(rand.NewSource(1))

	res := r.ParseOrderEmail("supplier_1", "Order", "hello there, nothing to see", decimal.NewFromInt(500), 0, nextID(), rng)
	if res.Success {
		t.Fatal("expected failure for unparsable body")
	}
}

func TestParseBodyDropsMalformedLines(t *testing.T) {
	t.Parallel()
	items, err := parseBody("cola 50\njust one token\nchips, 10\nnotanumber abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items["cola"] != 50 {
		t.Errorf("cola = %d, want 50", items["cola"])
	}
	if items["chips"] != 10 {
		t.Errorf("chips = %d, want 10", items["chips"])
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2 (malformed lines should be dropped): %v", len(items), items)
	}
}

func TestRegisterSupplierImportsCatalog(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	catalog := r.Catalog()
	if _, ok := catalog["sandwich"]; !ok {
		t.Fatal("expected sandwich in merged catalog")
	}
	if catalog["sandwich"].SizeClass != "large" {
		t.Errorf("sandwich size class = %s, want large", catalog["sandwich"].SizeClass)
	}
	// cola appears in both suppliers; first registration wins (supplier_1 @ 1.0).
	if !catalog["cola"].WholesalePrice.Equal(decimal.NewFromFloat(1.0)) {
		t.Errorf("cola wholesale = %s, want 1.0 (first supplier wins)", catalog["cola"].WholesalePrice)
	}
}
