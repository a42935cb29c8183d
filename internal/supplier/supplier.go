// Package supplier implements the supplier registry: per-supplier
// catalogs, the agent email-body order parser, order validation, and
// lead-time sampling (spec.md §4.3).
package supplier

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vendsim/internal/worldstate"
	"vendsim/pkg/types"
)

// Supplier is one registered supplier: its catalog, minimum order value,
// and lead-time window.
type Supplier struct {
	ID              string
	Name            string
	Catalog         map[string]decimal.Decimal // item id -> unit price
	MinOrderValue   decimal.Decimal
	LeadTimeLo      int
	LeadTimeHi      int
	SizeClassByItem map[string]types.SizeClass // item id -> size class; defaults to Small
}

// SizeClassOf returns the size class this supplier advertises for an item.
func (s Supplier) SizeClassOf(itemID string) types.SizeClass {
	if s.SizeClassByItem != nil {
		if sc, ok := s.SizeClassByItem[itemID]; ok {
			return sc
		}
	}
	return types.Small
}

// LeadTime samples a uniform integer lead time in [LeadTimeLo, LeadTimeHi].
func (s Supplier) LeadTime(rng *rand.Rand) int {
	if s.LeadTimeHi <= s.LeadTimeLo {
		return s.LeadTimeLo
	}
	return s.LeadTimeLo + rng.Intn(s.LeadTimeHi-s.LeadTimeLo+1)
}

// Registry owns the set of registered suppliers and the merged product
// catalog they build up.
type Registry struct {
	suppliers map[string]Supplier
	catalog   map[string]worldstate.ItemInfo
}

// NewRegistry returns an empty supplier registry.
func NewRegistry() *Registry {
	return &Registry{
		suppliers: make(map[string]Supplier),
		catalog:   make(map[string]worldstate.ItemInfo),
	}
}

// RegisterSupplier adds a supplier and imports any of its unknown items
// into the shared product catalog, using the supplier's unit price as the
// wholesale reference (spec.md §4.3).
func (r *Registry) RegisterSupplier(s Supplier) {
	r.suppliers[s.ID] = s
	for itemID, price := range s.Catalog {
		if _, ok := r.catalog[itemID]; ok {
			continue
		}
		r.catalog[itemID] = worldstate.ItemInfo{
			ItemID:         itemID,
			Name:           displayName(itemID),
			SizeClass:      s.SizeClassOf(itemID),
			WholesalePrice: price,
		}
	}
}

// Get returns a registered supplier by id.
func (r *Registry) Get(supplierID string) (Supplier, bool) {
	s, ok := r.suppliers[supplierID]
	return s, ok
}

// Catalog returns the merged product catalog built up from every
// registered supplier.
func (r *Registry) Catalog() map[string]worldstate.ItemInfo {
	return r.catalog
}

func displayName(itemID string) string {
	words := strings.Split(itemID, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// OrderResult is the outcome of attempting to place an order from an
// agent's email.
type OrderResult struct {
	Success      bool
	Order        *worldstate.Order
	ReplySubject string
	ReplyBody    string
}

// ParseOrderEmail implements the five-step order-parsing algorithm of
// spec.md §4.3. cashBalance and day come from the caller's world state;
// nextOrderID allocates a fresh monotone order id; rng samples the lead
// time (the simulator's episode RNG, never the economy RNG — spec.md §5).
func (r *Registry) ParseOrderEmail(
	toAddr, subject, body string,
	cashBalance decimal.Decimal,
	day int,
	nextOrderID func() string,
	rng *rand.Rand,
) OrderResult {
	replySubject := "Re: " + truncate(subject, 50)

	supplierID := strings.ToLower(strings.TrimSpace(toAddr))
	supplier, ok := r.Get(supplierID)
	if !ok {
		return OrderResult{
			Success:      false,
			ReplySubject: replySubject,
			ReplyBody:    "We don't recognize this address. Please check the supplier ID.",
		}
	}

	items, err := parseBody(body)
	if err != nil {
		return OrderResult{
			Success:      false,
			ReplySubject: replySubject,
			ReplyBody:    "Please specify product names and quantities, e.g.:\n  snickers 50\n  cola 24",
		}
	}

	// Items are processed in a deterministic order (sorted by item id) so
	// the failure reply for "first unknown item" is reproducible across
	// runs with map-ordered iteration.
	itemIDs := make([]string, 0, len(items))
	for id := range items {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	total := decimal.Zero
	prices := make(map[string]decimal.Decimal, len(items))
	for _, itemID := range itemIDs {
		price, ok := supplier.Catalog[itemID]
		if !ok {
			return OrderResult{
				Success:      false,
				ReplySubject: replySubject,
				ReplyBody:    fmt.Sprintf("We don't carry '%s'. Our catalog: %s", itemID, truncate(catalogList(supplier), 200)),
			}
		}
		qty := items[itemID]
		prices[itemID] = price
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}

	if total.LessThan(supplier.MinOrderValue) {
		return OrderResult{
			Success:      false,
			ReplySubject: replySubject,
			ReplyBody:    fmt.Sprintf("Minimum order value is $%s. Your total: $%s", supplier.MinOrderValue.StringFixed(2), total.StringFixed(2)),
		}
	}
	if total.GreaterThan(cashBalance) {
		return OrderResult{
			Success:      false,
			ReplySubject: replySubject,
			ReplyBody:    fmt.Sprintf("Your order total is $%s but your account balance is $%s. Please reduce the order.", total.StringFixed(2), cashBalance.StringFixed(2)),
		}
	}

	lead := supplier.LeadTime(rng)
	eta := day + lead
	orderID := nextOrderID()
	order := &worldstate.Order{
		ID:             orderID,
		SupplierID:     supplierID,
		Items:          items,
		TotalCost:      total,
		ETADay:         eta,
		PurchasePrices: prices,
		Status:         types.OrderStatusOrdered,
	}

	return OrderResult{
		Success:      true,
		Order:        order,
		ReplySubject: fmt.Sprintf("Order confirmed #%s", orderID),
		ReplyBody:    fmt.Sprintf("Order confirmed. Total: $%s. Expected delivery: day %d (in %d days).", total.StringFixed(2), eta, lead),
	}
}

// CatalogInquiryReply answers the optional catalog-inquiry template
// (spec.md §4.3: "optional polish").
func (r *Registry) CatalogInquiryReply(toAddr string) (subject, body string) {
	supplier, ok := r.Get(strings.ToLower(strings.TrimSpace(toAddr)))
	if !ok {
		return "Re: Your inquiry", "Unknown supplier. Please use a valid supplier ID."
	}
	var b strings.Builder
	b.WriteString("Our products and prices:\n\n")
	ids := make([]string, 0, len(supplier.Catalog))
	for id := range supplier.Catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "  %s: $%s\n", id, supplier.Catalog[id].StringFixed(2))
	}
	fmt.Fprintf(&b, "\nMinimum order: $%s. Delivery in %d-%d days.", supplier.MinOrderValue.StringFixed(2), supplier.LeadTimeLo, supplier.LeadTimeHi)
	return "Re: Our products", b.String()
}

// parseBody implements spec.md §4.3 step 2: split on newlines, replace
// commas with spaces, split each line on whitespace; lines with fewer than
// two tokens are silently dropped, as are lines whose last token doesn't
// parse as a positive integer.
func parseBody(body string) (map[string]int, error) {
	items := make(map[string]int)
	lines := strings.Split(body, "\n")
	for _, line := range lines {
		line = strings.ReplaceAll(line, ",", " ")
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		qty, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil || qty <= 0 {
			continue
		}
		itemID := strings.ToLower(strings.Join(parts[:len(parts)-1], "_"))
		items[itemID] += qty
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no parsable items")
	}
	return items, nil
}

func catalogList(s Supplier) string {
	ids := make([]string, 0, len(s.Catalog))
	for id := range s.Catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
