// Package worldstate holds the simulator's single mutable aggregate:
// finances, the item catalog, storage, vending machine slots, open orders,
// mail, and the clock. It is owned by the simulator; the sub-agent executor
// and the dispatcher mutate it through the simulator's handle. It is not
// safe for concurrent access
// (spec.md §5: the core is single-threaded and cooperative, so no locking
// is required or provided).
package worldstate

import (
	"strconv"

	"github.com/shopspring/decimal"

	"vendsim/internal/vclock"
	"vendsim/pkg/types"
)

// ItemInfo is the catalog entry for a product: its display name, size
// class, and wholesale reference price (used for net-worth valuation).
type ItemInfo struct {
	ItemID         string
	Name           string
	SizeClass      types.SizeClass
	WholesalePrice decimal.Decimal
}

// Slot is one physical position in the vending machine.
type Slot struct {
	ID        int
	Row       int
	Column    int
	SizeClass types.SizeClass
	ItemID    string // empty when the slot holds nothing
	Quantity  int
	Capacity  int
}

// Free returns the remaining capacity in the slot.
func (s *Slot) Free() int {
	free := s.Capacity - s.Quantity
	if free < 0 {
		return 0
	}
	return free
}

// Order is an open (not yet delivered) supplier order.
type Order struct {
	ID              string
	SupplierID      string
	Items           map[string]int // item id -> qty
	TotalCost       decimal.Decimal
	ETADay          int
	PurchasePrices  map[string]decimal.Decimal // item id -> unit price paid
	Status          types.OrderStatus
}

// Email is one message in the inbox or outbox.
type Email struct {
	ID      string
	From    string
	To      string
	Subject string
	Body    string
	DaySent int
	Read    bool
}

// State is the full aggregate world state for one episode.
type State struct {
	// Finances.
	CashBalance           decimal.Decimal
	CashInMachine         decimal.Decimal
	DailyFee              decimal.Decimal
	ConsecutiveUnpaidDays int

	// Catalog and storage.
	Catalog map[string]ItemInfo
	Storage map[string]int

	// Vending machine.
	Slots  []*Slot
	Prices map[string]decimal.Decimal

	// Orders and mail.
	OpenOrders []*Order
	Inbox      []Email
	Outbox     []Email

	// Clock.
	Clock vclock.Clock

	// Cumulative counters.
	TotalUnitsSold int

	orderCounter int
	emailCounter int
}

// New builds an empty State with the given vending-machine layout.
// rowSizeClasses gives the size class for each row (its length determines the row count);
// slotsPerRow gives the column count.
func New(initialCash, dailyFee decimal.Decimal, rowSizeClasses []types.SizeClass, slotsPerRow, capacity int) *State {
	s := &State{
		CashBalance:   initialCash,
		CashInMachine: decimal.Zero,
		DailyFee:      dailyFee,
		Catalog:       make(map[string]ItemInfo),
		Storage:       make(map[string]int),
		Prices:        make(map[string]decimal.Decimal),
	}

	id := 0
	for row, sizeClass := range rowSizeClasses {
		for col := 0; col < slotsPerRow; col++ {
			s.Slots = append(s.Slots, &Slot{
				ID:        id,
				Row:       row,
				Column:    col,
				SizeClass: sizeClass,
				Capacity:  capacity,
			})
			id++
		}
	}
	return s
}

// NextOrderID returns a fresh monotone order id ("order_<n>").
func (s *State) NextOrderID() string {
	s.orderCounter++
	return "order_" + strconv.Itoa(s.orderCounter)
}

// NextEmailID returns a fresh monotone email id ("email_<n>").
func (s *State) NextEmailID() string {
	s.emailCounter++
	return "email_" + strconv.Itoa(s.emailCounter)
}

// SlotByID returns the slot with the given id, if any.
func (s *State) SlotByID(id int) (*Slot, bool) {
	for _, slot := range s.Slots {
		if slot.ID == id {
			return slot, true
		}
	}
	return nil, false
}

// NetWorth is cash + in-machine cash + storage and slot quantities valued
// at wholesale price (invariant 4, spec.md §3).
func (s *State) NetWorth() decimal.Decimal {
	total := s.CashBalance.Add(s.CashInMachine)
	for itemID, qty := range s.Storage {
		info, ok := s.Catalog[itemID]
		if !ok || qty <= 0 {
			continue
		}
		total = total.Add(info.WholesalePrice.Mul(decimal.NewFromInt(int64(qty))))
	}
	for _, slot := range s.Slots {
		if slot.ItemID == "" || slot.Quantity <= 0 {
			continue
		}
		info, ok := s.Catalog[slot.ItemID]
		if !ok {
			continue
		}
		total = total.Add(info.WholesalePrice.Mul(decimal.NewFromInt(int64(slot.Quantity))))
	}
	return total
}

// UnreadCount returns the number of unread inbox emails.
func (s *State) UnreadCount() int {
	n := 0
	for _, e := range s.Inbox {
		if !e.Read {
			n++
		}
	}
	return n
}

// PruneStorage removes zero-or-negative entries from storage (invariant:
// zero entries are pruned, spec.md §3).
func (s *State) PruneStorage() {
	for id, qty := range s.Storage {
		if qty <= 0 {
			delete(s.Storage, id)
		}
	}
}
