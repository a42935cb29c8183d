// Package snapshot builds an in-memory, JSON-marshalable compact view of
// world state (spec.md §6, Persistence). It never touches disk: the core
// has no persistent storage (spec.md §1 Non-goals); an external caller may
// serialize the returned struct if it wishes.
package snapshot

import (
	"sort"

	"github.com/shopspring/decimal"

	"vendsim/internal/worldstate"
)

// Order is the compact view of an open order.
type Order struct {
	ID     string         `json:"id"`
	ETADay int            `json:"eta_day"`
	Items  map[string]int `json:"items"`
}

// Slot is the compact view of one machine slot.
type Slot struct {
	SlotID int    `json:"slot_id"`
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

// State is the full compact snapshot shape from spec.md §6.
type State struct {
	Day           int                        `json:"day"`
	CashBalance   decimal.Decimal            `json:"cash_balance"`
	CashInMachine decimal.Decimal            `json:"cash_in_machine"`
	NetWorth      decimal.Decimal            `json:"net_worth"`
	Storage       map[string]int             `json:"storage"`
	OpenOrders    []Order                    `json:"open_orders"`
	MachineSlots  []Slot                     `json:"machine_slots"`
	Prices        map[string]decimal.Decimal `json:"prices"`
	UnreadEmails  int                        `json:"unread_emails"`
}

// Build constructs a compact State snapshot from a world state, as a pure
// function with no side effects and no I/O.
func Build(s *worldstate.State) State {
	storage := make(map[string]int, len(s.Storage))
	for id, qty := range s.Storage {
		storage[id] = qty
	}

	orders := make([]Order, 0, len(s.OpenOrders))
	for _, o := range s.OpenOrders {
		items := make(map[string]int, len(o.Items))
		for id, qty := range o.Items {
			items[id] = qty
		}
		orders = append(orders, Order{ID: o.ID, ETADay: o.ETADay, Items: items})
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	slots := make([]Slot, 0, len(s.Slots))
	for _, slot := range s.Slots {
		slots = append(slots, Slot{SlotID: slot.ID, ItemID: slot.ItemID, Qty: slot.Quantity})
	}

	prices := make(map[string]decimal.Decimal, len(s.Prices))
	for id, p := range s.Prices {
		prices[id] = p
	}

	return State{
		Day:           s.Clock.Day,
		CashBalance:   s.CashBalance,
		CashInMachine: s.CashInMachine,
		NetWorth:      s.NetWorth(),
		Storage:       storage,
		OpenOrders:    orders,
		MachineSlots:  slots,
		Prices:        prices,
		UnreadEmails:  s.UnreadCount(),
	}
}

// StepRecord is a per-step trajectory record shape (spec.md §6): one entry
// an external caller may append to a JSONL trajectory file. Building a
// StepRecord performs no I/O; writing it is entirely the caller's concern.
type StepRecord struct {
	Step       int             `json:"step"`
	ToolName   string          `json:"tool_name"`
	ToolArgs   map[string]string `json:"tool_args"`
	Result     string          `json:"result"`
	NetWorth   decimal.Decimal `json:"net_worth"`
	Day        int             `json:"day"`
	Terminated bool            `json:"terminated"`
}

// BuildStepRecord constructs one trajectory record.
func BuildStepRecord(step int, toolName string, toolArgs map[string]string, result string, netWorth decimal.Decimal, day int, terminated bool) StepRecord {
	return StepRecord{
		Step:       step,
		ToolName:   toolName,
		ToolArgs:   toolArgs,
		Result:     result,
		NetWorth:   netWorth,
		Day:        day,
		Terminated: terminated,
	}
}
