// Package subagent implements physical-world operations on vending machine
// slots and prices, and the short natural-language instruction parser that
// drives them (spec.md §4.6).
package subagent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vendsim/internal/worldstate"
)

var (
	reSetPrice = regexp.MustCompile(`(?i)set\s+price\s+(?:of\s+)?(\w+)\s+to\s+([\d.]+)`)
	reRestock  = regexp.MustCompile(`(?i)(?:restock|stock)\s+(\w+)\s+(\d+)\s+(?:in\s+)?slot\s+(\d+)`)
)

const maxLoggedActions = 20

// Executor holds a rolling action log and mutates a shared worldstate.State
// handle owned by the simulator.
type Executor struct {
	state *worldstate.State
	log   []string
}

// New returns an Executor bound to the given state.
func New(state *worldstate.State) *Executor {
	return &Executor{state: state}
}

func (e *Executor) record(action string) {
	e.log = append(e.log, action)
	if len(e.log) > maxLoggedActions {
		e.log = e.log[len(e.log)-maxLoggedActions:]
	}
}

// MachineInventory returns a formatted table of all slots.
func (e *Executor) MachineInventory() string {
	var b strings.Builder
	b.WriteString("Slot | Item | Qty | Price\n")
	for _, slot := range e.state.Slots {
		item := "-"
		price := "-"
		if slot.ItemID != "" {
			item = slot.ItemID
			if p, ok := e.state.Prices[slot.ItemID]; ok {
				price = "$" + p.StringFixed(2)
			}
		}
		fmt.Fprintf(&b, "%d | %s | %d | %s\n", slot.ID, item, slot.Quantity, price)
	}
	return b.String()
}

// StockFromStorage moves min(quantity, free space) units of item_id from
// storage into slot_id, validating slot existence, item existence, size
// class match, slot occupancy, and storage availability (spec.md §4.6).
func (e *Executor) StockFromStorage(itemID string, quantity, slotID int) string {
	slot, ok := e.state.SlotByID(slotID)
	if !ok {
		action := fmt.Sprintf("Slot %d not found", slotID)
		e.record(action)
		return action
	}
	info, ok := e.state.Catalog[itemID]
	if !ok {
		action := fmt.Sprintf("Unknown item '%s'", itemID)
		e.record(action)
		return action
	}
	if slot.SizeClass != info.SizeClass {
		action := fmt.Sprintf("Slot %d is %s, %s is %s", slotID, slot.SizeClass, itemID, info.SizeClass)
		e.record(action)
		return action
	}
	if slot.ItemID != "" && slot.ItemID != itemID {
		action := fmt.Sprintf("Slot %d already holds %s", slotID, slot.ItemID)
		e.record(action)
		return action
	}
	if e.state.Storage[itemID] < quantity {
		action := fmt.Sprintf("Insufficient storage: have %d %s, need %d", e.state.Storage[itemID], itemID, quantity)
		e.record(action)
		return action
	}
	free := slot.Free()
	if free <= 0 {
		action := fmt.Sprintf("Slot %d is full", slotID)
		e.record(action)
		return action
	}

	put := quantity
	if free < put {
		put = free
	}

	slot.ItemID = itemID
	slot.Quantity += put
	e.state.Storage[itemID] -= put
	e.state.PruneStorage()

	if _, priced := e.state.Prices[itemID]; !priced {
		e.state.Prices[itemID] = info.WholesalePrice.Mul(decimal.NewFromFloat(1.5)).Round(2)
	}

	action := fmt.Sprintf("Stocked %d %s into slot %d", put, itemID, slotID)
	e.record(action)
	return action
}

// SetPrice rejects negative prices and otherwise stores round(price, 2).
func (e *Executor) SetPrice(itemID string, price float64) string {
	if price < 0 {
		action := "Price cannot be negative"
		e.record(action)
		return action
	}
	e.state.Prices[itemID] = decimal.NewFromFloat(price).Round(2)
	action := fmt.Sprintf("Set price of %s to $%s", itemID, e.state.Prices[itemID].StringFixed(2))
	e.record(action)
	return action
}

// CollectCash moves cash_in_machine to cash_balance and zeroes the former.
func (e *Executor) CollectCash() string {
	amount := e.state.CashInMachine
	e.state.CashBalance = e.state.CashBalance.Add(amount)
	e.state.CashInMachine = decimal.Zero
	action := fmt.Sprintf("Collected $%s from machine", amount.StringFixed(2))
	e.record(action)
	return action
}

// Run parses a free-form instruction into one of the direct sub-agent
// operations and executes it (spec.md §4.6 instruction parsing).
func (e *Executor) Run(instruction string) string {
	lower := strings.ToLower(instruction)

	if strings.Contains(lower, "collect") && strings.Contains(lower, "cash") {
		return e.CollectCash()
	}
	if m := reSetPrice.FindStringSubmatch(instruction); m != nil {
		price, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return "Could not parse price"
		}
		return e.SetPrice(strings.ToLower(m[1]), price)
	}
	if m := reRestock.FindStringSubmatch(instruction); m != nil {
		qty, err1 := strconv.Atoi(m[2])
		slotID, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil {
			return "Could not parse restock instruction"
		}
		return e.StockFromStorage(strings.ToLower(m[1]), qty, slotID)
	}
	if strings.Contains(lower, "inventory") || strings.Contains(lower, "what is in") {
		return e.MachineInventory()
	}

	return "Try: 'restock cola 10 in slot 0', 'set price of cola to 1.50', 'collect cash', or 'machine inventory'."
}

// Chat answers a question about recent sub-agent activity or current state
// without mutating anything.
func (e *Executor) Chat(question string) string {
	lower := strings.ToLower(question)

	if strings.Contains(lower, "inventory") || strings.Contains(lower, "slot") {
		return e.MachineInventory()
	}
	if strings.Contains(lower, "did") || strings.Contains(lower, "what did") || strings.Contains(lower, "last") {
		return e.lastActions(5)
	}
	return e.lastActions(3) + "\n\n" + e.MachineInventory()
}

func (e *Executor) lastActions(n int) string {
	if len(e.log) == 0 {
		return "No actions logged yet."
	}
	start := len(e.log) - n
	if start < 0 {
		start = 0
	}
	recent := e.log[start:]
	var b strings.Builder
	b.WriteString("Recent actions:\n")
	for _, a := range recent {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return b.String()
}
