// Package dispatch maps the main-agent tool surface to simulator calls and
// formats human-readable results (spec.md §4.7).
package dispatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"vendsim/internal/config"
	"vendsim/internal/simulator"
	"vendsim/internal/worldstate"
	"vendsim/pkg/types"
)

const terminatedNotice = "Simulation already terminated"

const subAgentSpecsText = `Sub-agent tools (invoked via run_sub_agent / chat_with_sub_agent):
  machine_inventory()                          - list all slots, items, quantities, prices
  stock_from_storage(item_id, quantity, slot)  - move items from storage into a slot
  set_price(item_id, price)                    - set a slot item's unit price
  collect_cash()                               - move cash_in_machine into cash_balance

Instructions are short natural-language strings, e.g.:
  "restock cola 10 in slot 0"
  "set price of cola to 1.50"
  "collect cash"
  "what is in the machine"`

// Dispatcher validates and executes main-agent tool calls against a
// Simulator, producing the text contract described in spec.md §6.
type Dispatcher struct {
	sim *simulator.Simulator
	cfg *config.Config
}

// New returns a Dispatcher bound to sim, using cfg for per-tool time costs.
func New(sim *simulator.Simulator, cfg *config.Config) *Dispatcher {
	return &Dispatcher{sim: sim, cfg: cfg}
}

// Dispatch executes a named main-agent tool call. args is looked up by key
// per tool (see the per-tool helpers below). Returns the
// human-readable result text and whether the episode just terminated.
func (d *Dispatcher) Dispatch(name string, args map[string]string) (string, bool) {
	if !types.IsMainAgentTool(name) {
		return fmt.Sprintf("Unknown tool: %s", name), false
	}
	if terminated, _ := d.sim.Terminated(); terminated {
		return terminatedNotice, true
	}

	if name == types.ToolWaitForNextDay {
		return d.waitForNextDay()
	}

	d.sim.ApplyToolStep(d.cfg.TimeCostMinutes(name))

	switch name {
	case types.ToolGetMoneyBalance:
		return d.getMoneyBalance(), false
	case types.ToolGetStorageInventory:
		return d.getStorageInventory(), false
	case types.ToolReadInbox:
		return d.readInbox(), false
	case types.ToolSendEmail:
		return d.sendEmail(args["to_addr"], args["subject"], args["body"]), false
	case types.ToolSearchProducts:
		return d.searchProducts(), false
	case types.ToolSubAgentSpecs:
		return subAgentSpecsText, false
	case types.ToolRunSubAgent:
		return d.sim.SubAgent.Run(args["instruction"]), false
	case types.ToolChatWithSubAgent:
		return d.sim.SubAgent.Chat(args["question"]), false
	default:
		return fmt.Sprintf("Unknown tool: %s", name), false
	}
}

func (d *Dispatcher) getMoneyBalance() string {
	return fmt.Sprintf("Cash on hand: $%s. Cash in machine: $%s.",
		d.sim.State.CashBalance.StringFixed(2), d.sim.State.CashInMachine.StringFixed(2))
}

func (d *Dispatcher) getStorageInventory() string {
	if len(d.sim.State.Storage) == 0 {
		return "Storage is empty."
	}
	ids := make([]string, 0, len(d.sim.State.Storage))
	for id := range d.sim.State.Storage {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var b strings.Builder
	b.WriteString("Storage inventory:\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "  %s: %d\n", id, d.sim.State.Storage[id])
	}
	return b.String()
}

func (d *Dispatcher) readInbox() string {
	inbox := d.sim.State.Inbox
	start := len(inbox) - 20
	if start < 0 {
		start = 0
	}
	recent := inbox[start:]
	if len(recent) == 0 {
		return "Inbox is empty."
	}
	var b strings.Builder
	for i := range recent {
		e := &recent[i]
		body := e.Body
		if len(body) > 300 {
			body = body[:300]
		}
		fmt.Fprintf(&b, "[%s] From: %s  Subject: %s\n%s\n\n", e.ID, e.From, e.Subject, body)
		e.Read = true
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dispatcher) sendEmail(toAddr, subject, body string) string {
	d.sim.State.Outbox = append(d.sim.State.Outbox, worldstate.Email{
		ID:      d.sim.State.NextEmailID(),
		From:    "agent",
		To:      toAddr,
		Subject: subject,
		Body:    body,
		DaySent: d.sim.State.Clock.Day,
	})

	res := d.sim.PlaceOrder(toAddr, subject, body)

	d.sim.State.Inbox = append(d.sim.State.Inbox, worldstate.Email{
		ID:      d.sim.State.NextEmailID(),
		From:    strings.ToLower(strings.TrimSpace(toAddr)),
		To:      "agent",
		Subject: res.ReplySubject,
		Body:    res.ReplyBody,
		DaySent: d.sim.State.Clock.Day,
	})

	return res.ReplyBody
}

func (d *Dispatcher) searchProducts() string {
	catalog := d.sim.Suppliers.Catalog()
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > 30 {
		ids = ids[:30]
	}
	var b strings.Builder
	b.WriteString("Products:\n")
	for _, id := range ids {
		info := catalog[id]
		fmt.Fprintf(&b, "  %s: $%s (%s)\n", info.ItemID, info.WholesalePrice.StringFixed(2), info.SizeClass)
	}
	return b.String()
}

func (d *Dispatcher) waitForNextDay() (string, bool) {
	report, terminated, reason := d.sim.EndDayAndReport()
	text := formatMorningReport(report)
	if terminated {
		text += fmt.Sprintf("\n\nSimulation terminated: %s", reason)
	}
	return text, terminated
}

func formatMorningReport(r simulator.MorningReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Morning report for day %d:\n", r.Day)

	if len(r.UnitsSold) == 0 {
		b.WriteString("  No units sold.\n")
	} else {
		ids := make([]string, 0, len(r.UnitsSold))
		for id := range r.UnitsSold {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "  Sold %d %s\n", r.UnitsSold[id], id)
		}
	}

	if len(r.Deliveries) == 0 {
		b.WriteString("  No deliveries.\n")
	} else {
		for _, id := range r.Deliveries {
			fmt.Fprintf(&b, "  Delivered order %s\n", id)
		}
	}

	fmt.Fprintf(&b, "  Unread emails: %d\n", len(r.UnreadEmails))
	fmt.Fprintf(&b, "  Cash collected yesterday: $%s\n", r.CashCollectedYesterday.StringFixed(2))
	return strings.TrimRight(b.String(), "\n")
}

// ArgInt parses a string tool argument as an int, returning 0 on failure.
// Dispatch itself does not call it: run_sub_agent numeric args are parsed
// by the sub-agent's text parser.
func ArgInt(args map[string]string, key string) int {
	n, _ := strconv.Atoi(args[key])
	return n
}
