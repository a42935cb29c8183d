// Package simulator owns the world state, the event queue, the economy, and
// the supplier registry, and drives the tool-step and end-of-day algorithms
// that tie them together (spec.md §4.5).
package simulator

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"vendsim/internal/economy"
	"vendsim/internal/subagent"
	"vendsim/internal/supplier"
	"vendsim/internal/vclock"
	"vendsim/internal/worldstate"
	"vendsim/pkg/types"
)

// Reason is a termination reason tag.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonBankruptcy  Reason = "bankruptcy"
	ReasonMaxDays     Reason = "max_days"
	ReasonMaxMessages Reason = "max_messages"
)

// Limits configures the three termination thresholds (spec.md §4.5 step 8).
type Limits struct {
	BankruptcyDays int
	MaxMessages    int
	MaxDays        int
}

// MorningReport is the result of one end-of-day run (spec.md §4.5 step 7).
type MorningReport struct {
	Day                     int
	UnitsSold               map[string]int
	Deliveries              []string
	UnreadEmails            []worldstate.Email
	CashCollectedYesterday  decimal.Decimal
}

// Simulator owns every piece of mutable state for one episode and applies
// the tool-step and end-of-day algorithms against it. It is not safe for
// concurrent use — the core is single-threaded by design (spec.md §5).
type Simulator struct {
	State      *worldstate.State
	Queue      *vclock.Queue
	Economy    *economy.Economy
	Suppliers  *supplier.Registry
	SubAgent   *subagent.Executor
	episodeRng *rand.Rand
	limits     Limits

	messageCount int
	terminated   bool
	reason       Reason
}

// New builds a Simulator from its component parts. episodeRng and
// economy.Economy must wrap independent RNG streams (spec.md §5).
func New(state *worldstate.State, suppliers *supplier.Registry, episodeRng *rand.Rand, econ *economy.Economy, limits Limits) *Simulator {
	return &Simulator{
		State:      state,
		Queue:      vclock.NewQueue(),
		Economy:    econ,
		Suppliers:  suppliers,
		SubAgent:   subagent.New(state),
		episodeRng: episodeRng,
		limits:     limits,
	}
}

// Terminated reports whether the episode has ended, and why.
func (s *Simulator) Terminated() (bool, Reason) {
	return s.terminated, s.reason
}

// MessageCount returns the number of apply_tool_step calls made so far.
func (s *Simulator) MessageCount() int {
	return s.messageCount
}

// ApplyToolStep implements spec.md §4.5's tool-step algorithm: called for
// every tool except wait_for_next_day. It advances the clock by deltaMinutes,
// drains due events, and returns the list processed (for dispatcher
// logging). Callers must check Terminated() before invoking this.
func (s *Simulator) ApplyToolStep(deltaMinutes int) []vclock.Event {
	s.messageCount++
	s.State.Clock.Advance(deltaMinutes)
	return s.drainDue()
}

// drainDue drains all events at or before the current clock position and
// applies their side effects (Delivery credits storage and notifies the
// agent; DailyFee deducts cash — reserved for extensibility, spec.md §4.1).
func (s *Simulator) drainDue() []vclock.Event {
	events := s.Queue.DrainUntil(s.State.Clock.Now())
	for _, ev := range events {
		switch ev.Kind {
		case types.EventDelivery:
			s.applyDelivery(ev)
		case types.EventDailyFee:
			s.applyDailyFee(ev)
		}
	}
	return events
}

func (s *Simulator) applyDelivery(ev vclock.Event) {
	payload, ok := ev.Payload.(vclock.DeliveryPayload)
	if !ok {
		return
	}
	var idx = -1
	for i, o := range s.State.OpenOrders {
		if o.ID == payload.OrderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	order := s.State.OpenOrders[idx]
	for itemID, qty := range order.Items {
		s.State.Storage[itemID] += qty
	}
	order.Status = types.OrderStatusDelivered
	s.State.OpenOrders = append(s.State.OpenOrders[:idx], s.State.OpenOrders[idx+1:]...)

	email := worldstate.Email{
		ID:      s.State.NextEmailID(),
		From:    order.SupplierID,
		To:      "agent",
		Subject: "Delivery arrived: order #" + order.ID,
		Body:    "Your order has been delivered and added to storage.",
		DaySent: s.State.Clock.Day,
	}
	s.State.Inbox = append(s.State.Inbox, email)
}

func (s *Simulator) applyDailyFee(ev vclock.Event) {
	payload, ok := ev.Payload.(vclock.DailyFeePayload)
	if !ok {
		return
	}
	s.State.CashBalance = s.State.CashBalance.Sub(decimal.NewFromFloat(payload.Amount))
}

// PlaceOrder parses and validates an order email against the supplier
// registry and, on success, runs the pre-payment acceptance flow. The
// registry samples the lead time from the episode RNG, which is passed to
// it for this call (spec.md §5).
func (s *Simulator) PlaceOrder(toAddr, subject, body string) supplier.OrderResult {
	res := s.Suppliers.ParseOrderEmail(toAddr, subject, body,
		s.State.CashBalance, s.State.Clock.Day, s.State.NextOrderID, s.episodeRng)
	if res.Success && !s.AcceptOrder(res.Order) {
		res.Success = false
		res.ReplyBody = fmt.Sprintf("Your order total is $%s but your account balance is $%s. Please reduce the order.",
			res.Order.TotalCost.StringFixed(2), s.State.CashBalance.StringFixed(2))
	}
	return res
}

// AcceptOrder implements the pre-payment acceptance flow (spec.md §4.5,
// "Charging for orders"): deduct total, append to open orders, schedule a
// Delivery event at a uniformly sampled minute on the ETA day, using the
// episode RNG. Re-checks the balance race the spec calls out; callers must
// have already validated via supplier.ParseOrderEmail.
func (s *Simulator) AcceptOrder(order *worldstate.Order) bool {
	if order.TotalCost.GreaterThan(s.State.CashBalance) {
		return false
	}
	s.State.CashBalance = s.State.CashBalance.Sub(order.TotalCost)
	s.State.OpenOrders = append(s.State.OpenOrders, order)

	minute := s.episodeRng.Intn(vclock.MinutesPerDay - 1)
	s.Queue.Push(vclock.Event{
		Timestamp: vclock.At(order.ETADay, minute),
		Kind:      types.EventDelivery,
		Payload:   vclock.DeliveryPayload{OrderID: order.ID, SupplierID: order.SupplierID},
	})
	return true
}

// EndDayAndReport implements spec.md §4.5's end-of-day algorithm, invoked
// by the wait_for_next_day tool.
func (s *Simulator) EndDayAndReport() (MorningReport, bool, Reason) {
	day := s.State.Clock.Day

	drained := s.Queue.DrainUntil(vclock.At(day, vclock.MinutesPerDay-1))
	var deliveries []string
	for _, ev := range drained {
		switch ev.Kind {
		case types.EventDelivery:
			s.applyDelivery(ev)
			if payload, ok := ev.Payload.(vclock.DeliveryPayload); ok {
				deliveries = append(deliveries, payload.OrderID)
			}
		case types.EventDailyFee:
			s.applyDailyFee(ev)
		}
	}

	sales := s.Economy.ComputeDailySales(s.State, day)
	s.creditSales(sales)

	s.State.CashInMachine = s.State.CashInMachine.Add(sales.CashCollected)

	if s.State.CashBalance.GreaterThanOrEqual(s.State.DailyFee) {
		s.State.CashBalance = s.State.CashBalance.Sub(s.State.DailyFee)
		s.State.ConsecutiveUnpaidDays = 0
	} else {
		s.State.ConsecutiveUnpaidDays++
	}

	s.State.Clock.AdvanceToNextMorning()

	var unread []worldstate.Email
	for _, e := range s.State.Inbox {
		if !e.Read {
			unread = append(unread, e)
		}
	}

	report := MorningReport{
		Day:                    day,
		UnitsSold:              sales.UnitsSold,
		Deliveries:             deliveries,
		UnreadEmails:           unread,
		CashCollectedYesterday: sales.CashCollected,
	}

	s.checkTermination()
	return report, s.terminated, s.reason
}

// creditSales decrements slots holding sold items, in slot order, until the
// required quantity is satisfied, and updates the cumulative counter
// (spec.md §4.5 step 3).
func (s *Simulator) creditSales(sales economy.DailySales) {
	for itemID, sold := range sales.UnitsSold {
		remaining := sold
		for _, slot := range s.State.Slots {
			if remaining <= 0 {
				break
			}
			if slot.ItemID != itemID || slot.Quantity <= 0 {
				continue
			}
			take := remaining
			if take > slot.Quantity {
				take = slot.Quantity
			}
			slot.Quantity -= take
			remaining -= take
		}
		s.State.TotalUnitsSold += sold - remaining
	}
}

// checkTermination applies spec.md §4.5 step 8's priority order. Sticky:
// never un-terminates, and never re-evaluates once set.
func (s *Simulator) checkTermination() {
	if s.terminated {
		return
	}
	switch {
	case s.State.ConsecutiveUnpaidDays >= s.limits.BankruptcyDays:
		s.terminated = true
		s.reason = ReasonBankruptcy
	case s.State.Clock.Day >= s.limits.MaxDays:
		s.terminated = true
		s.reason = ReasonMaxDays
	case s.messageCount >= s.limits.MaxMessages:
		s.terminated = true
		s.reason = ReasonMaxMessages
	}
}
