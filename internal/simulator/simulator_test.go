package simulator

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"vendsim/internal/economy"
	"vendsim/internal/supplier"
	"vendsim/internal/vclock"
	"vendsim/internal/worldstate"
	"vendsim/pkg/types"
)

func newTestSimulator(t *testing.T, initialCash, dailyFee decimal.Decimal, limits Limits) *Simulator {
	t.Helper()
	state := worldstate.New(initialCash, dailyFee,
		[]types.SizeClass{types.Small, types.Small, types.Large, types.Large}, 3, 10)

	reg := supplier.NewRegistry()
	for _, s := range supplier.DefaultSuppliers() {
		reg.RegisterSupplier(s)
	}
	for id, info := range reg.Catalog() {
		state.Catalog[id] = info
	}

	econ := economy.New(rand.New(rand.NewSource(2)))
	episodeRng := rand.New(rand.NewSource(1))
	return New(state, reg, episodeRng, econ, limits)
}

func defaultLimits() Limits {
	return Limits{BankruptcyDays: 10, MaxMessages: 2000, MaxDays: 400}
}

// Scenario (a), spec.md §8: empty five-day run.
func TestEndDayAndReportEmptyMachineFiveDays(t *testing.T) {
	t.Parallel()
	sim := newTestSimulator(t, decimal.NewFromInt(500), decimal.NewFromInt(2), defaultLimits())

	for i := 0; i < 5; i++ {
		_, terminated, _ := sim.EndDayAndReport()
		if terminated {
			t.Fatalf("unexpected termination on day %d", i)
		}
	}
	want := decimal.NewFromInt(490) // 500 - 5*2
	if !sim.State.CashBalance.Equal(want) {
		t.Errorf("CashBalance = %s, want %s", sim.State.CashBalance, want)
	}
	if sim.State.Clock.Day != 5 {
		t.Errorf("Clock.Day = %d, want 5", sim.State.Clock.Day)
	}
}

// Scenario (b), spec.md §8: successful order via send_email-equivalent flow.
func TestAcceptOrderDeductsCashAndSchedulesDelivery(t *testing.T) {
	t.Parallel()
	sim := newTestSimulator(t, decimal.NewFromInt(500), decimal.NewFromInt(2), defaultLimits())

	res := sim.PlaceOrder("supplier_1", "Order", "cola 50")
	if !res.Success {
		t.Fatalf("expected order success, got: %s", res.ReplyBody)
	}

	want := decimal.NewFromInt(450)
	if !sim.State.CashBalance.Equal(want) {
		t.Errorf("CashBalance = %s, want %s", sim.State.CashBalance, want)
	}
	if len(sim.State.OpenOrders) != 1 {
		t.Fatalf("len(OpenOrders) = %d, want 1", len(sim.State.OpenOrders))
	}
	if sim.Queue.Len() != 1 {
		t.Fatalf("Queue.Len() = %d, want 1", sim.Queue.Len())
	}
}

// Scenario (d), spec.md §8: delivery credits storage.
func TestDeliveryEventCreditsStorageAndNotifies(t *testing.T) {
	t.Parallel()
	sim := newTestSimulator(t, decimal.NewFromInt(500), decimal.NewFromInt(2), defaultLimits())

	res := sim.PlaceOrder("supplier_1", "Order", "cola 50")

	for i := 0; i < res.Order.ETADay+1; i++ {
		sim.EndDayAndReport()
	}

	if sim.State.Storage["cola"] != 50 {
		t.Errorf("Storage[cola] = %d, want 50", sim.State.Storage["cola"])
	}
	if len(sim.State.OpenOrders) != 0 {
		t.Errorf("OpenOrders should be empty after delivery, got %d", len(sim.State.OpenOrders))
	}
	found := false
	for _, e := range sim.State.Inbox {
		if e.Subject == "Delivery arrived: order #"+res.Order.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected a delivery notification email in the inbox")
	}
}

// Scenario (f), spec.md §8: bankruptcy.
func TestBankruptcyTerminationAfterConsecutiveUnpaidDays(t *testing.T) {
	t.Parallel()
	sim := newTestSimulator(t, decimal.NewFromInt(15), decimal.NewFromInt(2), defaultLimits())

	var terminated bool
	var reason Reason
	for i := 0; i < 20; i++ {
		_, terminated, reason = sim.EndDayAndReport()
		if terminated {
			break
		}
	}
	if !terminated {
		t.Fatal("expected termination within 20 days")
	}
	if reason != ReasonBankruptcy {
		t.Errorf("reason = %s, want bankruptcy", reason)
	}
	if sim.State.ConsecutiveUnpaidDays != 10 {
		t.Errorf("ConsecutiveUnpaidDays = %d, want 10", sim.State.ConsecutiveUnpaidDays)
	}
}

func TestTerminationIsSticky(t *testing.T) {
	t.Parallel()
	sim := newTestSimulator(t, decimal.NewFromInt(0), decimal.NewFromInt(2), Limits{BankruptcyDays: 1, MaxMessages: 2000, MaxDays: 400})

	_, terminated, reason := sim.EndDayAndReport()
	if !terminated || reason != ReasonBankruptcy {
		t.Fatalf("expected immediate bankruptcy, got terminated=%v reason=%s", terminated, reason)
	}
	_, terminated2, reason2 := sim.EndDayAndReport()
	if !terminated2 || reason2 != ReasonBankruptcy {
		t.Errorf("expected sticky bankruptcy, got terminated=%v reason=%s", terminated2, reason2)
	}
}

func TestApplyToolStepAdvancesClockAndDrainsDueEvents(t *testing.T) {
	t.Parallel()
	sim := newTestSimulator(t, decimal.NewFromInt(500), decimal.NewFromInt(2), defaultLimits())

	// A hand-built order, scheduled to land within the current day, for a
	// deterministic drain check independent of lead-time sampling.
	order := &worldstate.Order{
		ID:         sim.State.NextOrderID(),
		SupplierID: "supplier_1",
		Items:      map[string]int{"cola": 50},
		TotalCost:  decimal.NewFromInt(50),
		ETADay:     sim.State.Clock.Day,
		Status:     types.OrderStatusOrdered,
	}
	sim.State.CashBalance = sim.State.CashBalance.Sub(order.TotalCost)
	sim.State.OpenOrders = append(sim.State.OpenOrders, order)
	sim.Queue.Push(vclock.Event{
		Timestamp: vclock.At(sim.State.Clock.Day, sim.State.Clock.Minute),
		Kind:      types.EventDelivery,
		Payload:   vclock.DeliveryPayload{OrderID: order.ID, SupplierID: order.SupplierID},
	})

	events := sim.ApplyToolStep(5)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if sim.State.Storage["cola"] != 50 {
		t.Errorf("Storage[cola] = %d, want 50", sim.State.Storage["cola"])
	}
	if sim.MessageCount() != 1 {
		t.Errorf("MessageCount() = %d, want 1", sim.MessageCount())
	}
}
