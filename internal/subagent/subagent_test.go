package subagent

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"vendsim/internal/worldstate"
	"vendsim/pkg/types"
)

func newTestExecutor() (*Executor, *worldstate.State) {
	state := worldstate.New(decimal.NewFromInt(500), decimal.NewFromInt(2),
		[]types.SizeClass{types.Small, types.Large}, 3, 10)
	state.Catalog["cola"] = worldstate.ItemInfo{ItemID: "cola", SizeClass: types.Small, WholesalePrice: decimal.NewFromFloat(1.0)}
	state.Catalog["sandwich"] = worldstate.ItemInfo{ItemID: "sandwich", SizeClass: types.Large, WholesalePrice: decimal.NewFromFloat(2.0)}
	state.Storage["cola"] = 50
	state.Storage["sandwich"] = 5
	return New(state), state
}

// Scenario (e), spec.md §8: restock + sell.
func TestStockFromStorageMovesMinOfQuantityAndFree(t *testing.T) {
	t.Parallel()
	e, state := newTestExecutor()

	msg := e.StockFromStorage("cola", 10, 0)
	if !strings.Contains(msg, "Stocked 10 cola into slot 0") {
		t.Errorf("message = %q", msg)
	}
	if state.Storage["cola"] != 40 {
		t.Errorf("storage[cola] = %d, want 40", state.Storage["cola"])
	}
	if state.Slots[0].Quantity != 10 {
		t.Errorf("slot 0 quantity = %d, want 10", state.Slots[0].Quantity)
	}
	want := decimal.NewFromFloat(1.5)
	if !state.Prices["cola"].Equal(want) {
		t.Errorf("prices[cola] = %s, want %s", state.Prices["cola"], want)
	}
}

func TestStockFromStorageRejectsUnknownSlot(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.StockFromStorage("cola", 5, 999)
	if !strings.Contains(msg, "not found") {
		t.Errorf("message = %q, want 'not found'", msg)
	}
}

func TestStockFromStorageRejectsSizeClassMismatch(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	// slot 0 is row 0, small; sandwich is large.
	msg := e.StockFromStorage("sandwich", 1, 0)
	if !strings.Contains(msg, "is small") {
		t.Errorf("message = %q", msg)
	}
}

func TestStockFromStorageRejectsOccupiedByOtherItem(t *testing.T) {
	t.Parallel()
	e, state := newTestExecutor()
	state.Slots[0].ItemID = "water"
	state.Slots[0].Quantity = 1
	msg := e.StockFromStorage("cola", 5, 0)
	if !strings.Contains(msg, "already holds water") {
		t.Errorf("message = %q", msg)
	}
}

func TestStockFromStorageRejectsInsufficientStorage(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.StockFromStorage("cola", 1000, 0)
	if !strings.Contains(msg, "Insufficient storage") {
		t.Errorf("message = %q", msg)
	}
}

func TestStockFromStorageClampsToFreeCapacity(t *testing.T) {
	t.Parallel()
	e, state := newTestExecutor()
	state.Slots[0].Quantity = 8 // capacity 10, free 2
	msg := e.StockFromStorage("cola", 10, 0)
	if !strings.Contains(msg, "Stocked 2 cola") {
		t.Errorf("message = %q, want 'Stocked 2 cola'", msg)
	}
	if state.Storage["cola"] != 48 {
		t.Errorf("storage[cola] = %d, want 48", state.Storage["cola"])
	}
}

func TestSetPriceRejectsNegative(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.SetPrice("cola", -1.0)
	if !strings.Contains(msg, "cannot be negative") {
		t.Errorf("message = %q", msg)
	}
}

func TestSetPriceRounds(t *testing.T) {
	t.Parallel()
	e, state := newTestExecutor()
	e.SetPrice("cola", 1.456)
	want := decimal.NewFromFloat(1.46)
	if !state.Prices["cola"].Equal(want) {
		t.Errorf("prices[cola] = %s, want %s", state.Prices["cola"], want)
	}
}

func TestCollectCashZeroesMachineCash(t *testing.T) {
	t.Parallel()
	e, state := newTestExecutor()
	state.CashInMachine = decimal.NewFromFloat(12.50)
	e.CollectCash()
	if !state.CashInMachine.IsZero() {
		t.Errorf("cash_in_machine = %s, want 0", state.CashInMachine)
	}
	want := decimal.NewFromFloat(512.50)
	if !state.CashBalance.Equal(want) {
		t.Errorf("cash_balance = %s, want %s", state.CashBalance, want)
	}
}

func TestRunParsesCollectCash(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.Run("please collect the cash now")
	if !strings.Contains(msg, "Collected") {
		t.Errorf("message = %q", msg)
	}
}

func TestRunParsesSetPrice(t *testing.T) {
	t.Parallel()
	e, state := newTestExecutor()
	e.Run("set price of cola to 2.00")
	if !state.Prices["cola"].Equal(decimal.NewFromFloat(2.00)) {
		t.Errorf("prices[cola] = %s, want 2.00", state.Prices["cola"])
	}
}

func TestRunParsesRestock(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.Run("restock cola 10 in slot 0")
	if !strings.Contains(msg, "Stocked 10 cola into slot 0") {
		t.Errorf("message = %q", msg)
	}
}

func TestRunParsesInventoryRequest(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.Run("what is the inventory?")
	if !strings.Contains(msg, "Slot | Item | Qty | Price") {
		t.Errorf("message = %q", msg)
	}
}

func TestRunFallsBackToUsage(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.Run("do something unrelated")
	if !strings.Contains(msg, "Try:") {
		t.Errorf("message = %q, want usage help", msg)
	}
}

func TestChatMentionsSlotReturnsInventory(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.Chat("what's in slot 0?")
	if !strings.Contains(msg, "Slot | Item | Qty | Price") {
		t.Errorf("message = %q", msg)
	}
}

func TestChatMentionsLastReturnsRecentActions(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	e.CollectCash()
	msg := e.Chat("what did you do last?")
	if !strings.Contains(msg, "Recent actions") {
		t.Errorf("message = %q", msg)
	}
}

func TestChatDefaultCombinesActionsAndInventory(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	msg := e.Chat("how are things going")
	if !strings.Contains(msg, "Slot | Item | Qty | Price") {
		t.Errorf("expected inventory in default chat response, got %q", msg)
	}
}

func TestActionLogCapsAtMax(t *testing.T) {
	t.Parallel()
	e, _ := newTestExecutor()
	for i := 0; i < maxLoggedActions+5; i++ {
		e.CollectCash()
	}
	if len(e.log) != maxLoggedActions {
		t.Errorf("len(log) = %d, want %d", len(e.log), maxLoggedActions)
	}
}
