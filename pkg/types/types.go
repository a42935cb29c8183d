// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the simulator — size classes,
// order status, event kinds, and the main-agent tool names. It has no
// dependencies on internal packages, so it can be imported by any layer.
package types

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// SizeClass is the coarse item/slot size tag. A slot only accepts items of
// its own size class.
type SizeClass string

const (
	Small SizeClass = "small"
	Large SizeClass = "large"
)

// OrderStatus tracks a supplier order through the delivery pipeline.
type OrderStatus string

const (
	OrderStatusOrdered   OrderStatus = "ordered"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
)

// EventKind enumerates the scheduled event kinds the clock queue carries.
// DayStart/DayEnd are reserved for implementers that prefer explicit
// boundary events; the reference simulator handles day boundaries inline
// in the end-of-day engine instead.
type EventKind string

const (
	EventDelivery EventKind = "delivery"
	EventDailyFee EventKind = "daily_fee"
	EventDayStart EventKind = "day_start"
	EventDayEnd   EventKind = "day_end"
)

// ————————————————————————————————————————————————————————————————————————
// Main-agent tool surface (spec.md §6)
// ————————————————————————————————————————————————————————————————————————

// Tool name constants for the main-agent surface. Dispatch validates every
// incoming tool call against MainAgentTools.
const (
	ToolGetMoneyBalance     = "get_money_balance"
	ToolGetStorageInventory = "get_storage_inventory"
	ToolReadInbox           = "read_inbox"
	ToolSendEmail           = "send_email"
	ToolSearchProducts      = "search_products"
	ToolWaitForNextDay      = "wait_for_next_day"
	ToolSubAgentSpecs       = "sub_agent_specs"
	ToolRunSubAgent         = "run_sub_agent"
	ToolChatWithSubAgent    = "chat_with_sub_agent"
)

// MainAgentTools is the sealed list of tool names a main agent may call.
var MainAgentTools = []string{
	ToolGetMoneyBalance,
	ToolGetStorageInventory,
	ToolReadInbox,
	ToolSendEmail,
	ToolSearchProducts,
	ToolWaitForNextDay,
	ToolSubAgentSpecs,
	ToolRunSubAgent,
	ToolChatWithSubAgent,
}

// Sub-agent tool names. These are never called directly by a main agent —
// only the sub-agent executor invokes them, via run_sub_agent parsing.
const (
	SubToolMachineInventory = "machine_inventory"
	SubToolStockFromStorage = "stock_from_storage"
	SubToolSetPrice         = "set_price"
	SubToolCollectCash      = "collect_cash"
)

// IsMainAgentTool reports whether name is a recognized main-agent tool.
func IsMainAgentTool(name string) bool {
	for _, t := range MainAgentTools {
		if t == name {
			return true
		}
	}
	return false
}

// TimeCostMinutes is the default per-tool time cost, in minutes of
// simulated clock advance. wait_for_next_day is handled separately by the
// end-of-day engine and never consults this table.
var TimeCostMinutes = map[string]int{
	ToolGetMoneyBalance:     5,
	ToolGetStorageInventory: 5,
	ToolSubAgentSpecs:       5,
	SubToolMachineInventory: 5,
	SubToolSetPrice:         5,
	ToolReadInbox:           25,
	ToolSendEmail:           25,
	ToolSearchProducts:      25,
	ToolChatWithSubAgent:    25,
	SubToolStockFromStorage: 25,
	SubToolCollectCash:      25,
	ToolRunSubAgent:         75,
}

// FallbackTimeMinutes is charged for any tool absent from TimeCostMinutes.
const FallbackTimeMinutes = 30
