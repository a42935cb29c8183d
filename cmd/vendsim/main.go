// vendsim is a thin runnable demo of the vending-machine simulator. It
// loads configuration, constructs a simulator seeded with the default
// supplier fixtures, optionally starts a local introspection stream, and
// drives a short scripted tool-call sequence through the dispatcher to
// demonstrate the end-to-end wiring.
//
// Architecture:
//
//	internal/vclock      — clock & event queue
//	internal/worldstate   — finances, catalog, storage, slots, orders, mail
//	internal/supplier     — supplier registry, order email parsing
//	internal/economy      — demand model, daily sales
//	internal/subagent     — slot/price operations, instruction parsing
//	internal/simulator    — orchestration: tool steps, end-of-day
//	internal/dispatch     — main-agent tool surface
//	internal/snapshot     — in-memory compact state view
//	internal/introspect   — optional local WebSocket event stream
//	internal/config       — YAML + env configuration
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"

	"vendsim/internal/config"
	"vendsim/internal/dispatch"
	"vendsim/internal/economy"
	"vendsim/internal/introspect"
	"vendsim/internal/simulator"
	"vendsim/internal/snapshot"
	"vendsim/internal/supplier"
	"vendsim/internal/worldstate"
	"vendsim/pkg/types"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("VENDSIM_CONFIG"); p != "" {
		cfgPath = p
	}

	if err := ensureDefaultConfig(cfgPath); err != nil {
		slog.Error("failed to write default config", "error", err, "path", cfgPath)
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	initialCash, err := cfg.Economy.InitialCashDecimal()
	if err != nil {
		logger.Error("invalid initial cash", "error", err)
		os.Exit(1)
	}
	dailyFee, err := cfg.Economy.DailyFeeDecimal()
	if err != nil {
		logger.Error("invalid daily fee", "error", err)
		os.Exit(1)
	}

	state := worldstate.New(initialCash, dailyFee, cfg.Machine.SizeClasses(), cfg.Machine.SlotsPerRow, cfg.Machine.SlotCapacity)

	registry := supplier.NewRegistry()
	for _, s := range supplier.DefaultSuppliers() {
		registry.RegisterSupplier(s)
	}
	for id, info := range registry.Catalog() {
		state.Catalog[id] = info
	}

	episodeRng := rand.New(rand.NewSource(cfg.Seed))
	econRng := rand.New(rand.NewSource(cfg.Seed + 1))
	econ := economy.New(econRng)

	limits := simulator.Limits{
		BankruptcyDays: cfg.Limits.BankruptcyDays,
		MaxMessages:    cfg.Limits.MaxMessages,
		MaxDays:        cfg.Limits.MaxDays,
	}
	sim := simulator.New(state, registry, episodeRng, econ, limits)
	disp := dispatch.New(sim, cfg)

	var hub *introspect.Hub
	if cfg.Introspect.Enabled {
		hub = introspect.NewHub(logger)
		go hub.Run()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/ws", hub)
			logger.Info("introspection stream listening", "addr", cfg.Introspect.Addr)
			if err := http.ListenAndServe(cfg.Introspect.Addr, mux); err != nil {
				logger.Error("introspection server stopped", "error", err)
			}
		}()
	}

	runDemo(sim, disp, hub, logger)
}

// runDemo drives a short deterministic tool-call sequence, logging each
// step and its net worth, mirroring the morning-report cadence the core
// produces on its own (spec.md §6).
func runDemo(sim *simulator.Simulator, disp *dispatch.Dispatcher, hub *introspect.Hub, logger *slog.Logger) {
	steps := []struct {
		tool string
		args map[string]string
	}{
		{types.ToolGetMoneyBalance, nil},
		{types.ToolSendEmail, map[string]string{"to_addr": "supplier_1", "subject": "Order", "body": "cola 50"}},
		{types.ToolWaitForNextDay, nil},
		{types.ToolWaitForNextDay, nil},
		{types.ToolRunSubAgent, map[string]string{"instruction": "restock cola 10 in slot 0"}},
		{types.ToolWaitForNextDay, nil},
		{types.ToolGetMoneyBalance, nil},
	}

	for i, step := range steps {
		result, terminated := disp.Dispatch(step.tool, step.args)
		netWorth := sim.State.NetWorth()

		logger.Info("tool step",
			"step", i+1,
			"tool", step.tool,
			"day", sim.State.Clock.Day,
			"net_worth", netWorth.StringFixed(2),
			"terminated", terminated,
		)

		if hub != nil {
			hub.Publish(introspect.StepEvent{
				Step:       i + 1,
				ToolName:   step.tool,
				Result:     result,
				NetWorth:   netWorth.String(),
				Day:        sim.State.Clock.Day,
				Terminated: terminated,
			})
		}

		fmt.Printf("--- step %d: %s ---\n%s\n\n", i+1, step.tool, result)

		if terminated {
			logger.Info("simulation terminated, stopping demo")
			break
		}
	}

	snap := snapshot.Build(sim.State)
	logger.Info("final snapshot", "day", snap.Day, "net_worth", snap.NetWorth.StringFixed(2), "cash_balance", snap.CashBalance.StringFixed(2))
}

func ensureDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return writeDefaultConfig(path)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
