// Package aitrader implements the AI-Trader lifecycle state machine and
// its per-tick pipeline (fetch candles -> process -> evaluate strategy ->
// risk gate -> execute), plus a Supervisor owning every running trader
// and the exchange connectors they share.
package aitrader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tradercore/internal/exchange"
	"tradercore/internal/interfaces/repository"
	"tradercore/internal/marketdata"
	"tradercore/internal/models"
	"tradercore/internal/observability"
	"tradercore/internal/pattern"
	"tradercore/internal/position"
	"tradercore/internal/strategy"
	"tradercore/internal/telemetry"
)

var tracer = otel.Tracer("tradercore/aitrader")

// patternExtractionThreshold is the minimum realized P&L a closed trade
// must clear before it is fingerprinted as a reusable pattern.
const patternExtractionThreshold = 0.0

// patternMatchMinConfidence is the confidence floor a stored pattern must
// clear before it is allowed to favor a new entry.
const patternMatchMinConfidence = 0.5

// Metrics is reset to its zero value (except StartTime) on every start.
type Metrics struct {
	TotalTrades          int
	WinningTrades        int
	LosingTrades         int
	TotalProfit          float64
	TotalLoss            float64
	NetProfit            float64
	WinRate              float64
	SignalsExecuted      int
	CloseSignalsExecuted int
	StartTime            time.Time
	Uptime               time.Duration
}

// shutdownTimeout bounds how long stop() waits for an in-flight tick to
// finish before giving up and closing subscriptions anyway.
const shutdownTimeout = 30 * time.Second

// AITrader owns one exchange connector (shared with siblings on the same
// exchange via Supervisor), one PositionManager (which itself gates every
// open through a RiskManager), a Strategy, and publishes every tick's
// outcome to a shared TelemetryHub.
type AITrader struct {
	log *observability.Logger

	connector exchange.Connector
	processor *marketdata.Processor
	positions *position.Manager
	hub       *telemetry.Hub
	strat     strategy.Strategy
	patterns  repository.PatternRepository

	mu      sync.Mutex
	cfg     models.AITraderConfig
	state   State
	metrics Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs an AITrader in state IDLE. hub may be nil in tests that
// don't exercise telemetry publication. patterns may be nil, in which case
// the trader neither consults nor contributes to the pattern store.
func New(cfg models.AITraderConfig, strat strategy.Strategy, connector exchange.Connector, processor *marketdata.Processor, positions *position.Manager, hub *telemetry.Hub, patterns repository.PatternRepository) *AITrader {
	return &AITrader{
		log:       observability.New("aitrader-" + cfg.ID),
		connector: connector,
		processor: processor,
		positions: positions,
		hub:       hub,
		strat:     strat,
		patterns:  patterns,
		cfg:       cfg,
		state:     StateIdle,
	}
}

// State reports the current lifecycle state.
func (t *AITrader) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Config returns a copy of the trader's current configuration.
func (t *AITrader) Config() models.AITraderConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// Metrics returns a snapshot of the trader's running metrics, with Uptime
// computed against the current time while RUNNING.
func (t *AITrader) Metrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.metrics
	if t.state == StateRunning && !m.StartTime.IsZero() {
		m.Uptime = time.Since(m.StartTime)
	}
	return m
}

// Start transitions IDLE/STOPPED -> STARTING -> RUNNING, resets metrics,
// connects the exchange if not already connected, and launches the tick
// loop. Calling Start while already RUNNING or STARTING is a no-op:
// start fails idempotently rather than erroring or stacking a second
// loop.
func (t *AITrader) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.state == StateRunning || t.state == StateStarting {
		t.mu.Unlock()
		return nil
	}
	if !canTransition(t.state, StateStarting) {
		err := InvalidTransitionError{From: t.state, To: StateStarting}
		t.mu.Unlock()
		return err
	}
	t.state = StateStarting
	t.mu.Unlock()

	if !t.connector.IsConnected() {
		if err := t.connector.Connect(ctx); err != nil {
			t.mu.Lock()
			t.state = StateError
			t.mu.Unlock()
			return fmt.Errorf("aitrader: connect exchange: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.metrics = Metrics{StartTime: time.Now()}
	t.state = StateRunning
	t.cancel = cancel
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.run(runCtx)
	t.log.Info(ctx, "aitrader started", map[string]any{"id": t.cfg.ID, "symbol": t.cfg.Symbol})
	return nil
}

// Pause transitions RUNNING -> PAUSED. The tick loop keeps its goroutine
// alive but skips ticks while paused.
func (t *AITrader) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !canTransition(t.state, StatePaused) {
		return InvalidTransitionError{From: t.state, To: StatePaused}
	}
	t.state = StatePaused
	return nil
}

// Resume transitions PAUSED -> RUNNING.
func (t *AITrader) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !canTransition(t.state, StateRunning) {
		return InvalidTransitionError{From: t.state, To: StateRunning}
	}
	t.state = StateRunning
	return nil
}

// Stop transitions RUNNING/PAUSED -> STOPPING -> STOPPED, cancels the
// tick loop at its next suspension point, and waits up to
// shutdownTimeout for the in-flight tick to finish.
func (t *AITrader) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !canTransition(t.state, StateStopping) {
		err := InvalidTransitionError{From: t.state, To: StateStopping}
		t.mu.Unlock()
		return err
	}
	t.state = StateStopping
	cancel := t.cancel
	done := t.done
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(shutdownTimeout):
			t.log.Warn(ctx, "aitrader stop timed out waiting for in-flight tick", map[string]any{"id": t.cfg.ID})
		}
	}

	t.mu.Lock()
	t.state = StateStopped
	t.mu.Unlock()
	t.log.Info(ctx, "aitrader stopped", map[string]any{"id": t.cfg.ID})
	return nil
}

// UpdateConfig replaces the trader's configuration while STOPPED or IDLE.
// Changing ID is always rejected.
func (t *AITrader) UpdateConfig(cfg models.AITraderConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cfg.ID != t.cfg.ID {
		return fmt.Errorf("aitrader: update_config may not change id")
	}
	if t.state != StateStopped && t.state != StateIdle {
		return fmt.Errorf("aitrader: update_config only permitted while STOPPED or IDLE, current state %s", t.state)
	}
	t.cfg = cfg
	return nil
}

func (t *AITrader) run(ctx context.Context) {
	defer close(t.done)

	period := t.cfg.CandlestickInterval.Duration()
	if period <= 0 {
		period = time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.State() != StateRunning {
				continue // PAUSED: skip this tick, keep the loop alive
			}
			if err := t.tick(ctx); err != nil {
				t.log.Warnf(ctx, "tick failed: %v", err)
			}
		}
	}
}

// tick runs one fetch->process->signal->gate->execute pass under a single
// OTel span, grounded on observability.SetupTracing's tracer provider
// setup generalized to a per-tick span instead of a per-request one.
func (t *AITrader) tick(ctx context.Context) error {
	cfg := t.Config()
	spanCtx, span := tracer.Start(ctx, "aitrader.tick", trace.WithAttributes(
		attribute.String("aitrader.id", cfg.ID),
		attribute.String("aitrader.symbol", cfg.Symbol),
	))
	defer span.End()

	req := t.strat.RequiredIndicators()
	limit := req.RequiredCandles()
	candles, err := t.connector.GetCandlesticks(spanCtx, cfg.Symbol, cfg.CandlestickInterval, limit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("aitrader: fetch candles: %w", err)
	}

	data, err := t.processor.Process(spanCtx, candles, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("aitrader: process candles: %w", err)
	}

	signal := t.strat.Generate(data)
	span.SetAttributes(attribute.String("aitrader.signal_action", string(signal.Action)))

	patternID := t.matchPattern(spanCtx, cfg, signal, data)
	if patternID != "" {
		span.SetAttributes(attribute.String("aitrader.pattern_id", patternID))
	}

	if err := t.execute(spanCtx, cfg, signal, data, patternID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if t.hub != nil {
		t.hub.Publish(telemetry.ChannelTraderStatus, map[string]any{
			"trader_id": cfg.ID,
			"symbol":    cfg.Symbol,
			"state":     string(t.State()),
			"metrics":   t.Metrics(),
		})
		t.hub.Publish(telemetry.ChannelMarketData, map[string]any{
			"trader_id": cfg.ID,
			"symbol":    cfg.Symbol,
			"price":     data.LatestPrice,
		})
	}
	return nil
}

func (t *AITrader) execute(ctx context.Context, cfg models.AITraderConfig, signal models.TradingSignal, data marketdata.ProcessedData, patternID string) error {
	existing, hasOpen := t.positions.FindOpenPosition(cfg.ID, cfg.Symbol)

	switch signal.Action {
	case models.ActionBuy, models.ActionSell:
		if hasOpen {
			return nil // already exposed to this symbol, no-hedging is the RiskManager's call anyway
		}
		quantity, leverage, budget := sizePosition(cfg, data.LatestPrice)
		params := positionParams(signal, cfg, quantity, leverage, budget)
		params.Indicators = indicatorSnapshotOf(data)
		params.PatternID = patternID
		_, err := t.positions.OpenPosition(ctx, params)
		if err != nil {
			return fmt.Errorf("aitrader: open position: %w", err)
		}
		t.mu.Lock()
		t.metrics.SignalsExecuted++
		t.mu.Unlock()

	case models.ActionClose:
		if !hasOpen {
			return nil
		}
		record, err := t.positions.ClosePosition(ctx, existing.PositionID, models.ExitReasonSignal)
		if err != nil {
			return fmt.Errorf("aitrader: close position: %w", err)
		}
		t.recordClose(ctx, cfg, record)
		t.mu.Lock()
		t.metrics.CloseSignalsExecuted++
		t.mu.Unlock()
	}
	return nil
}

// matchPattern consults the pattern store for the stored fingerprint most
// relevant to the conditions the strategy just evaluated, and returns its
// id so the entry that follows can be linked back to it. Returns "" if no
// pattern store is configured or nothing active clears
// patternMatchMinConfidence.
func (t *AITrader) matchPattern(ctx context.Context, cfg models.AITraderConfig, signal models.TradingSignal, data marketdata.ProcessedData) string {
	if t.patterns == nil || (signal.Action != models.ActionBuy && signal.Action != models.ActionSell) {
		return ""
	}
	snap := indicatorSnapshotOf(data)
	rsi, macd := snap.RSI, snap.MACD
	matches, err := t.patterns.FindMatching(ctx, cfg.Symbol, cfg.CandlestickInterval, signal.Action, &rsi, &macd, patternMatchMinConfidence)
	if err != nil || len(matches) == 0 {
		return ""
	}
	cond := models.MarketConditions{
		Exchange:     cfg.Exchange,
		Symbol:       cfg.Symbol,
		CurrentPrice: data.LatestPrice,
		Indicators: map[string]float64{
			"RSI":  rsi,
			"MACD": macd,
		},
		Timestamp: time.Now(),
	}
	best := matches[0]
	bestScore := pattern.Relevance(best, cond, time.Now())
	for _, p := range matches[1:] {
		if score := pattern.Relevance(p, cond, time.Now()); score > bestScore {
			best, bestScore = p, score
		}
	}
	return best.ID
}

func (t *AITrader) recordClose(ctx context.Context, cfg models.AITraderConfig, record *models.TradeRecord) {
	t.mu.Lock()
	pnl := floatOf(record.ProfitLoss)
	t.metrics.TotalTrades++
	t.metrics.NetProfit += pnl
	successful := pnl >= 0
	if successful {
		t.metrics.WinningTrades++
		t.metrics.TotalProfit += pnl
	} else {
		t.metrics.LosingTrades++
		t.metrics.TotalLoss += -pnl
	}
	if t.metrics.TotalTrades > 0 {
		t.metrics.WinRate = float64(t.metrics.WinningTrades) / float64(t.metrics.TotalTrades)
	}
	t.mu.Unlock()

	if t.patterns == nil {
		return
	}
	if record.PatternID != "" {
		if err := t.patterns.UpdateStatistics(ctx, record.PatternID, pnl, successful); err != nil {
			t.log.Warnf(ctx, "pattern update_statistics failed: %v", err)
		}
		return
	}
	if p, ok := pattern.Extract(*record, cfg.CandlestickInterval, patternExtractionThreshold); ok {
		if _, err := t.patterns.Create(ctx, p); err != nil {
			t.log.Warnf(ctx, "pattern create failed: %v", err)
		}
	}
}

// indicatorSnapshotOf reads the RSI/MACD/SMA readings a strategy requested
// out of ProcessedData, for persistence alongside the trade and later
// pattern fingerprinting. Indicators the strategy didn't request stay 0.
func indicatorSnapshotOf(data marketdata.ProcessedData) models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		RSI:      data.Indicators[marketdata.IndicatorRSI],
		MACD:     data.Indicators[marketdata.IndicatorMACD],
		SMAShort: data.Indicators[marketdata.IndicatorSMAShort],
		SMALong:  data.Indicators[marketdata.IndicatorSMALong],
	}
}

func floatOf(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// sizePosition spends MaxStakeAmount worth of the quote asset at the
// latest price, with leverage set from MaxRiskLevel (1..10) — those two
// AITraderConfig fields are exactly the budget and leverage
// OpenPositionParams needs.
func sizePosition(cfg models.AITraderConfig, price float64) (quantity, leverage, budget decimal.Decimal) {
	budget = decimal.NewFromFloat(cfg.MaxStakeAmount)
	riskLevel := cfg.MaxRiskLevel
	if riskLevel < 1 {
		riskLevel = 1
	}
	if riskLevel > 10 {
		riskLevel = 10
	}
	leverage = decimal.NewFromInt(int64(riskLevel))
	if price <= 0 {
		return decimal.Zero, leverage, budget
	}
	quantity = budget.Div(decimal.NewFromFloat(price))
	return quantity, leverage, budget
}

func positionParams(signal models.TradingSignal, cfg models.AITraderConfig, quantity, leverage, budget decimal.Decimal) position.OpenPositionParams {
	return position.OpenPositionParams{
		Signal:   signal,
		TraderID: cfg.ID,
		Exchange: cfg.Exchange,
		Symbol:   cfg.Symbol,
		Quantity: quantity,
		Leverage: leverage,
		Budget:   budget,
	}
}
