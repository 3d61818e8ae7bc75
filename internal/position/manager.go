// Package position implements the position manager: it owns every open
// position's lifecycle — opening, pricing, trailing stops, closing, and
// startup recovery — behind a single mutex, the same way
// internal/trading/backtester.go guards its live position bookkeeping
// with one lock per owning service, generalized here to real order
// submission through an exchange.Connector.
package position

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradercore/internal/exchange"
	"tradercore/internal/interfaces/repository"
	"tradercore/internal/models"
	"tradercore/internal/observability"
	"tradercore/internal/risk"
)

// RecoveryReport summarizes one recovery pass so a caller has something
// to log.
type RecoveryReport struct {
	Recovered int
	Orphaned  int
	Errors    []error
}

// OpenPositionParams bundles open_position's inputs, mirroring the
// repository package's TradeParams convention for wide constructor calls.
type OpenPositionParams struct {
	Signal     models.TradingSignal
	TraderID   string
	Exchange   string
	Symbol     string
	Quantity   decimal.Decimal
	Leverage   decimal.Decimal
	Budget     decimal.Decimal
	StopLoss   *decimal.Decimal
	TakeProfit *decimal.Decimal
	Indicators models.IndicatorSnapshot
	PatternID  string // id of the pattern that favored this entry, if any
}

// Manager owns active positions and their persisted history. Every
// mutation of active runs under mu; no method re-enters close_position for
// a position already closing.
type Manager struct {
	log            *observability.Logger
	connector      exchange.Connector
	repo           repository.TradeRepository
	riskMgr        *risk.Manager
	updateInterval time.Duration

	mu      sync.Mutex
	active  map[string]*models.ManagedPosition
	history []models.TradeRecord
	closing map[string]bool
	seq     uint64
}

// NewManager constructs a Manager. updateInterval <= 0 falls back to the
// spec default of 5s.
func NewManager(connector exchange.Connector, repo repository.TradeRepository, riskMgr *risk.Manager, updateInterval time.Duration) *Manager {
	if updateInterval <= 0 {
		updateInterval = 5 * time.Second
	}
	return &Manager{
		log:            observability.New("position-manager"),
		connector:      connector,
		repo:           repo,
		riskMgr:        riskMgr,
		updateInterval: updateInterval,
		active:         make(map[string]*models.ManagedPosition),
		closing:        make(map[string]bool),
	}
}

// SetRiskManager wires a RiskManager constructed after this Manager,
// breaking the construction cycle risk.New's PositionsView argument
// would otherwise require (risk.Manager needs a PositionsView that is
// this Manager; this Manager's own gate needs that risk.Manager back).
// Safe to call once during startup wiring, before any OpenPosition call.
func (m *Manager) SetRiskManager(riskMgr *risk.Manager) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riskMgr = riskMgr
}

func (m *Manager) nextPositionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("pos-%d-%d", time.Now().UnixNano(), m.seq)
}

func floatOf(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// OpenPosition runs the RiskManager gate, submits a MARKET order in the
// signal's direction, and on a fill builds and persists a ManagedPosition.
func (m *Manager) OpenPosition(ctx context.Context, p OpenPositionParams) (*models.ManagedPosition, error) {
	ticker, err := m.connector.GetTicker(ctx, p.Symbol)
	if err != nil {
		return nil, fmt.Errorf("position: fetch ticker: %w", err)
	}

	notional := floatOf(p.Quantity.Mul(ticker.Price).Mul(p.Leverage))
	if m.riskMgr != nil {
		decision := m.riskMgr.CanOpenPosition(p.TraderID, p.Symbol, notional, int(p.Leverage.IntPart()), floatOf(p.Budget))
		if !decision.Allowed {
			return nil, fmt.Errorf("position: risk denied: %s", decision.Reason)
		}
	}

	side := models.SideLong
	if p.Signal.Action == models.ActionSell {
		side = models.SideShort
	}

	order := models.Order{
		Symbol:    p.Symbol,
		Side:      side,
		Type:      models.OrderMarket,
		Quantity:  p.Quantity,
		CreatedAt: time.Now(),
	}
	placed, err := m.connector.PlaceOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("position: place order: %w", err)
	}
	if !placed.Filled() {
		return nil, OrderNotFilledError{Status: placed.Status}
	}

	entry := placed.AveragePrice
	if entry.IsZero() {
		entry = ticker.Price
	}
	quantity := placed.FilledQuantity
	if quantity.IsZero() {
		quantity = p.Quantity
	}

	mp := &models.ManagedPosition{
		PositionID: m.nextPositionID(),
		TraderID:   p.TraderID,
		Exchange:   p.Exchange,
		Position: models.Position{
			Symbol:       p.Symbol,
			Side:         side,
			Quantity:     quantity,
			EntryPrice:   entry,
			CurrentPrice: entry,
			Leverage:     p.Leverage,
			OpenedAt:     time.Now(),
		},
		Indicators:  p.Indicators,
		PatternID:   p.PatternID,
		LastUpdated: time.Now(),
	}
	if p.StopLoss != nil {
		mp.StopLossPrice = *p.StopLoss
		mp.HasStopLoss = true
	}
	if p.TakeProfit != nil {
		mp.TakeProfitPrice = *p.TakeProfit
		mp.HasTakeProfit = true
	}

	tradeID, err := m.repo.Create(ctx, repository.TradeParams{
		TraderID:        p.TraderID,
		Exchange:        p.Exchange,
		Symbol:          p.Symbol,
		Side:            side,
		Leverage:        floatOf(p.Leverage),
		EntryPrice:      floatOf(entry),
		EntryAmount:     floatOf(quantity.Mul(entry)),
		EntryTimestamp:  mp.Position.OpenedAt,
		EntryOrderID:    placed.ID,
		StopLossPrice:   floatOf(mp.StopLossPrice),
		TakeProfitPrice: floatOf(mp.TakeProfitPrice),
		Indicators:      p.Indicators,
		PatternID:       p.PatternID,
	})
	if err != nil {
		return nil, fmt.Errorf("position: persist trade: %w", err)
	}
	mp.PersistenceHandle = tradeID

	m.mu.Lock()
	m.active[mp.PositionID] = mp
	m.mu.Unlock()

	m.log.Info(ctx, "position opened", map[string]any{
		"position_id": mp.PositionID, "trader_id": p.TraderID, "symbol": p.Symbol, "side": side, "entry": floatOf(entry),
	})
	return mp, nil
}

// UpdatePosition refreshes current price (fetching it if price is nil),
// then applies trailing-stop adjustment.
func (m *Manager) UpdatePosition(ctx context.Context, positionID string, price *decimal.Decimal) error {
	m.mu.Lock()
	mp, ok := m.active[positionID]
	m.mu.Unlock()
	if !ok {
		return NotFoundError{PositionID: positionID}
	}

	current := price
	if current == nil {
		ticker, err := m.connector.GetTicker(ctx, mp.Position.Symbol)
		if err != nil {
			return fmt.Errorf("position: fetch ticker: %w", err)
		}
		current = &ticker.Price
	}

	m.mu.Lock()
	mp.Position.CurrentPrice = *current
	mp.LastUpdated = time.Now()
	m.applyTrailing(mp)
	m.mu.Unlock()
	return nil
}

// applyTrailing ratchets the stop toward the current price without ever
// worsening it. Callers must hold mu.
func (m *Manager) applyTrailing(mp *models.ManagedPosition) {
	if !mp.TrailingActivated {
		return
	}
	current := mp.Position.CurrentPrice
	if mp.Position.Side == models.SideLong {
		if current.GreaterThan(mp.TrailingReferencePrice) {
			mp.TrailingReferencePrice = current
			newStop := current.Sub(mp.TrailingDistance)
			if newStop.GreaterThan(mp.StopLossPrice) {
				mp.StopLossPrice = newStop
			}
		}
		return
	}
	if current.LessThan(mp.TrailingReferencePrice) {
		mp.TrailingReferencePrice = current
		newStop := current.Add(mp.TrailingDistance)
		if newStop.LessThan(mp.StopLossPrice) {
			mp.StopLossPrice = newStop
		}
	}
}

// UpdateStopLoss persists and mutates a position's stop. When trailing is
// true, newStop seeds trailing-stop tracking: the initial distance is
// |entry-newStop|, which must be positive or the call is refused.
func (m *Manager) UpdateStopLoss(ctx context.Context, positionID string, newStop decimal.Decimal, trailing bool) error {
	m.mu.Lock()
	mp, ok := m.active[positionID]
	m.mu.Unlock()
	if !ok {
		return NotFoundError{PositionID: positionID}
	}

	m.mu.Lock()
	if trailing {
		distance := mp.Position.EntryPrice.Sub(newStop)
		if mp.Position.Side == models.SideShort {
			distance = newStop.Sub(mp.Position.EntryPrice)
		}
		if distance.Sign() <= 0 {
			m.mu.Unlock()
			return TrailingRefusedError{Reason: "initial distance must be positive"}
		}
		mp.TrailingActivated = true
		mp.TrailingDistance = distance
		mp.TrailingReferencePrice = mp.Position.EntryPrice
	}
	mp.StopLossPrice = newStop
	mp.HasStopLoss = true
	mp.LastUpdated = time.Now()
	m.mu.Unlock()

	if err := m.repo.UpdateStopLoss(ctx, mp.PersistenceHandle, floatOf(newStop)); err != nil {
		return fmt.Errorf("position: persist stop loss: %w", err)
	}
	return nil
}

// UpdateTakeProfit persists and mutates a position's take-profit price.
func (m *Manager) UpdateTakeProfit(ctx context.Context, positionID string, newTarget decimal.Decimal) error {
	m.mu.Lock()
	mp, ok := m.active[positionID]
	if ok {
		mp.TakeProfitPrice = newTarget
		mp.HasTakeProfit = true
		mp.LastUpdated = time.Now()
	}
	m.mu.Unlock()
	if !ok {
		return NotFoundError{PositionID: positionID}
	}
	if err := m.repo.UpdateTakeProfit(ctx, mp.PersistenceHandle, floatOf(newTarget)); err != nil {
		return fmt.Errorf("position: persist take profit: %w", err)
	}
	return nil
}

// checkTriggers reports whether the current price has crossed the stop or
// target, and which. Callers must hold mu.
func checkTriggers(mp *models.ManagedPosition) (bool, models.ExitReason) {
	price := mp.Position.CurrentPrice
	long := mp.Position.Side == models.SideLong
	if mp.HasStopLoss {
		if long && price.LessThanOrEqual(mp.StopLossPrice) {
			return true, models.ExitReasonStopLoss
		}
		if !long && price.GreaterThanOrEqual(mp.StopLossPrice) {
			return true, models.ExitReasonStopLoss
		}
	}
	if mp.HasTakeProfit {
		if long && price.GreaterThanOrEqual(mp.TakeProfitPrice) {
			return true, models.ExitReasonTakeProfit
		}
		if !long && price.LessThanOrEqual(mp.TakeProfitPrice) {
			return true, models.ExitReasonTakeProfit
		}
	}
	return false, ""
}

// EvaluateExit reports whether a position's current price has already
// crossed its stop-loss or take-profit, without closing it. The
// monitoring loop uses the same check internally before calling
// ClosePosition.
func (m *Manager) EvaluateExit(positionID string) (bool, models.ExitReason, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mp, ok := m.active[positionID]
	if !ok {
		return false, "", NotFoundError{PositionID: positionID}
	}
	triggered, reason := checkTriggers(mp)
	return triggered, reason, nil
}

// ClosePosition submits the opposite-direction MARKET order for the full
// quantity, computes realized P&L at the fill price, and persists the
// close. It refuses to re-enter for a position already closing.
func (m *Manager) ClosePosition(ctx context.Context, positionID string, reason models.ExitReason) (*models.TradeRecord, error) {
	m.mu.Lock()
	mp, ok := m.active[positionID]
	if !ok {
		m.mu.Unlock()
		return nil, NotFoundError{PositionID: positionID}
	}
	if m.closing[positionID] {
		m.mu.Unlock()
		return nil, AlreadyClosingError{PositionID: positionID}
	}
	m.closing[positionID] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.closing, positionID)
		m.mu.Unlock()
	}()

	order := models.Order{
		Symbol:    mp.Position.Symbol,
		Side:      mp.Position.Side.Opposite(),
		Type:      models.OrderMarket,
		Quantity:  mp.Position.Quantity,
		CreatedAt: time.Now(),
	}
	placed, err := m.connector.PlaceOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("position: close order: %w", err)
	}
	if !placed.Filled() {
		return nil, OrderNotFilledError{Status: placed.Status}
	}

	exitPrice := placed.AveragePrice
	if exitPrice.IsZero() {
		exitPrice = mp.Position.CurrentPrice
	}
	exitQuantity := placed.FilledQuantity
	if exitQuantity.IsZero() {
		exitQuantity = mp.Position.Quantity
	}

	closingView := mp.Position
	closingView.CurrentPrice = exitPrice
	realized := closingView.PnL()
	exitAmount := exitQuantity.Mul(exitPrice)

	ok2, err := m.repo.Close(ctx, mp.PersistenceHandle, floatOf(exitPrice), floatOf(exitAmount), reason, placed.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("position: persist close: %w", err)
	}
	if !ok2 {
		return nil, fmt.Errorf("position: repository reported no trade %s to close", mp.PersistenceHandle)
	}

	if m.riskMgr != nil {
		m.riskMgr.RecordRealizedPnL(mp.TraderID, floatOf(realized))
	}

	record := models.TradeRecord{
		TradeID:           mp.PersistenceHandle,
		TraderID:          mp.TraderID,
		Exchange:          mp.Exchange,
		Symbol:            mp.Position.Symbol,
		Side:              mp.Position.Side,
		Leverage:          mp.Position.Leverage,
		EntryPrice:        mp.Position.EntryPrice,
		EntryAmount:       mp.Position.Quantity.Mul(mp.Position.EntryPrice),
		EntryTimestamp:    mp.Position.OpenedAt,
		ExitPrice:         exitPrice,
		ExitAmount:        exitAmount,
		ExitTimestamp:     time.Now(),
		ExitOrderID:       placed.ID,
		ExitReason:        reason,
		ProfitLoss:        realized,
		StopLossPrice:     mp.StopLossPrice,
		TakeProfitPrice:   mp.TakeProfitPrice,
		TrailingActivated: mp.TrailingActivated,
		Indicators:        mp.Indicators,
		PatternID:         mp.PatternID,
		Status:            models.TradeClosed,
	}

	m.mu.Lock()
	delete(m.active, positionID)
	m.history = append(m.history, record)
	m.mu.Unlock()

	m.log.Info(ctx, "position closed", map[string]any{
		"position_id": positionID, "reason": reason, "realized_pnl": floatOf(realized),
	})
	return &record, nil
}

// RefreshPosition reconciles quantity/entry drift against the exchange's
// own view of the position.
func (m *Manager) RefreshPosition(ctx context.Context, positionID string) error {
	m.mu.Lock()
	mp, ok := m.active[positionID]
	m.mu.Unlock()
	if !ok {
		return NotFoundError{PositionID: positionID}
	}

	live, err := m.connector.GetPosition(ctx, mp.Position.Symbol)
	if err != nil {
		return fmt.Errorf("position: refresh: %w", err)
	}
	if live == nil {
		return fmt.Errorf("position: refresh: %s no longer reported open by exchange", mp.Position.Symbol)
	}

	m.mu.Lock()
	mp.Position.Quantity = live.Quantity
	mp.Position.EntryPrice = live.EntryPrice
	mp.LastUpdated = time.Now()
	m.mu.Unlock()
	return nil
}

// Run starts the monitoring loop: on every tick it refreshes each active
// position's price, evaluates stop-loss/take-profit triggers, and closes
// any that fired. It tolerates connector failures by logging and
// continuing, and never closes the same position twice concurrently. Run
// blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Manager) tick(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.mu.Lock()
		_, stillActive := m.active[id]
		alreadyClosing := m.closing[id]
		m.mu.Unlock()
		if !stillActive || alreadyClosing {
			continue
		}

		if err := m.UpdatePosition(ctx, id, nil); err != nil {
			m.log.Warnf(ctx, "position %s: update failed: %v", id, err)
			continue
		}

		triggered, reason, err := m.EvaluateExit(id)
		if err != nil {
			continue
		}
		if triggered {
			if _, err := m.ClosePosition(ctx, id, reason); err != nil {
				m.log.Errorf(ctx, "position %s: close on %s failed: %v", id, reason, err)
			}
		}
	}
}

// hasActiveHandle reports whether a trade id is already represented in
// active, used by RecoverPositions to stay idempotent. Callers must hold
// mu.
func (m *Manager) hasActiveHandle(tradeID string) bool {
	for _, mp := range m.active {
		if mp.PersistenceHandle == tradeID {
			return true
		}
	}
	return false
}

// RecoverPositions loads OPEN trades from the repository on startup,
// reconciles each against the exchange's live view, and reports what
// happened. Calling it twice in a row leaves active unchanged: trades
// already represented in active are skipped rather than duplicated.
func (m *Manager) RecoverPositions(ctx context.Context) (*RecoveryReport, error) {
	report := &RecoveryReport{}
	openTrades, err := m.repo.FindAllOpenTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("position: recover: %w", err)
	}

	for _, trade := range openTrades {
		m.mu.Lock()
		already := m.hasActiveHandle(trade.TradeID)
		m.mu.Unlock()
		if already {
			report.Recovered++
			continue
		}

		live, err := m.connector.GetPosition(ctx, trade.Symbol)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("position: recover %s: %w", trade.TradeID, err))
			continue
		}

		if live == nil {
			if _, err := m.repo.Close(ctx, trade.TradeID, floatOf(trade.EntryPrice), floatOf(trade.EntryAmount), models.ExitReasonOrphaned, "", 0); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("position: mark orphaned %s: %w", trade.TradeID, err))
				continue
			}
			report.Orphaned++
			continue
		}

		mp := &models.ManagedPosition{
			PositionID:        m.nextPositionID(),
			TraderID:          trade.TraderID,
			Exchange:          trade.Exchange,
			Position:          *live,
			PersistenceHandle: trade.TradeID,
			LastUpdated:       time.Now(),
		}
		if !trade.StopLossPrice.IsZero() {
			mp.StopLossPrice = trade.StopLossPrice
			mp.HasStopLoss = true
		}
		if !trade.TakeProfitPrice.IsZero() {
			mp.TakeProfitPrice = trade.TakeProfitPrice
			mp.HasTakeProfit = true
		}
		if trade.TrailingActivated && mp.HasStopLoss {
			// Re-anchor to the persisted stop rather than the live price
			// (decided open question: the source reads persisted state
			// without re-anchoring the reference price).
			mp.TrailingActivated = true
			mp.TrailingReferencePrice = mp.StopLossPrice
			mp.TrailingDistance = mp.Position.EntryPrice.Sub(mp.StopLossPrice).Abs()
		}

		m.mu.Lock()
		m.active[mp.PositionID] = mp
		m.mu.Unlock()
		report.Recovered++
	}

	return report, nil
}

// FindOpenPosition reports the active position, if any, a trader holds on
// symbol, so a signal-driven caller can decide between opening and
// closing without maintaining its own index.
func (m *Manager) FindOpenPosition(traderID, symbol string) (*models.ManagedPosition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mp := range m.active {
		if mp.TraderID == traderID && mp.Position.Symbol == symbol {
			return mp, true
		}
	}
	return nil, false
}

// Snapshot returns a point-in-time copy of every active position, for
// telemetry publication.
func (m *Manager) Snapshot() []models.ManagedPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ManagedPosition, 0, len(m.active))
	for _, mp := range m.active {
		out = append(out, *mp)
	}
	return out
}

// History returns a copy of every closed trade this Manager has recorded.
func (m *Manager) History() []models.TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TradeRecord, len(m.history))
	copy(out, m.history)
	return out
}

// OpenPositions implements risk.PositionsView so the RiskManager can query
// exposure without internal/risk importing internal/position.
func (m *Manager) OpenPositions(traderID string) []risk.PositionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]risk.PositionSnapshot, 0)
	for _, mp := range m.active {
		if mp.TraderID != traderID {
			continue
		}
		notional := mp.Position.Quantity.Mul(mp.Position.CurrentPrice).Mul(mp.Position.Leverage)
		out = append(out, risk.PositionSnapshot{Symbol: mp.Position.Symbol, Notional: floatOf(notional)})
	}
	return out
}
