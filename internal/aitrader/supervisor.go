package aitrader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradercore/internal/exchange"
	"tradercore/internal/interfaces/repository"
	"tradercore/internal/marketdata"
	"tradercore/internal/models"
	"tradercore/internal/observability"
	"tradercore/internal/position"
	"tradercore/internal/strategy"
	"tradercore/internal/telemetry"
)

// registration is the Supervisor's bookkeeping for one AITrader, the
// in-memory analogue of service_registry.go's ServiceInfo row: name,
// status, and last heartbeat, minus the Postgres upsert since this
// registry lives for the life of the process, not across restarts.
type registration struct {
	trader        *AITrader
	lastHeartbeat time.Time
}

// Supervisor owns every running AITrader, keyed by AITraderConfig.ID, and
// the single ExchangeConnector instance shared by every trader on the
// same exchange. It also holds the single process-wide PositionManager
// and Processor every AITrader is built against, matching the
// concurrency model's "one ExchangeConnector per exchange, shared" and
// "one PositionManager" resource-sharing rules.
type Supervisor struct {
	log *observability.Logger

	hub       *telemetry.Hub
	processor *marketdata.Processor
	positions *position.Manager
	patterns  repository.PatternRepository

	mu         sync.Mutex
	connectors map[string]exchange.Connector // exchange name -> shared connector
	traders    map[string]*registration      // config ID -> registration
}

// NewSupervisor constructs a Supervisor around the process-wide
// TelemetryHub, Processor, PositionManager, and pattern store every
// trader it starts will share. patterns may be nil, in which case
// traders run without pattern matching or learning.
func NewSupervisor(hub *telemetry.Hub, processor *marketdata.Processor, positions *position.Manager, patterns repository.PatternRepository) *Supervisor {
	return &Supervisor{
		log:        observability.New("aitrader-supervisor"),
		hub:        hub,
		processor:  processor,
		positions:  positions,
		patterns:   patterns,
		connectors: make(map[string]exchange.Connector),
		traders:    make(map[string]*registration),
	}
}

// RegisterConnector installs the shared Connector for exchangeName.
// StartTrader fails for configs naming an exchange with no registered
// connector.
func (s *Supervisor) RegisterConnector(exchangeName string, conn exchange.Connector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectors[exchangeName] = conn
}

// StartTrader builds (or reuses, if cfg.ID is already registered) an
// AITrader for cfg and starts it. It fails if no connector has been
// registered for cfg.Exchange.
func (s *Supervisor) StartTrader(ctx context.Context, cfg models.AITraderConfig, strat strategy.Strategy) (*AITrader, error) {
	s.mu.Lock()
	conn, ok := s.connectors[cfg.Exchange]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("aitrader: no connector registered for exchange %q", cfg.Exchange)
	}
	reg, exists := s.traders[cfg.ID]
	if !exists {
		reg = &registration{trader: New(cfg, strat, conn, s.processor, s.positions, s.hub, s.patterns)}
		s.traders[cfg.ID] = reg
	}
	s.mu.Unlock()

	if err := reg.trader.Start(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	reg.lastHeartbeat = time.Now()
	s.mu.Unlock()
	s.log.Info(ctx, "trader registered", map[string]any{"id": cfg.ID, "exchange": cfg.Exchange, "symbol": cfg.Symbol})
	return reg.trader, nil
}

// StopTrader stops the trader registered under id, if any.
func (s *Supervisor) StopTrader(ctx context.Context, id string) error {
	s.mu.Lock()
	reg, ok := s.traders[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("aitrader: no trader registered under id %q", id)
	}
	return reg.trader.Stop(ctx)
}

// Get returns the AITrader registered under id.
func (s *Supervisor) Get(id string) (*AITrader, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.traders[id]
	if !ok {
		return nil, false
	}
	return reg.trader, true
}

// List returns every registered AITrader in no particular order.
func (s *Supervisor) List() []*AITrader {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AITrader, 0, len(s.traders))
	for _, reg := range s.traders {
		out = append(out, reg.trader)
	}
	return out
}

// Heartbeat records that id's trader is still being supervised, the
// in-memory equivalent of ServiceHeartbeat's periodic UPDATE.
func (s *Supervisor) Heartbeat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.traders[id]; ok {
		reg.lastHeartbeat = time.Now()
	}
}

// Shutdown stops every registered trader without short-circuiting, so one
// stuck trader doesn't block the others from stopping; each error is
// logged and the first one is returned.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, trader := range s.List() {
		if err := trader.Stop(ctx); err != nil {
			s.log.Warnf(ctx, "supervisor shutdown: trader %s: %v", trader.Config().ID, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("supervisor shutdown: trader %s: %w", trader.Config().ID, err)
			}
		}
	}
	return firstErr
}
