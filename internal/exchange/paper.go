package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradercore/internal/models"
	"tradercore/internal/observability"
	"tradercore/internal/ratelimit"
	"tradercore/internal/retry"
)

// PaperConnector simulates a paper/testnet exchange: deterministic fills
// at the last-seen ticker price, an in-memory order book keyed by symbol,
// and a synthetic websocket candle generator. It holds a rate limiter, a
// retry policy and, when credentials are configured, an Authenticator.
// Connect, GetTicker, GetCandlesticks and PlaceOrder acquire from the
// limiter; the other calls do not. No call is signed or wrapped in the
// retry policy. Grounded on internal/binance/client.go's HTTP
// client + rate limiter composition, generalized to a contract-shaped
// connector instead of a single-purpose REST client.
type PaperConnector struct {
	log *observability.Logger

	cfg       Config
	limiter   *ratelimit.Limiter
	retry     *retry.Policy
	auth      *Authenticator
	connected bool

	mu        sync.Mutex
	tickers   map[string]decimal.Decimal
	positions map[string]models.Position
	orders    map[string]models.Order
	seq       int

	candleFeed *syntheticCandleFeed
}

// NewPaperConnector constructs a PaperConnector. Credentials are optional:
// a paper connector accepts empty keys since it never leaves the process.
func NewPaperConnector(cfg Config, limiterCfg ratelimit.Config, retryCfg retry.Config) *PaperConnector {
	var auth *Authenticator
	if cfg.APIKey != "" && cfg.APISecret != "" {
		auth, _ = NewAuthenticator(cfg.APIKey, cfg.APISecret, cfg.Passphrase)
	}
	return &PaperConnector{
		log:        observability.New("paper-connector"),
		cfg:        cfg.WithDefaults(),
		limiter:    ratelimit.New(limiterCfg),
		retry:      retry.New(retryCfg),
		auth:       auth,
		tickers:    make(map[string]decimal.Decimal),
		positions:  make(map[string]models.Position),
		orders:     make(map[string]models.Order),
		candleFeed: newSyntheticCandleFeed(),
	}
}

func (p *PaperConnector) Configure(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg.WithDefaults()
	return nil
}

func (p *PaperConnector) Connect(ctx context.Context) error {
	if err := p.limiter.Acquire(ctx, "connect", 1); err != nil {
		return &retry.ConnectionError{Op: "connect", Err: err, Retryable: true}
	}
	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	p.log.Info(ctx, "connected", map[string]any{"exchange": p.cfg.Exchange, "testnet": p.cfg.Testnet})
	return nil
}

func (p *PaperConnector) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.log.Info(ctx, "disconnected", nil)
	return nil
}

func (p *PaperConnector) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// SeedPrice sets the last-seen ticker price for a symbol; tests and
// callers bootstrap the paper book with this before trading against it.
func (p *PaperConnector) SeedPrice(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickers[symbol] = price
}

func (p *PaperConnector) GetTicker(ctx context.Context, symbol string) (models.Ticker, error) {
	if err := p.limiter.Acquire(ctx, "ticker", 1); err != nil {
		return models.Ticker{}, &retry.ConnectionError{Op: "get_ticker", Err: err, Retryable: true}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.tickers[symbol]
	if !ok {
		return models.Ticker{}, &retry.OrderError{Code: OrderErrorNotFoundSymbol, Message: "no seeded price for " + symbol}
	}
	return models.Ticker{Symbol: symbol, Price: price, Timestamp: time.Now()}, nil
}

func (p *PaperConnector) GetCandlesticks(ctx context.Context, symbol string, interval models.Interval, limit int) ([]models.Candlestick, error) {
	if err := p.limiter.Acquire(ctx, "candles", 1); err != nil {
		return nil, &retry.ConnectionError{Op: "get_candlesticks", Err: err, Retryable: true}
	}
	p.mu.Lock()
	price, ok := p.tickers[symbol]
	p.mu.Unlock()
	if !ok {
		price = decimal.NewFromInt(0)
	}
	return p.candleFeed.history(symbol, interval, limit, price), nil
}

// PlaceOrder fills a MARKET order immediately at the last-seen ticker
// price; LIMIT/STOP/TAKE_PROFIT orders are accepted as NEW and never
// filled by this simulator (no resting order book is modeled).
func (p *PaperConnector) PlaceOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if err := p.limiter.Acquire(ctx, "order", 1); err != nil {
		return models.Order{}, &retry.ConnectionError{Op: "place_order", Err: err, Retryable: true}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	order.ID = uuid.NewString()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	price, hasPrice := p.tickers[order.Symbol]
	if order.Type == models.OrderMarket && hasPrice {
		order.Status = models.OrderStatusFilled
		order.FilledQuantity = order.Quantity
		order.AveragePrice = price
	} else {
		order.Status = models.OrderStatusNew
	}

	p.applyFillToPosition(order)
	p.orders[order.ID] = order
	return order, nil
}

func (p *PaperConnector) applyFillToPosition(order models.Order) {
	if order.Status != models.OrderStatusFilled && order.Status != models.OrderStatusPartiallyFilled {
		return
	}
	pos, exists := p.positions[order.Symbol]
	if !exists {
		p.positions[order.Symbol] = models.Position{
			Symbol:       order.Symbol,
			Side:         order.Side,
			Quantity:     order.FilledQuantity,
			EntryPrice:   order.AveragePrice,
			CurrentPrice: order.AveragePrice,
			Leverage:     decimal.NewFromInt(1),
			OpenedAt:     order.CreatedAt,
		}
		return
	}
	if pos.Side == order.Side {
		pos.Quantity = pos.Quantity.Add(order.FilledQuantity)
	} else {
		pos.Quantity = pos.Quantity.Sub(order.FilledQuantity)
		if pos.Quantity.IsZero() || pos.Quantity.IsNegative() {
			delete(p.positions, order.Symbol)
			return
		}
	}
	p.positions[order.Symbol] = pos
}

func (p *PaperConnector) CancelOrder(ctx context.Context, symbol, orderID string) (models.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	order, ok := p.orders[orderID]
	if !ok {
		return models.Order{}, &retry.OrderError{Code: retry.OrderNotFound, Message: orderID}
	}
	if order.Status == models.OrderStatusFilled {
		return models.Order{}, &retry.OrderError{Code: retry.OrderInvalidParameters, Message: "order already filled"}
	}
	order.Status = models.OrderStatusCanceled
	order.UpdatedAt = time.Now()
	p.orders[orderID] = order
	return order, nil
}

func (p *PaperConnector) GetOrder(ctx context.Context, symbol, orderID string) (models.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	order, ok := p.orders[orderID]
	if !ok {
		return models.Order{}, &retry.OrderError{Code: retry.OrderNotFound, Message: orderID}
	}
	return order, nil
}

func (p *PaperConnector) GetPosition(ctx context.Context, symbol string) (*models.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[symbol]
	if !ok {
		return nil, nil
	}
	return &pos, nil
}

func (p *PaperConnector) GetBalance(ctx context.Context) (models.Balance, error) {
	return models.Balance{Asset: "USDT", Free: decimal.NewFromInt(100000), Locked: decimal.Zero}, nil
}

func (p *PaperConnector) SubscribeCandles(ctx context.Context, symbol string, interval models.Interval) (<-chan models.Candlestick, error) {
	out := make(chan models.Candlestick, 16)
	go p.candleFeed.stream(ctx, symbol, interval, out, func() decimal.Decimal {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.tickers[symbol]
	})
	return out, nil
}

// OrderErrorNotFoundSymbol is used by GetTicker when the paper book has no
// seeded price for a symbol.
const OrderErrorNotFoundSymbol retry.OrderErrorCode = "SYMBOL_NOT_FOUND"

var _ Connector = (*PaperConnector)(nil)
