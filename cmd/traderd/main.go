// Command traderd is a demonstration entrypoint wiring one Supervisor,
// its shared PositionManager/Processor/RiskManager/TelemetryHub, and one
// AITrader running against a paper exchange connector. It exists to show
// the runtime assembled end to end; a real deployment wires the same
// pieces behind whatever process-management layer operates it.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"tradercore/internal/aitrader"
	"tradercore/internal/exchange"
	"tradercore/internal/interfaces/repository"
	"tradercore/internal/marketdata"
	"tradercore/internal/models"
	"tradercore/internal/observability"
	"tradercore/internal/pattern"
	"tradercore/internal/position"
	"tradercore/internal/ratelimit"
	"tradercore/internal/retry"
	"tradercore/internal/risk"
	"tradercore/internal/storage"
	"tradercore/internal/strategy"
	"tradercore/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.SetFlags(0)

	shutdownTracing, err := observability.SetupTracing(ctx, "traderd")
	if err != nil {
		log.Fatalf("traderd: setup tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	dsn := os.Getenv("TRADER_DATABASE_DSN")
	var tradeRepo repository.TradeRepository
	var patternRepo repository.PatternRepository
	if dsn != "" {
		db, err := storage.Connect(dsn)
		if err != nil {
			log.Fatalf("traderd: connect storage: %v", err)
		}
		tradeRepo = storage.NewTradeRepository(db)
		patternRepo = storage.NewPatternRepository(db)
		log.Println("traderd: connected to Postgres trade and pattern store")
	} else {
		tradeRepo = storage.NewMemoryTradeRepository()
		patternRepo = pattern.NewMemoryStore()
		log.Println("traderd: TRADER_DATABASE_DSN not set, using in-memory trade and pattern store")
	}

	hub := telemetry.NewHub(256)
	logSubscriberEvents(ctx, hub)

	processor := marketdata.NewProcessor(newProcessedDataCache())

	connector := exchange.NewPaperConnector(
		exchange.Config{Exchange: "PAPER", Testnet: true},
		ratelimit.Config{RequestsPerSecond: 10, BurstCapacity: 20, PerEndpoint: true},
		retry.DEFAULT,
	)

	posMgr := position.NewManager(connector, tradeRepo, nil, 5*time.Second)
	riskMgr := risk.New(risk.DefaultLimits(), posMgr, telemetry.NewRiskAuditSink(hub))
	posMgr.SetRiskManager(riskMgr)

	sysEvents := telemetry.NewSystemEventProducer(hub, 30*time.Second)
	go sysEvents.Run(ctx)

	go posMgr.Run(ctx)

	supervisor := aitrader.NewSupervisor(hub, processor, posMgr, patternRepo)
	supervisor.RegisterConnector("PAPER", connector)

	cfg := models.AITraderConfig{
		ID:                  "demo-trader-1",
		Name:                "BTC Trend Follower",
		Exchange:            "PAPER",
		Symbol:              "BTCUSDT",
		VirtualMoney:        10000,
		MaxStakeAmount:      500,
		MaxRiskLevel:        2,
		MaxTradingDuration:  24 * time.Hour,
		MinReturnPercent:    0.5,
		Strategy:            models.StrategyTrendFollowing,
		CandlestickInterval: models.Interval1m,
	}
	strat := strategy.New(cfg.Strategy)

	if _, err := supervisor.StartTrader(ctx, cfg, strat); err != nil {
		log.Fatalf("traderd: start trader: %v", err)
	}
	log.Printf("traderd: started trader %s on %s %s", cfg.ID, cfg.Exchange, cfg.Symbol)

	<-ctx.Done()
	log.Println("traderd: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := supervisor.Shutdown(shutdownCtx); err != nil {
		log.Printf("traderd: supervisor shutdown: %v", err)
	}
}

// newProcessedDataCache returns a marketdata.RedisCache when
// TRADER_REDIS_ADDR is set, so multiple traderd processes on the same
// Redis instance share a processed-data cache, and falls back to a
// single-process marketdata.MemoryCache otherwise.
func newProcessedDataCache() marketdata.Cache {
	addr := os.Getenv("TRADER_REDIS_ADDR")
	if addr == "" {
		log.Println("traderd: TRADER_REDIS_ADDR not set, using in-memory market-data cache")
		return marketdata.NewMemoryCache(time.Minute)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("TRADER_REDIS_PASSWORD"),
	})
	log.Printf("traderd: caching processed market data in Redis at %s", addr)
	return marketdata.NewRedisCache(client, time.Minute)
}

// logSubscriberEvents drains the trader-status channel to stdout so the
// demo has visible output without a dashboard consumer attached.
func logSubscriberEvents(ctx context.Context, hub *telemetry.Hub) {
	events, _, unsubscribe := hub.Subscribe(telemetry.ChannelTraderStatus, false)
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				log.Printf("traderd: [trader-status] %+v", ev.Payload)
			}
		}
	}()
}
