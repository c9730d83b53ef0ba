package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/sigmatrade/matching-engine/internal/app/engine"
	journal "github.com/sigmatrade/matching-engine/internal/usecase/journal"
	orderreader "github.com/sigmatrade/matching-engine/internal/usecase/order-reader"
	orderbook "github.com/sigmatrade/matching-engine/internal/usecase/orderbook"
	snapshot "github.com/sigmatrade/matching-engine/internal/usecase/snapshot"
	tradepublisher "github.com/sigmatrade/matching-engine/internal/usecase/trade-publisher"
	"github.com/sigmatrade/matching-engine/pkg/config"
	"github.com/sigmatrade/matching-engine/pkg/logger"
	"github.com/sigmatrade/matching-engine/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg = &config.Config{}
	err = config.Load(cfg)
	if err != nil {
		panic(err)
	}

	logger, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}

	log = logger
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisConfig := redis.DefaultConfig()
	redisConfig.Addrs = cfg.RedisConfig.AddrList()
	redisConfig.Password = cfg.RedisConfig.Password
	redisConfig.Username = cfg.RedisConfig.Username
	redisConfig.DB = cfg.RedisConfig.DB

	rclient := redis.NewClient(log, redisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	tradeJournal, err := journal.NewPebbleJournal(cfg.JournalConfig.Path)
	if err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "open_trade_journal",
		})
		return
	}

	// Initialize components
	book := orderbook.NewBook()
	oReader := orderreader.NewReader(cfg.KafkaConfig, log)
	tPublisher := tradepublisher.NewPublisher(cfg.TradePublisherConfig, log)
	snapshotStore := snapshot.NewSnapshotStore(rclient, cfg.Instrument, log)
	engine := app.NewEngine(
		book,
		oReader,
		tPublisher,
		snapshotStore,
		tradeJournal,
		log,
		cfg,
	)

	// Start the engine
	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_engine",
		})
		return
	}

	log.Info("Matching engine started successfully", logger.Field{
		Key:   "instrument",
		Value: cfg.Instrument,
	})

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info("Received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	// Cancel the main context to signal shutdown
	cancel()

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the engine gracefully
	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_engine",
		})
	}

	if err := tPublisher.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_trade_publisher",
		})
	}

	if err := tradeJournal.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_trade_journal",
		})
	}

	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "disconnect_redis",
		})
	}

	log.Info("Matching engine shutdown complete")
}
