package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"

	journalv1 "github.com/sigmatrade/matching-engine/internal/domain/journal/v1"
	orderreaderv1 "github.com/sigmatrade/matching-engine/internal/domain/order-reader/v1"
	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/sigmatrade/matching-engine/internal/domain/snapshot/v1"
	tradepublisherv1 "github.com/sigmatrade/matching-engine/internal/domain/trade-publisher/v1"
	"github.com/sigmatrade/matching-engine/pkg/config"
	"github.com/sigmatrade/matching-engine/pkg/logger"
)

// Engine is the main engine: it consumes order events for one instrument,
// runs them through the book, journals and publishes the resulting trades,
// and snapshots the book state periodically.
type Engine struct {
	// Core components
	book           orderbookv1.Book
	orderReader    orderreaderv1.OrderReader
	tradePublisher tradepublisherv1.TradePublisher
	snapshotStore  snapshotv1.Store
	journal        journalv1.Journal
	logger         *logger.Logger
	config         *config.Config

	// State management
	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64
	tradeSeq           int64

	// Shutdown coordination
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Configuration
	snapshotInterval    time.Duration
	snapshotOffsetDelta int64

	// Trade statistics
	totalTrades int64
	tradesMutex sync.RWMutex
}

// NewEngine creates a new instance of Engine with the provided dependencies.
func NewEngine(
	book orderbookv1.Book,
	orderReader orderreaderv1.OrderReader,
	tradePublisher tradepublisherv1.TradePublisher,
	snapshotStore snapshotv1.Store,
	journal journalv1.Journal,
	logger *logger.Logger,
	config *config.Config,
) *Engine {
	return NewEngineWithOptions(book, orderReader, tradePublisher, snapshotStore, journal, logger, config, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options.
func NewEngineWithOptions(
	book orderbookv1.Book,
	orderReader orderreaderv1.OrderReader,
	tradePublisher tradepublisherv1.TradePublisher,
	snapshotStore snapshotv1.Store,
	journal journalv1.Journal,
	logger *logger.Logger,
	config *config.Config,
	options *Options,
) *Engine {
	e := &Engine{
		book:           book,
		orderReader:    orderReader,
		tradePublisher: tradePublisher,
		snapshotStore:  snapshotStore,
		journal:        journal,
		logger:         logger,
		config:         config,

		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		orderOffset:         -1,
	}

	// Restore book state before consuming anything
	if err := e.loadSnapshot(context.Background()); err != nil {
		e.logger.GetZap().Fatal("Failed to load snapshot", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}

	// Continue the journal sequence where the last run left off
	seq, err := e.journal.Len()
	if err != nil {
		e.logger.GetZap().Fatal("Failed to read journal length", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}
	e.tradeSeq = seq

	return e
}

// Start initializes the engine and starts processing routines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runOrderProcessor()
	go e.runSnapshotManager()

	e.logger.Info("Engine started", logger.Field{
		Key:   "instrument",
		Value: e.config.Instrument,
	})

	return nil
}

// Stop gracefully shuts down the engine.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("Engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}
}

// runOrderProcessor combines order reading and processing in a single goroutine.
// The book itself is single-writer; all mutation happens here.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	e.logger.Info("Starting order processor", logger.Field{
		Key:   "instrument",
		Value: e.config.Instrument,
	})

	// Resume one past the last processed event
	currentOffset := e.getOrderOffset()
	if currentOffset > 0 {
		currentOffset++
	}

	if err := e.orderReader.SetOffset(currentOffset); err != nil {
		e.logger.GetZap().Fatal("Failed to set offset for order reader", zapcore.Field{
			Key:       "error",
			Interface: err,
		})
	}

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Order processor shutting down")
			e.orderReader.Close()
			return
		default:
			msg, payload, err := e.orderReader.ReadMessage(e.ctx)
			if err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_order_message",
				})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := e.orderReader.CommitMessages(e.ctx, msg); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "commit_order_message",
				})
			}

			if err := e.processEvent(payload); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "process_order_event",
				})
				// A rejected event is still consumed; fall through to
				// advance the offset so it is not replayed on restart.
			}

			e.setOrderOffset(msg.Offset)
		}
	}
}

// runSnapshotManager handles periodic snapshots.
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("Starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot() {
				e.createAndStoreSnapshot()
			}
		}
	}
}

// processEvent runs a single order event through the book and fans the
// resulting trades out to the journal and the trade topic.
func (e *Engine) processEvent(payload *orderreaderv1.OrderEventPayload) error {
	e.logger.Debug("Processing order event",
		logger.Field{Key: "orderOffset", Value: payload.Offset},
		logger.Field{Key: "type", Value: payload.Type},
		logger.Field{Key: "side", Value: payload.Side},
	)

	trades, err := e.book.Submit(payload.ToEvent())
	if err != nil {
		return err
	}

	if len(trades) > 0 {
		// Every trade in one submit shares the incoming event's taker side:
		// activated stops fight for the same side of the book as the taker.
		e.recordTrades(trades, orderbookv1.Side(payload.Side))
	}

	return nil
}

// recordTrades journals and publishes the trades of one submit, in
// execution order, and updates statistics.
func (e *Engine) recordTrades(trades []orderbookv1.Trade, takerSide orderbookv1.Side) {
	for _, trade := range trades {
		seq := e.nextTradeSeq()

		if err := e.journal.Append(seq, trade); err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{
				Key:   "action",
				Value: "journal_trade",
			}, logger.Field{
				Key:   "seq",
				Value: seq,
			})
		}

		event := tradepublisherv1.CreateFromTrade(trade, takerSide)
		if err := e.tradePublisher.PublishTradeEvent(e.ctx, event); err != nil {
			e.logger.ErrorContext(e.ctx, err, logger.Field{
				Key:   "action",
				Value: "publish_trade_event",
			}, logger.Field{
				Key:   "eventID",
				Value: event.EventID,
			})
		}
	}

	e.tradesMutex.Lock()
	e.totalTrades += int64(len(trades))
	currentTotal := e.totalTrades
	e.tradesMutex.Unlock()

	e.logger.Info("Trades executed",
		logger.Field{Key: "tradeCount", Value: len(trades)},
		logger.Field{Key: "totalTrades", Value: currentTotal},
	)

	for i, trade := range trades {
		e.logger.Info("Trade executed",
			logger.Field{Key: "tradeIndex", Value: i + 1},
			logger.Field{Key: "takerOrderID", Value: trade.TakerID},
			logger.Field{Key: "makerOrderID", Value: trade.MakerID},
			logger.Field{Key: "volume", Value: trade.Volume},
			logger.Field{Key: "price", Value: trade.Price},
		)
	}
}

// shouldCreateSnapshot checks if a snapshot should be created.
func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	currentOffset := e.orderOffset
	lastSnapshotOffset := e.lastSnapshotOffset
	e.mu.RUnlock()

	if currentOffset <= 0 {
		return false
	}

	delta := currentOffset - lastSnapshotOffset
	return delta >= e.snapshotOffsetDelta
}

// createAndStoreSnapshot creates and stores a snapshot.
func (e *Engine) createAndStoreSnapshot() {
	currentOffset := e.getOrderOffset()

	e.logger.Info("Creating snapshot", logger.Field{
		Key:   "currentOffset",
		Value: currentOffset,
	})

	snapshot := e.book.CreateSnapshot()
	snapshot.OrderOffset = currentOffset

	if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
		e.logger.ErrorContext(e.ctx, err, logger.Field{
			Key:   "action",
			Value: "store_snapshot",
		})
	} else {
		e.setLastSnapshotOffset(currentOffset)
		e.logger.Info("Snapshot stored successfully", logger.Field{
			Key:   "instrument",
			Value: e.config.Instrument,
		}, logger.Field{
			Key:   "offset",
			Value: currentOffset,
		})
	}
}

// Thread-safe getters and setters
func (e *Engine) getOrderOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orderOffset
}

func (e *Engine) setOrderOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderOffset = offset
}

func (e *Engine) getLastSnapshotOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshotOffset
}

func (e *Engine) setLastSnapshotOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotOffset = offset
}

func (e *Engine) nextTradeSeq() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	seq := e.tradeSeq
	e.tradeSeq++
	return seq
}

// loadSnapshot loads and restores the book from the last stored snapshot.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	snapshot, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}

	if snapshot != nil {
		if err := e.book.Restore(snapshot); err != nil {
			return err
		}
		e.mu.Lock()
		e.orderOffset = snapshot.OrderOffset
		e.lastSnapshotOffset = snapshot.OrderOffset
		e.mu.Unlock()

		e.logger.Info("Book restored from snapshot", logger.Field{
			Key:   "orderOffset",
			Value: snapshot.OrderOffset,
		})
	}

	return nil
}

// GetOrderOffset returns the current order offset.
func (e *Engine) GetOrderOffset() int64 {
	return e.getOrderOffset()
}

// GetLastSnapshotOffset returns the last snapshot offset.
func (e *Engine) GetLastSnapshotOffset() int64 {
	return e.getLastSnapshotOffset()
}

// GetTotalTrades returns the total number of trades processed.
func (e *Engine) GetTotalTrades() int64 {
	e.tradesMutex.RLock()
	defer e.tradesMutex.RUnlock()
	return e.totalTrades
}
