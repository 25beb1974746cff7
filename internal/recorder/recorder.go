// Package recorder is the SQL persistence layer: every fill, every
// placement, periodic market-state snapshots, and periodic book snapshots
// of both venues, plus a live mirror of our own resting orders. It is the
// boundary between the in-memory control loop and durable storage — the
// control loop never queries it back; it is write-mostly.
package recorder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ladder-mm/pkg/types"
)

// Order is a row persisted for every decoded private-orders-stream message
// (table: orders), the full fill history independent of current state.
type Order struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"`
	OrderID    string          `gorm:"index"`
	Side       string
	Price      decimal.Decimal `gorm:"type:decimal(20,8)"`
	CumQty     decimal.Decimal `gorm:"type:decimal(20,8)"`
	RemainQty  decimal.Decimal `gorm:"type:decimal(20,8)"`
	Status     int
	ReceivedAt time.Time `gorm:"index"`
}

// EveryOrderPlaced is a row persisted for every successful place_limit
// call (table: every_order_placed), an append-only audit trail distinct
// from OurOrder's current-state mirror.
type EveryOrderPlaced struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	OrderID   string          `gorm:"index"`
	Side      string
	Size      decimal.Decimal `gorm:"type:decimal(20,8)"`
	Price     decimal.Decimal `gorm:"type:decimal(20,8)"`
	PlacedAt  time.Time       `gorm:"index"`
}

// MarketState is a periodic snapshot row (table: market_states) used for
// post-hoc analysis of the pricing model's behavior over time.
type MarketState struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	Mid       decimal.Decimal `gorm:"type:decimal(20,8)"`
	SpreadPct decimal.Decimal `gorm:"type:decimal(20,8)"`
	Depth     decimal.Decimal `gorm:"type:decimal(20,8)"`
	FairPrice decimal.Decimal `gorm:"type:decimal(20,8)"`
	Inventory decimal.Decimal `gorm:"type:decimal(20,8)"`
	AskQuote  decimal.Decimal `gorm:"type:decimal(20,8)"`
	BidQuote  decimal.Decimal `gorm:"type:decimal(20,8)"`
	Timestamp time.Time       `gorm:"index"`
}

// BookLevelRow is the shared row shape for both order-book snapshot tables.
type BookLevelRow struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"`
	Side       string          `gorm:"index"`
	Price      decimal.Decimal `gorm:"type:decimal(20,8)"`
	Size       decimal.Decimal `gorm:"type:decimal(20,8)"`
	CapturedAt time.Time       `gorm:"index"`
}

// MakerOrderbookRow snapshots the maker venue's public book (table:
// maker_orderbook).
type MakerOrderbookRow struct {
	BookLevelRow
}

func (MakerOrderbookRow) TableName() string { return "maker_orderbook" }

// ReferenceOrderbookRow snapshots the reference venue's public book
// (table: reference_orderbook).
type ReferenceOrderbookRow struct {
	BookLevelRow
}

func (ReferenceOrderbookRow) TableName() string { return "reference_orderbook" }

// OurOrder mirrors the current resting-order ladder (table: our_orders),
// upserted on placement and deleted on cancel/fill so it always reflects
// live ActiveOrders state, unlike the append-only EveryOrderPlaced log.
type OurOrder struct {
	OrderID   string          `gorm:"primaryKey"`
	Side      string
	Price     decimal.Decimal `gorm:"type:decimal(20,8)"`
	Size      decimal.Decimal `gorm:"type:decimal(20,8)"`
	UpdatedAt time.Time
}

// Recorder wraps a gorm.DB and exposes the narrow write surface the control
// loop's venue adapters and supervisor need.
type Recorder struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to Postgres or SQLite depending on the DSN's scheme, and
// auto-migrates every table. A dsn with a postgres://  or postgresql://
// prefix selects the Postgres driver; anything else is treated as a
// SQLite file path and its parent directory is created if missing.
func Open(dsn string, maxOpenConns int, logger *slog.Logger) (*Recorder, error) {
	var db *gorm.DB
	var err error

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("recorder connected", "driver", "postgres")
	} else {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("recorder connected", "driver", "sqlite", "path", dsn)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	if err := db.AutoMigrate(
		&Order{},
		&EveryOrderPlaced{},
		&MarketState{},
		&MakerOrderbookRow{},
		&ReferenceOrderbookRow{},
		&OurOrder{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	return &Recorder{db: db, logger: logger.With("component", "recorder")}, nil
}

// Close releases the underlying connection pool.
func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordFill persists a decoded private-orders-stream fill. Errors are
// logged, not propagated: a recorder failure must never interrupt the
// control loop's reconciliation.
func (r *Recorder) RecordFill(f types.FillEvent) {
	row := Order{
		OrderID:    f.ID,
		Side:       string(f.Side),
		Price:      f.Price,
		CumQty:     f.CumQty,
		RemainQty:  f.RemainQty,
		Status:     int(f.Status),
		ReceivedAt: f.ReceivedAt,
	}
	if row.ReceivedAt.IsZero() {
		row.ReceivedAt = time.Now()
	}
	if err := r.db.Create(&row).Error; err != nil {
		r.logger.Error("record fill failed", "error", err, "order_id", f.ID)
	}

	switch f.Status {
	case types.StatusFullyFilled, types.StatusCanceled, types.StatusRejected:
		if err := r.db.Delete(&OurOrder{}, "order_id = ?", f.ID).Error; err != nil {
			r.logger.Error("clear our_order failed", "error", err, "order_id", f.ID)
		}
	case types.StatusPartiallyFilled:
		if err := r.db.Model(&OurOrder{}).Where("order_id = ?", f.ID).
			Update("size", f.RemainQty).Error; err != nil {
			r.logger.Error("update our_order failed", "error", err, "order_id", f.ID)
		}
	}
}

// RecordPlacement persists both the append-only placement log and the
// live our_orders mirror.
func (r *Recorder) RecordPlacement(orderID string, side types.Side, size, price decimal.Decimal) {
	now := time.Now()
	if err := r.db.Create(&EveryOrderPlaced{
		OrderID:  orderID,
		Side:     string(side),
		Size:     size,
		Price:    price,
		PlacedAt: now,
	}).Error; err != nil {
		r.logger.Error("record placement failed", "error", err, "order_id", orderID)
	}

	row := OurOrder{OrderID: orderID, Side: string(side), Price: price, Size: size, UpdatedAt: now}
	if err := r.db.Save(&row).Error; err != nil {
		r.logger.Error("upsert our_order failed", "error", err, "order_id", orderID)
	}
}

// ClearAll wipes the our_orders mirror, used when the adapter cancels
// every resting order at once and rebuilds the ladder from scratch.
func (r *Recorder) ClearAll() {
	if err := r.db.Exec("DELETE FROM our_orders").Error; err != nil {
		r.logger.Error("clear our_orders failed", "error", err)
	}
}

// RecordMarketState persists a periodic pricing snapshot.
func (r *Recorder) RecordMarketState(snap types.MarketSnapshot) {
	row := MarketState{
		Mid:       snap.Mid,
		SpreadPct: snap.SpreadPct,
		Depth:     snap.Depth,
		FairPrice: snap.FairPrice,
		Inventory: snap.Inventory,
		AskQuote:  snap.AskQuote,
		BidQuote:  snap.BidQuote,
		Timestamp: snap.Timestamp,
	}
	if row.Timestamp.IsZero() {
		row.Timestamp = time.Now()
	}
	if err := r.db.Create(&row).Error; err != nil {
		r.logger.Error("record market state failed", "error", err)
	}
}

// RecordMakerBook persists a snapshot of the maker venue's public book.
func (r *Recorder) RecordMakerBook(book types.OrderBook) {
	r.recordBook(book, "maker_orderbook")
}

// RecordReferenceBook persists a snapshot of the reference venue's public
// book.
func (r *Recorder) RecordReferenceBook(book types.OrderBook) {
	r.recordBook(book, "reference_orderbook")
}

func (r *Recorder) recordBook(book types.OrderBook, table string) {
	now := time.Now()
	rows := make([]BookLevelRow, 0, len(book.Asks)+len(book.Bids))
	for _, l := range book.Asks {
		rows = append(rows, BookLevelRow{Side: "ask", Price: l.Price, Size: l.Size, CapturedAt: now})
	}
	for _, l := range book.Bids {
		rows = append(rows, BookLevelRow{Side: "bid", Price: l.Price, Size: l.Size, CapturedAt: now})
	}
	if len(rows) == 0 {
		return
	}
	if err := r.db.Table(table).Create(&rows).Error; err != nil {
		r.logger.Error("record book snapshot failed", "error", err, "table", table)
	}
}
