// Package supervisor wires every component together, owns the event loop,
// the two periodic reset timers, and the Booting → Running → Draining →
// Halted lifecycle.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"ladder-mm/internal/config"
	"ladder-mm/internal/depth"
	"ladder-mm/internal/eventbus"
	"ladder-mm/internal/ladder"
	"ladder-mm/internal/maker"
	"ladder-mm/internal/pricer"
	"ladder-mm/internal/recorder"
	"ladder-mm/internal/reference"
	"ladder-mm/pkg/types"
)

// State enumerates the lifecycle's states.
type State int32

const (
	Booting State = iota
	Running
	Draining
	Halted
)

func (s State) String() string {
	switch s {
	case Booting:
		return "booting"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// Supervisor owns every long-running task and the components they drive.
type Supervisor struct {
	cfg    *config.Config
	logger *slog.Logger

	state atomic.Int32

	makerClient *maker.Client
	makerAuth   *maker.Auth
	makerAdapt  *maker.Adapter
	refAdapt    *reference.Adapter
	rec         *recorder.Recorder

	bus          *eventbus.Bus
	ladderMgr    *ladder.Manager
	depthMgr     *depth.Manager

	wg     sync.WaitGroup
	cancel context.CancelFunc

	// OnFill, if set, is called synchronously from the event loop for every
	// fill the maker venue reports — the optional dashboard server uses it
	// to push fill notifications without becoming a second bus consumer.
	OnFill func(types.FillEvent)
}

// New wires every component from cfg. It does not start anything; call
// Boot then Run.
func New(cfg *config.Config, logger *slog.Logger) (*Supervisor, error) {
	rec, err := recorder.Open(cfg.DB.DSN, cfg.DB.MaxOpenConns, logger)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(cfg.Strategy.EventBusCapacity)

	auth := maker.NewAuth(cfg.Maker.APIKey, cfg.Maker.Secret)
	client := maker.NewClient(cfg.Maker.RESTBaseURL, auth, cfg.DryRun, logger)
	makerAdapt := maker.New(cfg.Pair, client, bus, rec, logger)

	refAdapt := reference.New(cfg.Pair, cfg.Reference.RESTBaseURL, bus, logger)

	ladderMgr := ladder.New(makerAdapt, cfg.Strategy.NAsks, cfg.Strategy.NBids,
		cfg.Strategy.BaseAsset, cfg.Strategy.QuoteAsset, logger)
	depthMgr := depth.New(makerAdapt, cfg.Strategy.BaseAsset, cfg.Strategy.QuoteAsset,
		decimal.NewFromFloat(cfg.Strategy.ExpectedDepthMin), logger)

	s := &Supervisor{
		cfg:         cfg,
		logger:      logger.With("component", "supervisor"),
		makerClient: client,
		makerAuth:   auth,
		makerAdapt:  makerAdapt,
		refAdapt:    refAdapt,
		rec:         rec,
		bus:         bus,
		ladderMgr:   ladderMgr,
		depthMgr:    depthMgr,
	}
	s.state.Store(int32(Booting))
	return s, nil
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// MakerBook, ReferenceBook, ActiveOrders, Balances, and AmountBoughtSold
// implement api.StateProvider, the read-only view the optional dashboard
// server polls. None of them are consulted by the reconciliation logic
// itself, which always reads through the adapters directly.

func (s *Supervisor) MakerBook() types.OrderBook          { return s.makerAdapt.OrderBook() }
func (s *Supervisor) ReferenceBook() types.OrderBook      { return s.refAdapt.OrderBook() }
func (s *Supervisor) ActiveOrders() types.ActiveOrders    { return s.makerAdapt.ActiveOrders() }
func (s *Supervisor) Balances() types.Balances            { return s.makerAdapt.Balances() }
func (s *Supervisor) AmountBoughtSold() (bought, sold decimal.Decimal) {
	return s.makerAdapt.AmountBoughtSold()
}

// Boot cancels all existing maker orders, creates the listen key, starts
// every streaming task, and waits for the initial balance snapshot before
// returning. ctx governs the whole run's lifetime; Boot derives a child
// context it keeps for Drain.
func (s *Supervisor) Boot(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if err := s.makerAdapt.CancelAll(runCtx); err != nil {
		s.logger.Warn("boot cancel_all failed", "error", err)
	}

	if err := s.makerAdapt.FetchInitialBalances(runCtx); err != nil {
		return err
	}

	listenKey, err := s.makerClient.CreateListenKey(runCtx)
	if err != nil {
		s.logger.Warn("create_listen_key failed, private streams may not authenticate", "error", err)
	}

	s.wg.Add(4)
	go s.runTask("maker-depth-stream", func() { s.makerAdapt.RunDepthStream(runCtx, s.cfg.Maker.WSURL+"/depth") })
	go s.runTask("maker-orders-stream", func() { s.makerAdapt.RunPrivateOrdersStream(runCtx, s.cfg.Maker.WSURL+"/orders?listenKey="+listenKey) })
	go s.runTask("maker-account-stream", func() { s.makerAdapt.RunBalanceStream(runCtx, s.cfg.Maker.WSURL+"/account?listenKey="+listenKey) })
	go s.runTask("reference-depth-stream", func() { s.refAdapt.RunDepthStream(runCtx) })

	s.wg.Add(3)
	go s.runTask("ladder-reset-timer", func() { s.runLadderResetTimer(runCtx) })
	go s.runTask("counter-reset-timer", func() { s.runCounterResetTimer(runCtx) })
	go s.runTask("listen-key-renewal", func() { s.runListenKeyRenewal(runCtx, listenKey) })

	s.state.Store(int32(Running))
	s.logger.Info("boot complete")
	return nil
}

func (s *Supervisor) runTask(name string, fn func()) {
	defer s.wg.Done()
	s.logger.Info("task started", "task", name)
	fn()
	s.logger.Info("task stopped", "task", name)
}

// Run drains the event bus until its channel closes (Drain closes it).
func (s *Supervisor) Run(ctx context.Context) {
	for ev := range s.bus.Events() {
		s.handleEvent(ctx, ev)
	}
}

// handleEvent dispatches one event. Every handler runs inside a
// catch-all recover so a single bad event can never crash the loop.
func (s *Supervisor) handleEvent(ctx context.Context, ev types.QuoteEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event handler panicked, continuing", "recovered", r)
		}
	}()

	switch ev.Kind {
	case types.KindDepthUpdate:
		s.reconcile(ctx)
		if ev.Venue == types.VenueMaker {
			s.depthMgr.Reconcile(ctx, s.makerAdapt.OrderBook(), s.makerAdapt.Balances())
		}
	case types.KindOrderFill:
		s.reconcile(ctx)
		if s.OnFill != nil {
			s.OnFill(ev.Fill)
		}
	}
}

func (s *Supervisor) reconcile(ctx context.Context) {
	makerBook := s.makerAdapt.OrderBook()
	refBook := s.refAdapt.OrderBook()
	balances := s.makerAdapt.Balances()

	s.rec.RecordMakerBook(makerBook)
	s.rec.RecordReferenceBook(refBook)

	askQ, bidQ, ok := pricer.Quotes(makerBook, refBook, balances, s.cfg.Strategy.BaseAsset)
	if !ok {
		return
	}
	mid, ok := makerBook.Mid()
	if !ok {
		return
	}

	spread, _ := pricer.MarketSpread(makerBook)
	depth := pricer.MarketDepth(makerBook, decimal.NewFromInt(2))
	fairPrice, _ := pricer.FairPrice(makerBook, refBook, decimal.NewFromInt(2))
	base := balances[s.cfg.Strategy.BaseAsset]

	s.rec.RecordMarketState(types.MarketSnapshot{
		Mid:       mid,
		SpreadPct: spread,
		Depth:     depth,
		FairPrice: fairPrice,
		Inventory: base.Total(),
		AskQuote:  askQ,
		BidQuote:  bidQ,
		Timestamp: time.Now(),
	})

	s.ladderMgr.Reconcile(ctx, makerBook, refBook, askQ, bidQ, mid, balances)
}

func (s *Supervisor) runLadderResetTimer(ctx context.Context) {
	t := time.NewTicker(s.cfg.Strategy.LadderResetInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.logger.Info("ladder reset firing")
			if err := s.makerAdapt.CancelAll(ctx); err != nil {
				s.logger.Warn("ladder reset cancel_all failed", "error", err)
			}
		}
	}
}

func (s *Supervisor) runCounterResetTimer(ctx context.Context) {
	t := time.NewTicker(s.cfg.Strategy.CounterResetInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.makerAdapt.ResetCounters()
		}
	}
}

func (s *Supervisor) runListenKeyRenewal(ctx context.Context, listenKey string) {
	if listenKey == "" {
		return
	}
	t := time.NewTicker(s.cfg.Strategy.ListenKeyRenewal)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.makerClient.RenewListenKey(ctx, listenKey); err != nil {
				s.logger.Warn("listen key renewal failed", "error", err)
			}
		}
	}
}

// Drain is triggered by SIGINT: cancel all orders, stop every task, close
// the DB, and transition to Halted.
func (s *Supervisor) Drain(ctx context.Context) {
	s.state.Store(int32(Draining))
	s.logger.Info("draining")

	cancelCtx, cancelTimeout := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelTimeout()
	if err := s.makerAdapt.CancelAll(cancelCtx); err != nil {
		s.logger.Warn("drain cancel_all failed", "error", err)
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.bus.Close()
	s.wg.Wait()

	if err := s.rec.Close(); err != nil {
		s.logger.Warn("recorder close failed", "error", err)
	}

	s.state.Store(int32(Halted))
	s.logger.Info("halted")
}
