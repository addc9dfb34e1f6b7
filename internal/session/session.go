package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"order_desk/internal/clock"
	"order_desk/internal/domain"
	"order_desk/internal/execution"
	"order_desk/internal/infra"
	"order_desk/internal/order"
)

var errNoSymbols = errors.New("exchange returned no trading symbols")

// Options tune a Session.
type Options struct {
	RecvWindow    time.Duration
	AllowDegraded bool          // continue with a zero offset when time sync fails
	ClockMaxAge   time.Duration // refresh a resolved offset older than this; 0 = never
	Now           func() time.Time
	NewID         func() string
	Logger        *zap.Logger
}

// OptionsFromConfig maps the config sections onto Options.
func OptionsFromConfig(cfg *infra.Config, logger *zap.Logger) Options {
	return Options{
		RecvWindow:    cfg.RecvWindow(),
		AllowDegraded: cfg.Clock.AllowDegraded,
		ClockMaxAge:   cfg.ClockMaxAge(),
		Logger:        logger,
	}
}

// Session owns everything one operator connection needs:
// the gateway, the active symbol set and the clock offset.
type Session struct {
	mu sync.Mutex

	gw       domain.Gateway
	opts     Options
	resolver *clock.Resolver
	logger   *zap.Logger

	symbols    map[string]bool
	symbolList []string
	connected  bool
	degraded   bool
}

// New creates an unconnected session on gw.
func New(gw domain.Gateway, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.RecvWindow <= 0 {
		opts.RecvWindow = order.DefaultRecvWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		gw:       gw,
		opts:     opts,
		resolver: clock.NewResolver(),
		logger:   logger.Named("session"),
		symbols:  make(map[string]bool),
	}
}

// Open creates a gateway for creds and connects a session on it.
func Open(ctx context.Context, factory *execution.GatewayFactory, creds execution.Credentials, opts Options) (*Session, error) {
	gw, err := factory.Create(creds)
	if err != nil {
		return nil, err
	}
	s := New(gw, opts)
	if err := s.Connect(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Connect loads the active symbols and resolves the clock offset.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbols, err := s.gw.ListSymbols(ctx)
	if err != nil {
		return &domain.ConnectionError{Op: "list_symbols", Err: err}
	}
	if len(symbols) == 0 {
		return &domain.ConnectionError{Op: "list_symbols", Err: errNoSymbols}
	}

	offset, err := s.resolver.Resolve(ctx, s.opts.Now, s.gw.ServerTime)
	if err != nil {
		if !s.opts.AllowDegraded {
			return err
		}
		s.degraded = true
		s.logger.Warn("clock offset unavailable, continuing with zero offset", zap.Error(err))
	}

	s.symbols = make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		s.symbols[sym] = true
	}
	s.symbolList = symbols
	s.connected = true

	s.logger.Info("connected",
		zap.Int("symbols", len(symbols)),
		zap.Int64("offsetMs", int64(offset)),
		zap.Bool("degraded", s.degraded),
	)
	return nil
}

// PlaceOrder validates spec, stamps it with the venue clock and submits it once.
func (s *Session) PlaceOrder(ctx context.Context, spec domain.OrderSpec) (*domain.OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, &domain.ConnectionError{Op: "place_order", Err: domain.ErrNotConnected}
	}

	req, err := order.BuildWithWindow(spec, s.opts.RecvWindow)
	if err != nil {
		return nil, err
	}
	if !s.symbols[req.Base().Symbol] {
		return nil, &domain.ValidationError{Field: "symbol", Err: domain.ErrUnknownSymbol}
	}

	s.refreshIfStale(ctx)

	sub := domain.Submission{
		Request:       req,
		ClientOrderID: s.opts.NewID(),
		Timestamp:     s.resolver.Offset().Apply(s.opts.Now()),
	}

	res, err := s.gw.SubmitOrder(ctx, sub)
	if err != nil {
		s.logger.Warn("order rejected",
			zap.String("symbol", req.Base().Symbol),
			zap.String("type", string(req.Type())),
			zap.String("clientOrderId", sub.ClientOrderID),
			zap.Error(err),
		)
		return nil, &domain.SubmissionError{Err: err}
	}

	s.logger.Info("order placed",
		zap.Int64("orderId", res.OrderID),
		zap.String("symbol", res.Symbol),
		zap.String("side", string(res.Side)),
		zap.String("type", string(res.Type)),
		zap.String("status", res.Status),
	)
	return res, nil
}

// Resync re-measures the clock offset on demand.
func (s *Session) Resync(ctx context.Context) (clock.Offset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Refresh(ctx, s.opts.Now, s.gw.ServerTime)
}

func (s *Session) refreshIfStale(ctx context.Context) {
	if !s.resolver.Stale(s.opts.Now(), s.opts.ClockMaxAge) {
		return
	}
	offset, err := s.resolver.Refresh(ctx, s.opts.Now, s.gw.ServerTime)
	if err != nil {
		s.logger.Warn("clock refresh failed, keeping previous offset", zap.Int64("offsetMs", int64(offset)), zap.Error(err))
		return
	}
	s.logger.Debug("clock offset refreshed", zap.Int64("offsetMs", int64(offset)))
}

// Symbols returns the active symbol set captured at connect time.
func (s *Session) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.symbolList...)
}

// Connected reports whether Connect succeeded.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Degraded reports whether orders are stamped without a clock offset.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Offset returns the offset applied to outgoing timestamps.
func (s *Session) Offset() clock.Offset {
	return s.resolver.Offset()
}

// ClockState returns the resolver state.
func (s *Session) ClockState() clock.State {
	return s.resolver.State()
}

// Close disconnects and wipes the gateway's credentials.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false
	if c, ok := s.gw.(domain.Closer); ok {
		return c.Close()
	}
	return nil
}
