package execution

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order_desk/internal/domain"
)

// Fill represents a simulated order fill.
type Fill struct {
	OrderID int64
	Symbol  string
	Side    domain.Side
	Price   decimal.Decimal
	Qty     decimal.Decimal
	Time    time.Time
}

// PaperGateway simulates the exchange without network access.
// MARKET orders fill at the mark price; LIMIT and STOP orders rest as NEW.
type PaperGateway struct {
	mu      sync.Mutex
	symbols map[string]bool
	prices  map[string]decimal.Decimal
	orders  map[int64]*domain.OrderResult
	fills   []Fill
	nextID  int64
	now     func() time.Time
	logger  *zap.Logger
}

var _ domain.Gateway = (*PaperGateway)(nil)

// NewPaperGateway creates a paper venue trading the given symbols.
func NewPaperGateway(symbols []string, logger *zap.Logger) *PaperGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = true
	}
	return &PaperGateway{
		symbols: set,
		prices:  make(map[string]decimal.Decimal),
		orders:  make(map[int64]*domain.OrderResult),
		nextID:  1,
		now:     time.Now,
		logger:  logger.Named("paper"),
	}
}

// UpdatePrice sets the mark price used to fill MARKET orders.
func (p *PaperGateway) UpdatePrice(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[strings.ToUpper(symbol)] = price
}

// ListSymbols returns the configured symbols, sorted.
func (p *PaperGateway) ListSymbols(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.symbols))
	for s := range p.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// ServerTime is the local clock; a paper venue has no drift.
func (p *PaperGateway) ServerTime(ctx context.Context) (time.Time, error) {
	return p.now(), nil
}

// SubmitOrder books the order against the paper venue.
func (p *PaperGateway) SubmitOrder(ctx context.Context, sub domain.Submission) (*domain.OrderResult, error) {
	if sub.Request == nil {
		return nil, fmt.Errorf("empty order request")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	base := sub.Request.Base()
	if !p.symbols[base.Symbol] {
		return nil, &domain.APIError{Status: 400, Code: -1121, Msg: "Invalid symbol."}
	}

	now := p.now()
	res := &domain.OrderResult{
		OrderID:       p.nextID,
		ClientOrderID: sub.ClientOrderID,
		Symbol:        base.Symbol,
		Side:          base.Side,
		Type:          sub.Request.Type(),
		Status:        "NEW",
		OrigQty:       base.Quantity,
		ExecutedQty:   decimal.Zero,
		AvgPrice:      decimal.Zero,
		UpdateTime:    now,
	}

	switch r := sub.Request.(type) {
	case domain.MarketRequest:
		price, ok := p.prices[base.Symbol]
		if !ok {
			return nil, &domain.APIError{Status: 400, Code: -2010, Msg: fmt.Sprintf("no mark price for %s", base.Symbol)}
		}
		res.Status = "FILLED"
		res.ExecutedQty = base.Quantity
		res.AvgPrice = price
		p.fills = append(p.fills, Fill{
			OrderID: res.OrderID,
			Symbol:  base.Symbol,
			Side:    base.Side,
			Price:   price,
			Qty:     base.Quantity,
			Time:    now,
		})
	case domain.LimitRequest:
		res.Price = r.Price
		res.TimeInForce = r.TimeInForce
	case domain.StopRequest:
		res.Price = r.Price
		res.StopPrice = r.StopPrice
		res.TimeInForce = r.TimeInForce
	}

	p.nextID++
	p.orders[res.OrderID] = res

	p.logger.Info("paper order booked",
		zap.Int64("orderId", res.OrderID),
		zap.String("symbol", res.Symbol),
		zap.String("side", string(res.Side)),
		zap.String("type", string(res.Type)),
		zap.String("status", res.Status),
	)

	out := *res
	return &out, nil
}

// Fills returns all executed fills.
func (p *PaperGateway) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]Fill, len(p.fills))
	copy(result, p.fills)
	return result
}

// Order returns a booked order by id.
func (p *PaperGateway) Order(id int64) (domain.OrderResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[id]
	if !ok {
		return domain.OrderResult{}, false
	}
	return *o, true
}
