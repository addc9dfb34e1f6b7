package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is one of the exchange sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderKind is what the operator picked in the order form.
// Unknown values are representable on purpose; the builder rejects them.
type OrderKind string

const (
	KindMarket OrderKind = "MARKET"
	KindLimit  OrderKind = "LIMIT"
	KindStop   OrderKind = "STOP"
)

// OrderType is the exchange-side order type sent on the wire.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
)

// TimeInForce of a resting order. Only GTC is produced.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
)

// OrderSpec is the raw order as entered by the operator.
// A zero Price or StopPrice means the field was left empty.
type OrderSpec struct {
	Symbol    string
	Side      Side
	Kind      OrderKind
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	StopPrice decimal.Decimal
}

// OrderRequest is a validated, exchange-ready order.
// Exactly one of MarketRequest, LimitRequest or StopRequest.
type OrderRequest interface {
	Base() OrderBase
	Type() OrderType
	sealed()
}

// OrderBase holds the fields every order kind carries.
type OrderBase struct {
	Symbol     string
	Side       Side
	Quantity   decimal.Decimal
	RecvWindow time.Duration
}

// MarketRequest executes immediately at the best available price.
type MarketRequest struct {
	OrderBase
}

// LimitRequest rests at Price or better.
type LimitRequest struct {
	OrderBase
	Price       decimal.Decimal
	TimeInForce TimeInForce
}

// StopRequest becomes a limit order at Price once StopPrice is crossed.
type StopRequest struct {
	OrderBase
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
}

func (r MarketRequest) Base() OrderBase { return r.OrderBase }
func (r LimitRequest) Base() OrderBase  { return r.OrderBase }
func (r StopRequest) Base() OrderBase   { return r.OrderBase }

func (MarketRequest) Type() OrderType { return OrderTypeMarket }
func (LimitRequest) Type() OrderType  { return OrderTypeLimit }
func (StopRequest) Type() OrderType   { return OrderTypeStop }

func (MarketRequest) sealed() {}
func (LimitRequest) sealed()  {}
func (StopRequest) sealed()   {}

// Submission is a built request stamped for a single send.
// Timestamp must already be corrected by the session's clock offset.
type Submission struct {
	Request       OrderRequest
	ClientOrderID string
	Timestamp     time.Time
}

// OrderResult is the exchange's acknowledgement of a submitted order.
type OrderResult struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          Side
	Type          OrderType
	Status        string // "NEW", "PARTIALLY_FILLED", "FILLED", "CANCELED", ...
	Price         decimal.Decimal
	StopPrice     decimal.Decimal
	AvgPrice      decimal.Decimal
	OrigQty       decimal.Decimal
	ExecutedQty   decimal.Decimal
	TimeInForce   TimeInForce
	UpdateTime    time.Time
}

// IsOpen checks if the order is still active.
func (o *OrderResult) IsOpen() bool {
	return o.Status == "NEW" || o.Status == "PARTIALLY_FILLED"
}
