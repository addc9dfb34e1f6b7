package order

import (
	"strings"
	"time"

	"order_desk/internal/domain"
)

const (
	// DefaultRecvWindow is how stale a request timestamp may be before the exchange rejects it.
	DefaultRecvWindow = 5000 * time.Millisecond
	// MaxRecvWindow is the largest window the exchange accepts.
	MaxRecvWindow = 60000 * time.Millisecond
)

// Build validates spec and maps it to the request variant for its kind.
// It is pure: the same spec always yields an equal request.
func Build(spec domain.OrderSpec) (domain.OrderRequest, error) {
	return BuildWithWindow(spec, DefaultRecvWindow)
}

// BuildWithWindow is Build with a configured recvWindow.
// Windows outside (0, MaxRecvWindow] fall back to DefaultRecvWindow.
func BuildWithWindow(spec domain.OrderSpec, window time.Duration) (domain.OrderRequest, error) {
	if window <= 0 || window > MaxRecvWindow {
		window = DefaultRecvWindow
	}

	symbol := strings.ToUpper(strings.TrimSpace(spec.Symbol))
	if symbol == "" {
		return nil, invalid("symbol", domain.ErrEmptySymbol)
	}

	side := domain.Side(strings.ToUpper(strings.TrimSpace(string(spec.Side))))
	if !side.Valid() {
		return nil, invalid("side", domain.ErrUnknownSide)
	}

	if !spec.Quantity.IsPositive() {
		return nil, invalid("quantity", domain.ErrNonPositiveQuantity)
	}

	base := domain.OrderBase{
		Symbol:     symbol,
		Side:       side,
		Quantity:   spec.Quantity,
		RecvWindow: window,
	}

	switch domain.OrderKind(strings.ToUpper(strings.TrimSpace(string(spec.Kind)))) {
	case domain.KindMarket:
		return domain.MarketRequest{OrderBase: base}, nil

	case domain.KindLimit:
		if !spec.Price.IsPositive() {
			return nil, invalid("price", domain.ErrMissingPrice)
		}
		return domain.LimitRequest{
			OrderBase:   base,
			Price:       spec.Price,
			TimeInForce: domain.TimeInForceGTC,
		}, nil

	case domain.KindStop:
		if !spec.Price.IsPositive() {
			return nil, invalid("price", domain.ErrMissingPrice)
		}
		if !spec.StopPrice.IsPositive() {
			return nil, invalid("stop_price", domain.ErrMissingStopPrice)
		}
		return domain.StopRequest{
			OrderBase:   base,
			Price:       spec.Price,
			StopPrice:   spec.StopPrice,
			TimeInForce: domain.TimeInForceGTC,
		}, nil

	default:
		return nil, invalid("type", domain.ErrUnknownOrderType)
	}
}

func invalid(field string, err error) error {
	return &domain.ValidationError{Field: field, Err: err}
}
