package order

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"order_desk/internal/domain"
)

// RawSpec is an order as typed into a form or CLI flags.
type RawSpec struct {
	Symbol    string `schema:"symbol" json:"symbol"`
	Side      string `schema:"side" json:"side"`
	Type      string `schema:"type" json:"type"`
	Quantity  string `schema:"quantity" json:"quantity"`
	Price     string `schema:"price" json:"price"`
	StopPrice string `schema:"stop_price" json:"stopPrice"`
}

// UnmarshalJSON accepts quantity and prices as JSON numbers or strings.
// Number literals are kept as written so no precision is lost.
func (r *RawSpec) UnmarshalJSON(data []byte) error {
	var wire struct {
		Symbol    string      `json:"symbol"`
		Side      string      `json:"side"`
		Type      string      `json:"type"`
		Quantity  decimalText `json:"quantity"`
		Price     decimalText `json:"price"`
		StopPrice decimalText `json:"stopPrice"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = RawSpec{
		Symbol:    wire.Symbol,
		Side:      wire.Side,
		Type:      wire.Type,
		Quantity:  string(wire.Quantity),
		Price:     string(wire.Price),
		StopPrice: string(wire.StopPrice),
	}
	return nil
}

// decimalText is the raw text of a JSON number or string.
type decimalText string

func (d *decimalText) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = decimalText(s)
		return nil
	}
	*d = decimalText(data)
	return nil
}

// ParseSpec converts raw strings into an OrderSpec.
// Blank numbers are treated as absent; the builder decides whether they were required.
func ParseSpec(raw RawSpec) (domain.OrderSpec, error) {
	qty, err := parseDecimal("quantity", raw.Quantity)
	if err != nil {
		return domain.OrderSpec{}, err
	}
	price, err := parseDecimal("price", raw.Price)
	if err != nil {
		return domain.OrderSpec{}, err
	}
	stop, err := parseDecimal("stop_price", raw.StopPrice)
	if err != nil {
		return domain.OrderSpec{}, err
	}

	return domain.OrderSpec{
		Symbol:    raw.Symbol,
		Side:      domain.Side(raw.Side),
		Kind:      domain.OrderKind(raw.Type),
		Quantity:  qty,
		Price:     price,
		StopPrice: stop,
	}, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &domain.ValidationError{Field: field, Err: domain.ErrInvalidNumber}
	}
	return d, nil
}
