package binance

import (
	"github.com/shopspring/decimal"
)

const (
	pathServerTime   = "/fapi/v1/time"
	pathExchangeInfo = "/fapi/v1/exchangeInfo"
	pathOrder        = "/fapi/v1/order"

	headerAPIKey = "X-MBX-APIKEY"

	symbolStatusTrading = "TRADING"
)

type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

type exchangeInfoResponse struct {
	ServerTime int64        `json:"serverTime"`
	Symbols    []symbolInfo `json:"symbols"`
}

type symbolInfo struct {
	Symbol       string `json:"symbol"`
	Status       string `json:"status"`
	ContractType string `json:"contractType"`
	BaseAsset    string `json:"baseAsset"`
	QuoteAsset   string `json:"quoteAsset"`
}

// orderResponse is the body of POST /fapi/v1/order.
type orderResponse struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Status        string          `json:"status"`
	Side          string          `json:"side"`
	Type          string          `json:"type"`
	TimeInForce   string          `json:"timeInForce"`
	Price         decimal.Decimal `json:"price"`
	StopPrice     decimal.Decimal `json:"stopPrice"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	OrigQty       decimal.Decimal `json:"origQty"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	UpdateTime    int64           `json:"updateTime"`
}
