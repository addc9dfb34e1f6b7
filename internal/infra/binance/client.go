package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"order_desk/internal/domain"
	"order_desk/internal/infra"
)

// Client handles Binance USDⓈ-M Futures REST communication.
type Client struct {
	baseURL    string
	signer     *Signer
	httpClient *http.Client
	limiters   infra.ExchangeLimiters
	logger     *zap.Logger
}

var _ domain.Gateway = (*Client)(nil)

// NewClient creates a REST client for the configured endpoint.
func NewClient(cfg *infra.Config, signer *Signer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Exchange.RestURL, "/"),
		signer:     signer,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout()},
		limiters:   infra.NewExchangeLimiters(cfg),
		logger:     logger.Named("binance"),
	}
}

// ServerTime returns the exchange clock.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	var resp serverTimeResponse
	if err := c.do(ctx, http.MethodGet, pathServerTime, nil, false, &resp); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(resp.ServerTime), nil
}

// ListSymbols returns the sorted symbols whose status is TRADING.
func (c *Client) ListSymbols(ctx context.Context) ([]string, error) {
	var resp exchangeInfoResponse
	if err := c.do(ctx, http.MethodGet, pathExchangeInfo, nil, false, &resp); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.Status == symbolStatusTrading {
			symbols = append(symbols, s.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// SubmitOrder places a single order. The request is signed with sub.Timestamp.
func (c *Client) SubmitOrder(ctx context.Context, sub domain.Submission) (*domain.OrderResult, error) {
	if c.signer == nil {
		return nil, domain.ErrMissingCredentials
	}

	params, err := orderParams(sub)
	if err != nil {
		return nil, err
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, pathOrder, params, true, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("order accepted",
		zap.Int64("orderId", resp.OrderID),
		zap.String("symbol", resp.Symbol),
		zap.String("status", resp.Status),
	)
	return resp.toResult(), nil
}

// Close wipes the credentials.
func (c *Client) Close() error {
	c.signer.Wipe()
	return nil
}

// orderParams encodes a request variant into exchange parameters.
func orderParams(sub domain.Submission) (url.Values, error) {
	if sub.Request == nil {
		return nil, fmt.Errorf("empty order request")
	}
	base := sub.Request.Base()

	params := url.Values{}
	params.Set("symbol", base.Symbol)
	params.Set("side", string(base.Side))
	params.Set("type", string(sub.Request.Type()))
	params.Set("quantity", base.Quantity.String())
	params.Set("newOrderRespType", "RESULT")

	switch r := sub.Request.(type) {
	case domain.MarketRequest:
	case domain.LimitRequest:
		params.Set("price", r.Price.String())
		params.Set("timeInForce", string(r.TimeInForce))
	case domain.StopRequest:
		params.Set("price", r.Price.String())
		params.Set("stopPrice", r.StopPrice.String())
		params.Set("timeInForce", string(r.TimeInForce))
	default:
		return nil, fmt.Errorf("unsupported order request %T", sub.Request)
	}

	if sub.ClientOrderID != "" {
		params.Set("newClientOrderId", sub.ClientOrderID)
	}
	params.Set("recvWindow", strconv.FormatInt(base.RecvWindow.Milliseconds(), 10))
	params.Set("timestamp", strconv.FormatInt(sub.Timestamp.UnixMilli(), 10))
	return params, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	limiter := c.limiters.Market
	if signed {
		limiter = c.limiters.Order
	}
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	payload := ""
	if params != nil {
		payload = params.Encode()
	}
	if signed {
		sig := c.signer.Sign(payload)
		if payload != "" {
			payload += "&"
		}
		payload += "signature=" + sig
	}

	endpoint := c.baseURL + path
	var body io.Reader
	if method == http.MethodGet {
		if payload != "" {
			endpoint += "?" + payload
		}
	} else {
		body = strings.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", infra.AppName)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if signed {
		req.Header.Set(headerAPIKey, c.signer.APIKey())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("exchange call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	apiErr := &domain.APIError{Status: status}
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Msg == "" {
		apiErr.Msg = strings.TrimSpace(string(data))
		if apiErr.Msg == "" {
			apiErr.Msg = http.StatusText(status)
		}
	}
	return apiErr
}

func (r *orderResponse) toResult() *domain.OrderResult {
	res := &domain.OrderResult{
		OrderID:       r.OrderID,
		ClientOrderID: r.ClientOrderID,
		Symbol:        r.Symbol,
		Side:          domain.Side(r.Side),
		Type:          domain.OrderType(r.Type),
		Status:        r.Status,
		Price:         r.Price,
		StopPrice:     r.StopPrice,
		AvgPrice:      r.AvgPrice,
		OrigQty:       r.OrigQty,
		ExecutedQty:   r.ExecutedQty,
		TimeInForce:   domain.TimeInForce(r.TimeInForce),
	}
	if r.UpdateTime > 0 {
		res.UpdateTime = time.UnixMilli(r.UpdateTime)
	}
	return res
}
