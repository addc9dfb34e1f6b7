package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order_desk/internal/domain"
	"order_desk/internal/execution"
	"order_desk/internal/infra"
	"order_desk/internal/session"
)

type fixture struct {
	server *Server
	gw     *execution.MockGateway
	creds  []execution.Credentials
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{gw: execution.NewMockGateway("BTCUSDT", "ETHUSDT")}
	f.gw.Time = time.Now()

	cfg := infra.DefaultConfig()
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	connect := func(ctx context.Context, creds execution.Credentials) (*session.Session, error) {
		f.creds = append(f.creds, creds)
		if creds.APIKey == "" {
			return nil, &domain.ConnectionError{Op: "credentials", Err: domain.ErrMissingCredentials}
		}
		s := session.New(f.gw, session.Options{AllowDegraded: true})
		if err := s.Connect(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	f.server = NewServer(cfg, connect, nil)
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	rec := f.postForm("/connect", url.Values{"api_key": {" key "}, "api_secret": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestIndex_ShowsConnectFormWhenDisconnected(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/connect"`)
	assert.NotContains(t, rec.Body.String(), `action="/orders"`)
}

func TestConnect_TrimsCredentialsAndShowsOrderForm(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	require.Len(t, f.creds, 1)
	assert.Equal(t, "key", f.creds[0].APIKey)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `action="/orders"`)
	assert.Contains(t, body, `<option value="ETHUSDT">ETHUSDT</option>`)
}

func TestConnect_FailureRendersError(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm("/connect", url.Values{"api_secret": {"secret"}})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-kind="connection"`)
	assert.Contains(t, rec.Body.String(), "api key and secret are required")
}

func TestPlaceOrderForm(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	rec := f.postForm("/orders", url.Values{
		"symbol":   {"BTCUSDT"},
		"side":     {"BUY"},
		"type":     {"LIMIT"},
		"quantity": {"0.01"},
		"price":    {"65000"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="result"`)
	assert.Contains(t, rec.Body.String(), "<td>executedQty</td>")

	require.Len(t, f.gw.Submissions, 1)
	lr, ok := f.gw.Submissions[0].Request.(domain.LimitRequest)
	require.True(t, ok)
	assert.Equal(t, "65000", lr.Price.String())
}

func TestPlaceOrderForm_ValidationError(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	rec := f.postForm("/orders", url.Values{
		"symbol":   {"BTCUSDT"},
		"side":     {"SELL"},
		"type":     {"STOP"},
		"quantity": {"1"},
		"price":    {"60000"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "stop price is required")
	// The entered values are kept.
	assert.Contains(t, rec.Body.String(), `value="60000"`)
	assert.Empty(t, f.gw.Submissions)
}

func TestAPI_PlaceOrder(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	body := `{"symbol":"ethusdt","side":"sell","type":"market","quantity":"2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ETHUSDT", resp.Symbol)
	assert.Equal(t, "SELL", resp.Side)
	assert.Equal(t, "MARKET", resp.Type)
	assert.Equal(t, "2", resp.OrigQty.String())
}

func TestAPI_ErrorMapping(t *testing.T) {
	f := newFixture(t)

	// Not connected.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	rec := f.do(req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	f.connect(t)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"symbol":"BTCUSDT","side":"BUY","type":"MARKET","quantity":"abc"}`))
	rec = f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Equal(t, "validation", er.Error)

	f.gw.SubmitErr = &domain.APIError{Status: 400, Code: -2019, Msg: "Margin is insufficient."}
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"symbol":"BTCUSDT","side":"BUY","type":"MARKET","quantity":"1"}`))
	rec = f.do(req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Equal(t, "submission", er.Error)
	assert.Contains(t, er.Message, "Margin is insufficient.")
}

func TestAPI_SymbolsAndClock(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	f.connect(t)
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"symbols":["BTCUSDT","ETHUSDT"]}`, rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/clock", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"RESOLVED"`)
}

func TestHealthAndDisconnect(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","mode":"TESTNET","connected":true}`, rec.Body.String())

	rec = f.postForm("/disconnect", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, f.gw.Closed)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","mode":"TESTNET","connected":false}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := f.do(req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = f.do(req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.KindValidation))
	assert.Equal(t, http.StatusBadGateway, statusFor(domain.KindConnection))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(domain.KindTimeSync))
	assert.Equal(t, http.StatusBadGateway, statusFor(domain.KindSubmission))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.KindInternal))
}

func TestCORS_DisabledWithoutOrigins(t *testing.T) {
	f := newFixture(t)
	f.server.cfg.Server.AllowedOrigins = nil

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := f.do(req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_PlaceOrderWithJSONNumbers(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	body := `{"symbol":"BTCUSDT","side":"BUY","type":"LIMIT","quantity":0.01,"price":65000.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, f.gw.Submissions, 1)
	lr, ok := f.gw.Submissions[0].Request.(domain.LimitRequest)
	require.True(t, ok)
	assert.Equal(t, "0.01", lr.Quantity.String())
	assert.Equal(t, "65000.5", lr.Price.String())
}

func TestOriginCheck(t *testing.T) {
	orderForm := url.Values{
		"symbol":   {"BTCUSDT"},
		"side":     {"BUY"},
		"type":     {"MARKET"},
		"quantity": {"1"},
	}

	tests := []struct {
		name    string
		header  string
		value   string
		allowed bool
	}{
		{"no origin", "", "", true},
		{"same host", "Origin", "http://example.com", true},
		{"configured origin", "Origin", "http://localhost:3000", true},
		{"foreign origin", "Origin", "http://evil.example", false},
		{"foreign referer", "Referer", "http://evil.example/page.html", false},
		{"same host referer", "Referer", "http://example.com/", true},
		{"opaque origin", "Origin", "null", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.connect(t)

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(orderForm.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := f.do(req)

			if tt.allowed {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Len(t, f.gw.Submissions, 1)
			} else {
				assert.Equal(t, http.StatusForbidden, rec.Code)
				assert.Empty(t, f.gw.Submissions)
			}
		})
	}
}

func TestOriginCheck_ConnectAndAPI(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader("api_key=k&api_secret=s"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "http://evil.example")
	rec := f.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.creds)

	f.connect(t)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"symbol":"BTCUSDT","side":"BUY","type":"MARKET","quantity":"1"}`))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Origin", "http://evil.example")
	rec = f.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.gw.Submissions)

	// Reads stay open.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.Equal(t, http.StatusOK, f.do(req).Code)
}
