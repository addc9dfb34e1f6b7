package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order_desk/internal/domain"
	"order_desk/internal/execution"
	"order_desk/internal/order"
	"order_desk/internal/ui"
)

type connectForm struct {
	APIKey    string `schema:"api_key"`
	APISecret string `schema:"api_secret"`
}

type pageData struct {
	Mode      string
	Connected bool
	Degraded  bool
	OffsetMS  int64
	Symbols   []string
	Form      order.RawSpec
	Result    []ui.Field
	ErrorKind string
	Error     string
}

// OrderResponse is the JSON form of an order result.
type OrderResponse struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Price         decimal.Decimal `json:"price"`
	StopPrice     decimal.Decimal `json:"stopPrice"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	OrigQty       decimal.Decimal `json:"origQty"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	TimeInForce   string          `json:"timeInForce,omitempty"`
	UpdateTime    int64           `json:"updateTime"`
}

// ErrorResponse is returned by the JSON API on failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, s.basePage(), nil)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, s.basePage(), &domain.ValidationError{Field: "form", Err: err})
		return
	}
	var form connectForm
	if err := s.decoder.Decode(&form, r.PostForm); err != nil {
		s.renderPage(w, http.StatusBadRequest, s.basePage(), &domain.ValidationError{Field: "form", Err: err})
		return
	}

	creds := execution.Credentials{
		APIKey:    strings.TrimSpace(form.APIKey),
		APISecret: strings.TrimSpace(form.APISecret),
	}
	sess, err := s.connect(r.Context(), creds)
	if err != nil {
		s.logger.Warn("connect failed", zap.Error(err))
		s.renderPage(w, 0, s.basePage(), err)
		return
	}
	s.swap(sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.Close(); err != nil {
		s.logger.Warn("disconnect", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePlaceOrderForm(w http.ResponseWriter, r *http.Request) {
	data := s.basePage()
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, data, &domain.ValidationError{Field: "form", Err: err})
		return
	}
	var raw order.RawSpec
	if err := s.decoder.Decode(&raw, r.PostForm); err != nil {
		s.renderPage(w, http.StatusBadRequest, data, &domain.ValidationError{Field: "form", Err: err})
		return
	}
	data.Form = raw

	res, err := s.placeOrder(r, raw)
	if err != nil {
		s.renderPage(w, 0, data, err)
		return
	}
	data.Result = ui.OrderFields(res)
	s.renderPage(w, http.StatusOK, data, nil)
}

func (s *Server) handlePlaceOrderJSON(w http.ResponseWriter, r *http.Request) {
	var raw order.RawSpec
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, &domain.ValidationError{Field: "body", Err: err})
		return
	}

	res, err := s.placeOrder(r, raw)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(res))
}

func (s *Server) placeOrder(r *http.Request, raw order.RawSpec) (*domain.OrderResult, error) {
	sess := s.session()
	if sess == nil {
		return nil, errNoSession
	}
	spec, err := order.ParseSpec(raw)
	if err != nil {
		return nil, err
	}
	return sess.PlaceOrder(r.Context(), spec)
}

func (s *Server) handleGetSymbols(w http.ResponseWriter, r *http.Request) {
	sess := s.session()
	if sess == nil {
		respondError(w, errNoSession)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": sess.Symbols(),
	})
}

func (s *Server) handleGetClock(w http.ResponseWriter, r *http.Request) {
	sess := s.session()
	if sess == nil {
		respondError(w, errNoSession)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":    sess.ClockState().String(),
		"offsetMs": int64(sess.Offset()),
		"degraded": sess.Degraded(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sess := s.session()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"mode":      s.cfg.Trading.Mode,
		"connected": sess != nil && sess.Connected(),
	})
}

func (s *Server) basePage() pageData {
	data := pageData{Mode: s.cfg.Trading.Mode}
	if sess := s.session(); sess != nil && sess.Connected() {
		data.Connected = true
		data.Degraded = sess.Degraded()
		data.OffsetMS = int64(sess.Offset())
		data.Symbols = sess.Symbols()
	}
	return data
}

// renderPage writes the page. A zero status is derived from err.
func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData, err error) {
	if err != nil {
		kind, msg := domain.Describe(err)
		data.ErrorKind = string(kind)
		data.Error = msg
		if status == 0 {
			status = statusFor(kind)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render page", zap.Error(err))
	}
}

func toResponse(res *domain.OrderResult) OrderResponse {
	out := OrderResponse{
		OrderID:       res.OrderID,
		ClientOrderID: res.ClientOrderID,
		Symbol:        res.Symbol,
		Side:          string(res.Side),
		Type:          string(res.Type),
		Status:        res.Status,
		Price:         res.Price,
		StopPrice:     res.StopPrice,
		AvgPrice:      res.AvgPrice,
		OrigQty:       res.OrigQty,
		ExecutedQty:   res.ExecutedQty,
		TimeInForce:   string(res.TimeInForce),
	}
	if !res.UpdateTime.IsZero() {
		out.UpdateTime = res.UpdateTime.UnixMilli()
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	kind, msg := domain.Describe(err)
	respondJSON(w, statusFor(kind), ErrorResponse{
		Error:   string(kind),
		Message: msg,
	})
}
