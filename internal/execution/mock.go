package execution

import (
	"context"
	"sync"
	"time"

	"order_desk/internal/domain"
)

// MockGateway records calls and returns canned answers. Used by tests.
type MockGateway struct {
	mu sync.Mutex

	Symbols    []string
	SymbolsErr error
	Time       time.Time
	TimeErr    error
	Result     *domain.OrderResult
	SubmitErr  error

	TimeCalls   int
	Submissions []domain.Submission
	Closed      bool
}

var _ domain.Gateway = (*MockGateway)(nil)

func NewMockGateway(symbols ...string) *MockGateway {
	return &MockGateway{Symbols: symbols}
}

func (m *MockGateway) ListSymbols(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SymbolsErr != nil {
		return nil, m.SymbolsErr
	}
	return append([]string(nil), m.Symbols...), nil
}

func (m *MockGateway) ServerTime(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TimeCalls++
	if m.TimeErr != nil {
		return time.Time{}, m.TimeErr
	}
	return m.Time, nil
}

func (m *MockGateway) SubmitOrder(ctx context.Context, sub domain.Submission) (*domain.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submissions = append(m.Submissions, sub)
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}
	if m.Result != nil {
		out := *m.Result
		return &out, nil
	}
	base := sub.Request.Base()
	return &domain.OrderResult{
		OrderID:       int64(len(m.Submissions)),
		ClientOrderID: sub.ClientOrderID,
		Symbol:        base.Symbol,
		Side:          base.Side,
		Type:          sub.Request.Type(),
		Status:        "NEW",
		OrigQty:       base.Quantity,
	}, nil
}

func (m *MockGateway) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
