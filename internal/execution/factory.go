package execution

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order_desk/internal/domain"
	"order_desk/internal/infra"
	"order_desk/internal/infra/binance"
)

// Credentials are the API key pair typed in by the operator.
type Credentials struct {
	APIKey    string
	APISecret string
}

// GatewayFactory creates gateways based on the trading mode.
type GatewayFactory struct {
	config *infra.Config
	logger *zap.Logger
}

// NewGatewayFactory creates a new factory
func NewGatewayFactory(cfg *infra.Config, logger *zap.Logger) *GatewayFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayFactory{config: cfg, logger: logger}
}

// Create returns the Gateway for the configured mode.
func (f *GatewayFactory) Create(creds Credentials) (domain.Gateway, error) {
	mode := f.config.Trading.Mode
	f.logger.Info("initializing gateway", zap.String("mode", mode))

	switch mode {
	case infra.ModeTestnet:
		if creds.APIKey == "" || creds.APISecret == "" {
			return nil, &domain.ConnectionError{Op: "credentials", Err: domain.ErrMissingCredentials}
		}
		signer := binance.NewSigner(creds.APIKey, creds.APISecret)
		return binance.NewClient(f.config, signer, f.logger), nil

	case infra.ModePaper:
		gw := NewPaperGateway(f.config.Paper.Symbols, f.logger)
		for symbol, price := range f.config.Paper.MarkPrices {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return nil, fmt.Errorf("invalid mark price for %s: %w", symbol, err)
			}
			gw.UpdatePrice(symbol, p)
		}
		return gw, nil

	default:
		return nil, fmt.Errorf("unknown trading mode: %s", mode)
	}
}
