package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order_desk/internal/domain"
	"order_desk/internal/infra"
	"order_desk/internal/infra/binance"
)

func TestGatewayFactory_Testnet(t *testing.T) {
	cfg := infra.DefaultConfig()
	f := NewGatewayFactory(cfg, nil)

	gw, err := f.Create(Credentials{APIKey: "k", APISecret: "s"})
	require.NoError(t, err)
	_, ok := gw.(*binance.Client)
	assert.True(t, ok, "expected *binance.Client, got %T", gw)
}

func TestGatewayFactory_TestnetNeedsCredentials(t *testing.T) {
	f := NewGatewayFactory(infra.DefaultConfig(), nil)

	_, err := f.Create(Credentials{APIKey: "k"})
	var ce *domain.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestGatewayFactory_Paper(t *testing.T) {
	cfg := infra.DefaultConfig()
	cfg.Trading.Mode = infra.ModePaper
	cfg.Paper.Symbols = []string{"BTCUSDT"}
	cfg.Paper.MarkPrices = map[string]string{"BTCUSDT": "64000.5"}

	gw, err := NewGatewayFactory(cfg, nil).Create(Credentials{})
	require.NoError(t, err)

	paper, ok := gw.(*PaperGateway)
	require.True(t, ok)
	symbols, err := paper.ListSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, symbols)
	assert.Equal(t, "64000.5", paper.prices["BTCUSDT"].String())
}

func TestGatewayFactory_BadMarkPrice(t *testing.T) {
	cfg := infra.DefaultConfig()
	cfg.Trading.Mode = infra.ModePaper
	cfg.Paper.MarkPrices = map[string]string{"BTCUSDT": "lots"}

	_, err := NewGatewayFactory(cfg, nil).Create(Credentials{})
	assert.Error(t, err)
}

func TestGatewayFactory_UnknownMode(t *testing.T) {
	cfg := infra.DefaultConfig()
	cfg.Trading.Mode = "REAL"

	_, err := NewGatewayFactory(cfg, nil).Create(Credentials{APIKey: "k", APISecret: "s"})
	assert.Error(t, err)
}
