package infra

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBanner(t *testing.T) {
	cfg := DefaultConfig()

	var buf bytes.Buffer
	PrintBanner(&buf, cfg)
	assert.Contains(t, buf.String(), "FUTURES TESTNET")
	assert.Contains(t, buf.String(), DefaultTestnetURL)

	buf.Reset()
	cfg.Trading.Mode = ModePaper
	PrintBanner(&buf, cfg)
	assert.Contains(t, buf.String(), "OFFLINE PAPER GATEWAY")
	assert.NotContains(t, buf.String(), DefaultTestnetURL)
}
