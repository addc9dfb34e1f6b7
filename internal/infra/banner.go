package infra

import (
	"fmt"
	"io"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner for the active mode.
func PrintBanner(w io.Writer, cfg *Config) {
	color := ColorYellow
	modeDesc := "FUTURES TESTNET (PLAY MONEY)"
	endpoint := cfg.Exchange.RestURL

	if cfg.Trading.Mode == ModePaper {
		color = ColorCyan
		modeDesc = "OFFLINE PAPER GATEWAY"
		endpoint = "-"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                  Futures Order Desk                     #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#   MODE:     %-43s #%s\n", color, cfg.Trading.Mode, ColorReset)
	fmt.Fprintf(w, "%s#   TYPE:     %-43s #%s\n", color, modeDesc, ColorReset)
	fmt.Fprintf(w, "%s#   ENDPOINT: %-43s #%s\n", color, endpoint, ColorReset)
	fmt.Fprintf(w, "%s#   VERSION:  %-43s #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintln(w)
}
