package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"order_desk/internal/execution"
	"order_desk/internal/infra"
	"order_desk/internal/order"
	"order_desk/internal/session"
	"order_desk/internal/ui"
	"order_desk/internal/web"
)

type app struct {
	out     io.Writer
	cfgPath string
	envPath string
	mode    string

	newLogger func(*infra.Config) (*zap.Logger, error)

	cfg    *infra.Config
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	return newApp(out).rootCmd()
}

func newApp(out io.Writer) *app {
	return &app{out: out, newLogger: infra.NewLogger}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           infra.AppName,
		Short:         "Place orders on the Binance USD-M futures testnet",
		Long:          `order-desk connects to the Binance USD-M futures testnet (or an offline paper venue), lists the trading symbols and places MARKET, LIMIT and STOP orders with venue-corrected timestamps.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "Path to config.yaml. Defaults to ORDER_DESK_CONFIG, configs/config.yaml, then the user config dir.")
	root.PersistentFlags().StringVar(&a.envPath, "env", ".env", "Path to a .env file with BINANCE_API_KEY and BINANCE_API_SECRET.")
	root.PersistentFlags().StringVar(&a.mode, "mode", "", "Override trading mode: TESTNET or PAPER.")

	root.AddCommand(
		a.serveCmd(),
		a.symbolsCmd(),
		a.orderCmd(),
		a.timeCmd(),
	)
	return root
}

func (a *app) setup() error {
	if err := infra.LoadDotEnv(a.envPath); err != nil {
		return err
	}

	path := a.cfgPath
	if path == "" {
		path = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err
	}
	if a.mode != "" {
		cfg.Trading.Mode = a.mode
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	logger, err := a.newLogger(cfg)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	cfg.LogWarnings(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) connect(ctx context.Context, creds execution.Credentials) (*session.Session, error) {
	factory := execution.NewGatewayFactory(a.cfg, a.logger)
	return session.Open(ctx, factory, creds, session.OptionsFromConfig(a.cfg, a.logger))
}

// openSession connects with the credentials from the environment or config file.
func (a *app) openSession(ctx context.Context) (*session.Session, error) {
	return a.connect(ctx, execution.Credentials{
		APIKey:    a.cfg.Exchange.APIKey,
		APISecret: a.cfg.Exchange.APISecret,
	})
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the order form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			infra.PrintBanner(a.out, a.cfg)
			fmt.Fprintf(a.out, "Open http://%s in a browser.\n", addr)

			srv := web.NewServer(a.cfg, a.connect, a.logger)
			return srv.Start(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address. Defaults to server.addr.")
	return cmd
}

func (a *app) symbolsCmd() *cobra.Command {
	var cols int
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List the symbols currently trading",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				ui.RenderError(a.out, err)
				return err
			}
			defer sess.Close()

			ui.RenderSymbols(a.out, sess.Symbols(), cols)
			return nil
		},
	}
	cmd.Flags().IntVar(&cols, "cols", 6, "Symbols per row.")
	return cmd
}

func (a *app) orderCmd() *cobra.Command {
	var raw order.RawSpec
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place one order",
		Example: `  order-desk order --symbol BTCUSDT --side BUY --type MARKET --quantity 0.01
  order-desk order --symbol BTCUSDT --side SELL --type LIMIT --quantity 0.01 --price 70000
  order-desk order --symbol BTCUSDT --side SELL --type STOP --quantity 0.01 --price 60000 --stop-price 60500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := order.ParseSpec(raw)
			if err != nil {
				ui.RenderError(a.out, err)
				return err
			}
			// Reject bad input before touching the network.
			if _, err := order.BuildWithWindow(spec, a.cfg.RecvWindow()); err != nil {
				ui.RenderError(a.out, err)
				return err
			}

			sess, err := a.openSession(cmd.Context())
			if err != nil {
				ui.RenderError(a.out, err)
				return err
			}
			defer sess.Close()

			res, err := sess.PlaceOrder(cmd.Context(), spec)
			if err != nil {
				ui.RenderError(a.out, err)
				return err
			}
			ui.RenderOrder(a.out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&raw.Symbol, "symbol", "", "Trading symbol, e.g. BTCUSDT.")
	cmd.Flags().StringVar(&raw.Side, "side", "", "BUY or SELL.")
	cmd.Flags().StringVar(&raw.Type, "type", "MARKET", "MARKET, LIMIT or STOP.")
	cmd.Flags().StringVar(&raw.Quantity, "quantity", "", "Order quantity in base asset.")
	cmd.Flags().StringVar(&raw.Price, "price", "", "Limit price. Required for LIMIT and STOP.")
	cmd.Flags().StringVar(&raw.StopPrice, "stop-price", "", "Trigger price. Required for STOP.")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("side")
	cmd.MarkFlagRequired("quantity")
	return cmd
}

func (a *app) timeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "time",
		Short: "Show the clock offset against the exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				ui.RenderError(a.out, err)
				return err
			}
			defer sess.Close()

			ui.RenderClock(a.out, sess.ClockState(), sess.Offset(), sess.Degraded())
			return nil
		},
	}
}
