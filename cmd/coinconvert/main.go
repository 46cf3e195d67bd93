// Command coinconvert runs the crypto quote gateway and converter.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/coinconvert/api"
	"github.com/seenimoa/coinconvert/internal/cmc"
	"github.com/seenimoa/coinconvert/internal/config"
	"github.com/seenimoa/coinconvert/internal/converter"
	"github.com/seenimoa/coinconvert/internal/gateway"
	"github.com/seenimoa/coinconvert/internal/infra"
	"github.com/seenimoa/coinconvert/internal/logging"
	"github.com/seenimoa/coinconvert/pkg/models"
	"github.com/seenimoa/coinconvert/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coinconvert",
	Short: "coinconvert — crypto quote gateway and fiat converter",
	Long: `coinconvert proxies CoinMarketCap listings and quotes behind a small
JSON API and serves a converter page that turns a crypto amount into
INR, USD, EUR, GBP, AED or AUD.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger = logging.NewWithWriter(cfg.Logging, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(coinsCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
}

// newGateway wires an in-process gateway from the loaded configuration.
func newGateway() *gateway.Service {
	client := cmc.New(cfg.Upstream.APIKey,
		cmc.WithBaseURL(cfg.Upstream.BaseURL),
		cmc.WithHTTPClient(infra.NewHTTPClient(cfg.Upstream.Timeout(), cfg.Upstream.UserAgent)),
		cmc.WithLogger(logger),
	)
	return gateway.New(gateway.ConfigFrom(cfg), client, gateway.WithLogger(logger))
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coinconvert %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (gateway + converter UI)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		api.Version = version
		srv, err := api.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			srv.SetServeUI(false)
			logger.Info().Msg("converter UI disabled")
		}

		if cfg.Upstream.APIKey == "" {
			logger.Warn().Msg("no CoinMarketCap API key configured; upstream calls go out unauthenticated")
		}
		fmt.Printf("🌐 Starting coinconvert on %s\n", cfg.Addr())
		return srv.Run(cmd.Context(), cfg.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides config and PORT)")
	serveCmd.Flags().Bool("no-ui", false, "serve only the JSON API")
}

// --- Coins Command ---

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "List coins with their latest prices",
	Long: `List the latest coin listing as the gateway returns it.

Examples:
  coinconvert coins --max 20
  coinconvert coins --search eth
  coinconvert coins --convert USD --limit 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		convert, _ := cmd.Flags().GetString("convert")
		limit, _ := cmd.Flags().GetString("limit")
		search, _ := cmd.Flags().GetString("search")
		maxRows, _ := cmd.Flags().GetInt("max")

		coins, err := newGateway().ListCoins(cmd.Context(), gateway.ListParams{Convert: convert, Limit: limit})
		if err != nil {
			return err
		}

		fiat := strings.ToLower(convert)
		if fiat == "" {
			fiat = strings.ToLower(cfg.Gateway.ReferenceCurrency)
		}
		fmt.Printf("%-24s %-8s %-28s %18s %10s %10s\n", "ID", "SYMBOL", "NAME", "PRICE ("+models.FiatLabel(fiat)+")", "24H", "MCAP")
		rows := 0
		q := strings.ToLower(search)
		for _, c := range coins {
			if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Symbol), q) {
				continue
			}
			if maxRows > 0 && rows >= maxRows {
				break
			}
			price, change, mcap := "—", "—", "—"
			if p, ok := c.CurrentPrice.Get(fiat); ok {
				price = utils.FormatLocale(p)
			}
			if c.Change24h != nil {
				change = utils.FormatPct(*c.Change24h)
			}
			if c.MarketCap != nil {
				mcap = utils.FormatCompact(*c.MarketCap)
			}
			fmt.Printf("%-24s %-8s %-28s %18s %10s %10s\n", c.ID, strings.ToUpper(c.Symbol), c.Name, price, change, mcap)
			rows++
		}
		fmt.Printf("\n%d of %d coins\n", rows, len(coins))
		return nil
	},
}

func init() {
	coinsCmd.Flags().String("convert", "", "fiat to price in (default: reference currency)")
	coinsCmd.Flags().String("limit", "", "number of coins to request (default: 5000)")
	coinsCmd.Flags().String("search", "", "filter by name or symbol")
	coinsCmd.Flags().Int("max", 50, "maximum rows to print (0 = all)")
}

// --- Price Command ---

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Print latest quotes as JSON",
	Long: `Print the latest quotes keyed by slug, symbol or upstream id.

Examples:
  coinconvert price --ids bitcoin,ethereum
  coinconvert price --symbol BTC --convert USD`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, _ := cmd.Flags().GetString("ids")
		symbol, _ := cmd.Flags().GetString("symbol")
		convert, _ := cmd.Flags().GetString("convert")

		quotes, err := newGateway().GetPrice(cmd.Context(), gateway.PriceParams{IDs: ids, Symbol: symbol, Convert: convert})
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(quotes, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	priceCmd.Flags().String("ids", "", "comma-separated coin slugs")
	priceCmd.Flags().String("symbol", "", "comma-separated coin symbols")
	priceCmd.Flags().String("convert", "", "fiat to price in (default: reference currency)")
}

// --- Convert Command ---

var convertCmd = &cobra.Command{
	Use:   "convert [coin] [amount]",
	Short: "Convert an amount of a coin into a fiat currency",
	Long: `Convert an amount of a coin (by slug) into a fiat currency using the
latest reference price and the configured rate table.

Examples:
  coinconvert convert bitcoin 2 --to usd
  coinconvert convert ethereum 0.5 --to eur --gateway http://localhost:5001`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("to")
		remote, _ := cmd.Flags().GetString("gateway")

		var src converter.QuoteSource = converter.GatewaySource{Service: newGateway()}
		if remote != "" {
			src = converter.NewHTTPSource(remote, infra.NewHTTPClient(cfg.Upstream.Timeout(), cfg.Upstream.UserAgent))
		}

		sess := converter.NewSession(src, converter.OptionsFrom(cfg))
		if target != "" {
			if err := sess.SetTarget(target); err != nil {
				return err
			}
		}
		if err := sess.Select(cmd.Context(), args[0]); err != nil {
			return err
		}
		sess.SetAmount(args[1])

		result := sess.Convert()
		v := sess.View()
		fmt.Printf("%s %s → %s\n", args[1], strings.ToUpper(args[0]), result)
		if v.Quote != nil {
			fmt.Printf("  1 %s = %s %s", strings.ToUpper(args[0]), v.TargetLabel, v.LivePrice)
			if v.Change != "" {
				fmt.Printf("  (24h %s)", v.Change)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().String("to", "", "target fiat (inr, usd, eur, gbp, aed, aud)")
	convertCmd.Flags().String("gateway", "", "use a running gateway at this base URL instead of calling upstream directly")
}

// --- Config Command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show version and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  coinconvert — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Upstream:      %s (timeout %s)\n", cfg.Upstream.BaseURL, cfg.Upstream.Timeout())
		fmt.Printf("    Reference:     %s\n", cfg.Gateway.ReferenceCurrency)
		fmt.Printf("    Default fiat:  %s\n", models.FiatLabel(cfg.Converter.DefaultFiat))
		fmt.Printf("    API Server:    %s\n", cfg.Addr())
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
