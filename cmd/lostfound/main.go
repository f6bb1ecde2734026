package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/lostfound/internal/bot"
	"github.com/stellarlinkco/lostfound/internal/bus"
	"github.com/stellarlinkco/lostfound/internal/config"
	"github.com/stellarlinkco/lostfound/internal/gateway"
	"github.com/stellarlinkco/lostfound/internal/lexicon"
	"github.com/stellarlinkco/lostfound/internal/match"
	"github.com/stellarlinkco/lostfound/internal/parser"
	"github.com/stellarlinkco/lostfound/internal/report"
)

var rootCmd = &cobra.Command{
	Use:   "lostfound",
	Short: "lostfound - chat-based lost and found matching",
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the gateway (channels + rematch sweep)",
	RunE:  runGateway,
}

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Print the intent and slots extracted from a message",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored reports",
	RunE:  runSearch,
}

var reportCmd = &cobra.Command{
	Use:   "report <text>",
	Short: "File a lost or found report from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReport,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directory",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lostfound status",
	RunE:  runStatus,
}

var (
	searchType     string
	searchItem     string
	searchColor    string
	searchLocation string
	searchDate     string
	searchLimit    int

	reportUser     string
	reportUsername string
)

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", string(report.TypeFound), "Report type to search (lost or found)")
	searchCmd.Flags().StringVar(&searchItem, "item", "", "Item name")
	searchCmd.Flags().StringVar(&searchColor, "color", "", "Item color")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "Where the item was lost or found")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "Date as YYYY-MM-DD")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum matches (default from config)")

	reportCmd.Flags().StringVar(&reportUser, "user", "cli", "Reporter user id")
	reportCmd.Flags().StringVar(&reportUsername, "username", "", "Reporter display name")

	rootCmd.AddCommand(gatewayCmd, parseCmd, searchCmd, reportCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !cfg.Channels.Telegram.Enabled && !cfg.Channels.WebUI.Enabled {
		return errors.New("no channels enabled. Set TELEGRAM_BOT_TOKEN or enable the web UI (LOSTFOUND_WEBUI_ENABLED=true)")
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func newParser(cfg *config.Config) (*parser.Parser, error) {
	lex, err := lexicon.Load(cfg.NLP.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	return parser.New(lex, parser.WithStrictYesterday(cfg.NLP.StrictYesterday))
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	p, err := newParser(cfg)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(p.Parse(strings.Join(args, " ")), "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	typ, ok := report.ParseType(searchType)
	if !ok {
		return fmt.Errorf("invalid --type %q: want lost or found", searchType)
	}
	if searchDate != "" {
		if _, err := time.Parse("2006-01-02", searchDate); err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", searchDate)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := report.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	defer store.Close()

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.Matching.Limit
	}
	c := match.Criteria{
		Type:     typ,
		Item:     searchItem,
		Color:    strings.ToLower(searchColor),
		Location: searchLocation,
		DateISO:  searchDate,
	}
	matches, err := match.FindScored(commandContext(cmd), store, c, limit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches.")
		return nil
	}
	fmt.Fprintln(out, bot.FormatMatches(matches))
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	p, err := newParser(cfg)
	if err != nil {
		return err
	}
	store, err := report.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	defer store.Close()

	msg := bus.InboundMessage{
		Channel:   "cli",
		SenderID:  reportUser,
		Content:   strings.Join(args, " "),
		Timestamp: time.Now(),
	}
	if reportUsername != "" {
		msg.Metadata = map[string]any{"username": reportUsername}
	}

	responder := bot.New(p, store, bot.WithLimit(cfg.Matching.Limit))
	fmt.Fprintln(cmd.OutOrStdout(), responder.Handle(commandContext(cmd), msg))
	return nil
}

func runOnboard(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(out, "Created config: %s\n", cfgPath)
	} else {
		fmt.Fprintf(out, "Config already exists: %s\n", cfgPath)
	}

	if err := os.MkdirAll(config.DataDir(), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	fmt.Fprintf(out, "Data dir ready: %s\n", config.DataDir())

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Edit %s to enable channels\n", cfgPath)
	fmt.Fprintln(out, "  2. Or set TELEGRAM_BOT_TOKEN (a .env file works too)")
	fmt.Fprintln(out, "  3. Run 'lostfound parse \"I lost my red wallet at the library\"' to test")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(out, "Config: error (%v)\n", err)
		return nil
	}

	fmt.Fprintf(out, "Config: %s\n", config.ConfigPath())
	fmt.Fprintf(out, "Store: %s (%s)\n", cfg.Store.Path, cfg.Store.Driver)
	if cfg.Channels.Telegram.Token != "" {
		fmt.Fprintf(out, "Telegram: enabled=%v token=%s\n", cfg.Channels.Telegram.Enabled, maskToken(cfg.Channels.Telegram.Token))
	} else {
		fmt.Fprintf(out, "Telegram: enabled=%v token=not set\n", cfg.Channels.Telegram.Enabled)
	}
	fmt.Fprintf(out, "WebUI: enabled=%v (%s:%d)\n", cfg.Channels.WebUI.Enabled, cfg.Gateway.Host, cfg.Gateway.Port)
	fmt.Fprintf(out, "Rematch: enabled=%v every=%s minScore=%d\n", cfg.Rematch.Enabled, cfg.Rematch.Interval(), cfg.Rematch.MinScore)

	if _, err := os.Stat(cfg.Store.Path); err != nil {
		fmt.Fprintln(out, "Reports: none yet (run 'lostfound onboard')")
		return nil
	}
	store, err := report.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(out, "Reports: error (%v)\n", err)
		return nil
	}
	defer store.Close()

	all, err := store.Query(commandContext(cmd), report.All)
	if err != nil {
		fmt.Fprintf(out, "Reports: error (%v)\n", err)
		return nil
	}
	lost := 0
	for _, r := range all {
		if r.Type == report.TypeLost {
			lost++
		}
	}
	fmt.Fprintf(out, "Reports: %d (lost=%d found=%d)\n", len(all), lost, len(all)-lost)
	return nil
}

// commandContext is cmd.Context, or Background when the command was not run
// through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func maskToken(token string) string {
	if len(token) > 8 {
		return token[:4] + "..." + token[len(token)-4:]
	}
	return "set"
}
