// Package gateway wires the parser, report store, responder, channels and
// background jobs into one long-running process.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/stellarlinkco/lostfound/internal/bot"
	"github.com/stellarlinkco/lostfound/internal/bus"
	"github.com/stellarlinkco/lostfound/internal/channel"
	"github.com/stellarlinkco/lostfound/internal/config"
	"github.com/stellarlinkco/lostfound/internal/cron"
	"github.com/stellarlinkco/lostfound/internal/lexicon"
	"github.com/stellarlinkco/lostfound/internal/logger"
	"github.com/stellarlinkco/lostfound/internal/parser"
	"github.com/stellarlinkco/lostfound/internal/report"
)

const rematchJobName = "rematch"

// Options for creating a Gateway
type Options struct {
	SignalChan    chan os.Signal // for testing signal handling
	CronStorePath string         // defaults to config.CronStorePath()
	Store         report.Store   // replaces the configured store when set
	Now           func() time.Time
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	parser     *parser.Parser
	store      report.Store
	responder  *bot.Responder
	channels   *channel.ChannelManager
	cron       *cron.Service
	now        func() time.Time
	signalChan chan os.Signal // for testing
	log        *logger.Logger
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	logger.Init(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "lostfound",
	})

	g := &Gateway{
		cfg:        cfg,
		now:        opts.Now,
		signalChan: opts.SignalChan,
		log:        logger.Named("gateway"),
	}
	if g.now == nil {
		g.now = func() time.Time { return time.Now().UTC() }
	}

	lex, err := lexicon.Load(cfg.NLP.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	g.parser, err = parser.New(lex, parser.WithStrictYesterday(cfg.NLP.StrictYesterday))
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}

	g.store = opts.Store
	if g.store == nil {
		g.store, err = report.Open(cfg.Store.Driver, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open report store: %w", err)
		}
	}

	g.responder = bot.New(g.parser, g.store, bot.WithLimit(cfg.Matching.Limit))
	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	cronPath := opts.CronStorePath
	if cronPath == "" {
		cronPath = config.CronStorePath()
	}
	g.cron = cron.NewService(cronPath)
	g.cron.OnJob = g.runJob

	g.channels, err = channel.NewChannelManager(cfg.Channels, cfg.Gateway, g.bus)
	if err != nil {
		_ = g.store.Close()
		return nil, fmt.Errorf("create channel manager: %w", err)
	}

	return g, nil
}

// runJob is the cron handler. The rematch task sweeps reports filed since the
// previous run, or since the job was created, and queues the notices.
func (g *Gateway) runJob(ctx context.Context, job cron.CronJob) (string, error) {
	if job.Payload.Task != cron.TaskRematch {
		return "", fmt.Errorf("unknown task %q", job.Payload.Task)
	}

	since := job.State.LastRun()
	if since.IsZero() && job.CreatedAtMs > 0 {
		since = time.UnixMilli(job.CreatedAtMs).UTC()
	}
	minScore := job.Payload.MinScore
	if minScore <= 0 {
		minScore = g.cfg.Rematch.MinScore
	}

	notices, err := g.responder.Rematch(ctx, since, g.now(), minScore)
	if err != nil {
		return "", fmt.Errorf("rematch: %w", err)
	}
	for _, n := range notices {
		if err := g.bus.Publish(ctx, n); err != nil {
			return "", fmt.Errorf("queue notice: %w", err)
		}
	}
	return fmt.Sprintf("%d notices", len(notices)), nil
}

func (g *Gateway) ensureRematchJob() error {
	if !g.cfg.Rematch.Enabled {
		return nil
	}
	_, err := g.cron.EnsureJob(rematchJobName, cron.Every(g.cfg.Rematch.Interval()), cron.Payload{
		Task:     cron.TaskRematch,
		MinScore: g.cfg.Rematch.MinScore,
	})
	return err
}

func (g *Gateway) watchLexicon(ctx context.Context) {
	path := g.cfg.NLP.LexiconPath
	err := lexicon.Watch(ctx, path,
		func(lex *lexicon.Lexicon) {
			g.parser.SetLexicon(lex)
			g.log.Info().Str("path", path).Msg("lexicon reloaded")
		},
		func(err error) {
			g.log.Warn().Err(err).Str("path", path).Msg("lexicon reload failed")
		})
	if err != nil {
		g.log.Error().Err(err).Msg("lexicon watcher stopped")
	}
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	g.log.Info().Strs("channels", g.channels.EnabledChannels()).Msg("channels started")

	if err := g.cron.Start(ctx); err != nil {
		g.log.Warn().Err(err).Msg("cron start failed")
	}
	if err := g.ensureRematchJob(); err != nil {
		g.log.Warn().Err(err).Msg("ensure rematch job failed")
	}

	if g.cfg.NLP.WatchLexicon && strings.TrimSpace(g.cfg.NLP.LexiconPath) != "" {
		go g.watchLexicon(ctx)
	}

	go g.processLoop(ctx)

	g.log.Info().Str("host", g.cfg.Gateway.Host).Int("port", g.cfg.Gateway.Port).Msg("running")

	// Use injected signal channel for testing, or create default
	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	g.log.Info().Msg("shutting down")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			mctx := logger.WithChat(ctx, msg.Channel, msg.ChatID)
			logger.C(mctx).Info().
				Str("sender", msg.SenderID).
				Str("content", truncate(msg.Content, 80)).
				Msg("inbound")

			reply := g.responder.Handle(mctx, msg)
			if reply == "" {
				continue
			}
			out := bus.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Content: reply,
			}
			if err := g.bus.Publish(ctx, out); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) Shutdown() error {
	var errs []error
	if err := g.channels.StopAll(); err != nil {
		errs = append(errs, fmt.Errorf("stop channels: %w", err))
	}
	g.cron.Stop()
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	g.log.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
