package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stellarlinkco/lostfound/internal/bus"
	"github.com/stellarlinkco/lostfound/internal/config"
	"github.com/stellarlinkco/lostfound/internal/cron"
	"github.com/stellarlinkco/lostfound/internal/report"
)

var t0 = time.Date(2024, time.June, 12, 9, 0, 0, 0, time.UTC)

// closeCounter wraps a store and counts Close calls.
type closeCounter struct {
	report.Store
	closed atomic.Int32
}

func (c *closeCounter) Close() error {
	c.closed.Add(1)
	return c.Store.Close()
}

// mockChannel implements channel.Channel for testing
type mockChannel struct {
	name     string
	startErr error
	stopped  atomic.Bool
}

func (m *mockChannel) Name() string                   { return m.name }
func (m *mockChannel) Start(ctx context.Context) error { return m.startErr }
func (m *mockChannel) Stop() error                    { m.stopped.Store(true); return nil }
func (m *mockChannel) Send(bus.OutboundMessage) error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Store.Driver = config.StoreDriverJSON
	cfg.Store.Path = filepath.Join(tmpDir, "reports.json")
	cfg.Gateway.Host = "localhost"
	cfg.Channels = config.ChannelsConfig{}
	cfg.Rematch.Enabled = false
	cfg.Log.Level = "disabled"
	return cfg
}

func newTestGateway(t *testing.T, cfg *config.Config, opts Options) *Gateway {
	t.Helper()
	if opts.CronStorePath == "" {
		opts.CronStorePath = filepath.Join(t.TempDir(), "jobs.json")
	}
	g, err := NewWithOptions(cfg, opts)
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	return g
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long message", 10, "this is a ..."},
		{"", 5, ""},
		{"lost my café card", 12, "lost my caf..."},
		{"日本語", 4, "日..."},
	}

	for _, tt := range tests {
		got := truncate(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) split a rune", tt.input, tt.n)
		}
	}
}

func TestNewWithOptions_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing lexicon", func(c *config.Config) { c.NLP.LexiconPath = "/nonexistent/lexicon.yaml" }, "load lexicon"},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "mongo" }, "open report store"},
		{"telegram without token", func(c *config.Config) { c.Channels.Telegram.Enabled = true }, "create channel manager"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := NewWithOptions(cfg, Options{CronStorePath: filepath.Join(t.TempDir(), "jobs.json")})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestGateway_ProcessLoop(t *testing.T) {
	g := newTestGateway(t, testConfig(t), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.processLoop(ctx)

	send := func(content string) bus.OutboundMessage {
		g.bus.Inbound <- bus.InboundMessage{
			Channel:  "webui",
			SenderID: "user1",
			ChatID:   "chat1",
			Content:  content,
		}
		select {
		case out := <-g.bus.Outbound:
			return out
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for reply to %q", content)
		}
		return bus.OutboundMessage{}
	}

	out := send("Found a blue water bottle near the gym")
	if out.Channel != "webui" || out.ChatID != "chat1" {
		t.Errorf("reply routed to %s/%s, want webui/chat1", out.Channel, out.ChatID)
	}
	if !strings.HasPrefix(out.Content, "Thanks! I saved your found report.") {
		t.Errorf("reply = %q", out.Content)
	}

	out = send("/help")
	if !strings.Contains(out.Content, "Commands:") {
		t.Errorf("help reply = %q", out.Content)
	}

	all, err := g.store.Query(ctx, report.All)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("stored %d reports, want 1", len(all))
	}
}

func seedReport(t *testing.T, store report.Store, typ report.Type, user, chat string, at time.Time) report.Report {
	t.Helper()
	r := report.New(typ)
	r.Item = "wallet"
	r.Color = "red"
	r.Location = "library"
	r.UserID = user
	r.Channel = "telegram"
	r.ChatID = chat
	r.Text = string(typ) + " red wallet at the library"
	r.CreatedAt = at
	if err := store.Append(context.Background(), r); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	return r
}

func TestGateway_CronOnJob_Rematch(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGateway(t, cfg, Options{Now: func() time.Time { return t0.Add(time.Hour) }})

	lost := seedReport(t, g.store, report.TypeLost, "1", "chat-1", t0)
	found := seedReport(t, g.store, report.TypeFound, "2", "chat-2", t0.Add(time.Minute))

	job := cron.NewCronJob(rematchJobName, cron.Every(time.Minute), cron.Payload{Task: cron.TaskRematch, MinScore: 3})
	job.CreatedAtMs = t0.Add(30 * time.Second).UnixMilli()

	result, err := g.runJob(context.Background(), job)
	if err != nil {
		t.Fatalf("runJob error: %v", err)
	}
	if result != "1 notices" {
		t.Errorf("result = %q, want '1 notices'", result)
	}

	select {
	case out := <-g.bus.Outbound:
		if out.Channel != "telegram" || out.ChatID != "chat-1" {
			t.Errorf("notice routed to %s/%s, want telegram/chat-1", out.Channel, out.ChatID)
		}
		if out.Metadata["report_id"] != lost.ID || out.Metadata["match_id"] != found.ID {
			t.Errorf("metadata = %v", out.Metadata)
		}
		if !strings.HasPrefix(out.Content, "Good news!") {
			t.Errorf("content = %q", out.Content)
		}
	default:
		t.Fatal("expected a queued notice")
	}

	// The previous run bounds the next sweep.
	job.State.LastRunAtMs = t0.Add(2 * time.Minute).UnixMilli()
	result, err = g.runJob(context.Background(), job)
	if err != nil {
		t.Fatalf("runJob error: %v", err)
	}
	if result != "0 notices" {
		t.Errorf("second sweep result = %q, want '0 notices'", result)
	}
}

func TestGateway_CronOnJob_UnknownTask(t *testing.T) {
	g := newTestGateway(t, testConfig(t), Options{})
	job := cron.NewCronJob("odd", cron.Every(time.Minute), cron.Payload{Task: "compact"})
	if _, err := g.runJob(context.Background(), job); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestGateway_CronOnJob_StoreError(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGateway(t, cfg, Options{})
	if err := os.WriteFile(cfg.Store.Path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	job := cron.NewCronJob(rematchJobName, cron.Every(time.Minute), cron.Payload{Task: cron.TaskRematch})
	_, err := g.runJob(context.Background(), job)
	if !errors.Is(err, report.ErrPersistence) {
		t.Errorf("error = %v, want ErrPersistence", err)
	}
}

func TestGateway_Run_WithSignalChan(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rematch.Enabled = true

	store, err := report.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	counted := &closeCounter{Store: store}
	sigCh := make(chan os.Signal, 1)
	g := newTestGateway(t, cfg, Options{SignalChan: sigCh, Store: counted})
	mock := &mockChannel{name: "mock"}
	g.channels.Register(mock)

	done := make(chan error, 1)
	go func() {
		done <- g.Run(context.Background())
	}()

	// Wait for the rematch job to be registered.
	deadline := time.Now().Add(2 * time.Second)
	for {
		jobs := g.cron.ListJobs()
		if len(jobs) == 1 && jobs[0].Name == rematchJobName {
			if jobs[0].Payload.MinScore != cfg.Rematch.MinScore {
				t.Errorf("minScore = %d, want %d", jobs[0].Payload.MinScore, cfg.Rematch.MinScore)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("rematch job not registered: %+v", jobs)
		}
		time.Sleep(10 * time.Millisecond)
	}

	sigCh <- os.Interrupt

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error: %v", err)
		}
	case <-time.After(7 * time.Second):
		t.Fatal("Run did not exit after signal")
	}

	if counted.closed.Load() != 1 {
		t.Errorf("store closed %d times, want 1", counted.closed.Load())
	}
	if !mock.stopped.Load() {
		t.Error("channel should be stopped after shutdown")
	}
}

func TestGateway_Run_ContextCanceled(t *testing.T) {
	g := newTestGateway(t, testConfig(t), Options{SignalChan: make(chan os.Signal, 1)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error: %v", err)
		}
	case <-time.After(7 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}
	if jobs := g.cron.ListJobs(); len(jobs) != 0 {
		t.Errorf("rematch disabled, got jobs %+v", jobs)
	}
}

func TestGateway_Run_ChannelStartError(t *testing.T) {
	g := newTestGateway(t, testConfig(t), Options{SignalChan: make(chan os.Signal, 1)})
	g.channels.Register(&mockChannel{name: "broken", startErr: errors.New("boom")})

	err := g.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "start channels") {
		t.Errorf("Run error = %v, want start channels failure", err)
	}
}

func TestGateway_Shutdown(t *testing.T) {
	cfg := testConfig(t)
	store, err := report.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	counted := &closeCounter{Store: store}
	g := newTestGateway(t, cfg, Options{Store: counted})

	if err := g.Shutdown(); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}
	if counted.closed.Load() != 1 {
		t.Errorf("store closed %d times, want 1", counted.closed.Load())
	}
}
