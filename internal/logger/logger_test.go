package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"off", "disabled"},
		{"", "info"},
		{"  nonsense ", "info"},
	}
	for _, c := range cases {
		if got := parseLevel(c.in).String(); got != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInitNamedAndChat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:        "debug",
		Format:       "json",
		Service:      "lostfound-test",
		Writer:       &buf,
		StaticFields: map[string]string{"build": "test"},
	})

	Get().Info().Msg("root-msg")
	Named("gateway").Info().Msg("named-msg")

	ctx := WithChat(context.Background(), "telegram", "42")
	C(ctx).Info().Msg("chat-msg")
	C(context.Background()).Info().Msg("bare-msg")

	out := buf.String()
	for _, want := range []string{
		"root-msg", "named-msg", "chat-msg", "bare-msg",
		`"component":"gateway"`,
		`"channel":"telegram"`,
		`"chat_id":"42"`,
		`"service":"lostfound-test"`,
		`"build":"test"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}

	// Init is a one-shot.
	Init(Options{Level: "error", Writer: &bytes.Buffer{}})
	Get().Info().Msg("after-reinit")
	if !strings.Contains(buf.String(), "after-reinit") {
		t.Fatal("second Init replaced the root logger")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOSTFOUND_LOG_LEVEL", "WARN")
	t.Setenv("LOSTFOUND_LOG_FORMAT", "json")
	t.Setenv("LOSTFOUND_LOG_CALLER", "true")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || !opt.WithCaller {
		t.Fatalf("FromEnv() = %+v", opt)
	}
	if opt.Service != "lostfound" {
		t.Fatalf("Service = %q", opt.Service)
	}
}
