package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlinkco/lostfound/internal/bus"
	"github.com/stellarlinkco/lostfound/internal/lexicon"
	"github.com/stellarlinkco/lostfound/internal/match"
	"github.com/stellarlinkco/lostfound/internal/parser"
	"github.com/stellarlinkco/lostfound/internal/report"
)

var baseTime = time.Date(2024, time.June, 12, 9, 0, 0, 0, time.UTC)

// tickClock returns successive minutes after baseTime.
func tickClock() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return baseTime.Add(time.Duration(n) * time.Minute)
	}
}

func newParser(t *testing.T) *parser.Parser {
	t.Helper()
	p, err := parser.New(lexicon.MustDefault(), parser.WithClock(func() time.Time { return baseTime }))
	require.NoError(t, err)
	return p
}

func newResponder(t *testing.T, opts ...Option) (*Responder, *report.JSONStore) {
	t.Helper()
	store, err := report.NewJSONStore(filepath.Join(t.TempDir(), "reports.json"))
	require.NoError(t, err)
	opts = append([]Option{WithClock(tickClock())}, opts...)
	return New(newParser(t), store, opts...), store
}

func inbound(user, username, text string) bus.InboundMessage {
	msg := bus.InboundMessage{
		Channel:  "telegram",
		SenderID: user,
		ChatID:   "chat-" + user,
		Content:  text,
	}
	if username != "" {
		msg.Metadata = map[string]any{"username": username}
	}
	return msg
}

func TestFormatReport(t *testing.T) {
	r := report.Report{Type: report.TypeFound, Item: "wallet", Color: "red", Username: "bob", UserID: "7"}
	assert.Equal(t,
		"Type: Found\nItem: wallet\nColor: red\nLocation: Unknown\nDate: Unknown\nUser: @bob",
		FormatReport(r))

	r = report.Report{Type: report.TypeLost, UserID: "42", DateISO: "2024-05-03", Location: "Room 204"}
	assert.Equal(t,
		"Type: Lost\nItem: Unknown\nColor: Unknown\nLocation: Room 204\nDate: 2024-05-03\nUser: @42",
		FormatReport(r))

	two := FormatReports([]report.Report{r, r})
	assert.Equal(t, FormatReport(r)+"\n\n"+FormatReport(r), two)
	assert.Empty(t, FormatReports(nil))

	scored := FormatMatches([]match.Match{{Report: r, Score: 3}})
	assert.True(t, strings.HasSuffix(scored, "\nScore: 3/5"), scored)
}

func TestCommands(t *testing.T) {
	b, _ := newResponder(t)
	ctx := context.Background()

	tests := []struct {
		text string
		want string
	}{
		{"/start", startText},
		{"/help", helpText},
		{"/help@lostfoundbot", helpText},
		{"/REPORT please", reportText},
		{"/bogus", unknownCommandText},
		{"/", unknownCommandText},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Handle(ctx, inbound("1", "", tt.text)))
		})
	}
	assert.Contains(t, startText, "I lost my red wallet at the library yesterday")
}

func TestUnknownIntent(t *testing.T) {
	b, store := newResponder(t)
	ctx := context.Background()

	for _, text := range []string{"The weather is nice today", "", "   "} {
		assert.Equal(t, unknownText, b.Handle(ctx, inbound("1", "", text)))
	}
	all, err := store.Query(ctx, report.All)
	require.NoError(t, err)
	assert.Empty(t, all, "unknown messages must not be stored")
}

func TestReportAndMatchConversation(t *testing.T) {
	b, store := newResponder(t)
	ctx := context.Background()

	reply := b.Handle(ctx, inbound("7", "bob", "Found a blue water bottle near the gym"))
	assert.Equal(t, "Thanks! I saved your found report. No immediate matches, but I'll keep looking.", reply)

	all, err := store.Query(ctx, report.All)
	require.NoError(t, err)
	require.Len(t, all, 1)
	found := all[0]
	assert.Equal(t, report.TypeFound, found.Type)
	assert.Equal(t, "bottle", found.Item)
	assert.Equal(t, "blue", found.Color)
	assert.Equal(t, "gym", found.Location)
	assert.Equal(t, "7", found.UserID)
	assert.Equal(t, "bob", found.Username)
	assert.Equal(t, "telegram", found.Channel)
	assert.Equal(t, "chat-7", found.ChatID)
	assert.Equal(t, "Found a blue water bottle near the gym", found.Text)

	reply = b.Handle(ctx, inbound("8", "", "I lost my blue bottle at the gym"))
	assert.Equal(t,
		"Thanks! I saved your lost report. Here are potential matches:\n\n"+FormatReport(found),
		reply)

	// A search only looks at found reports.
	reply = b.Handle(ctx, inbound("9", "", "Looking for a blue bottle"))
	assert.Equal(t, "Here are possible matches:\n\n"+FormatReport(found), reply)

	reply = b.Handle(ctx, inbound("9", "", "Looking for a black backpack near cafeteria"))
	assert.Equal(t, noSearchMatchesText, reply)
}

func TestLimitCapsMatches(t *testing.T) {
	b, _ := newResponder(t, WithLimit(2))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		b.Handle(ctx, inbound(fmt.Sprint(i), "", "Found a red umbrella"))
	}
	reply := b.Handle(ctx, inbound("99", "", "I lost my red umbrella"))
	assert.Equal(t, 2, strings.Count(reply, "Type: Found"), reply)
}

func TestMine(t *testing.T) {
	b, _ := newResponder(t)
	ctx := context.Background()

	assert.Equal(t, noReportsText, b.Handle(ctx, inbound("5", "", "/mine")))

	b.Handle(ctx, inbound("5", "eve", "I lost my red wallet"))
	b.Handle(ctx, inbound("6", "", "Found a phone"))
	b.Handle(ctx, inbound("5", "eve", "I lost my black umbrella"))

	reply := b.Handle(ctx, inbound("5", "eve", "/mine"))
	require.True(t, strings.HasPrefix(reply, "Your reports:\n\n"), reply)
	assert.Equal(t, 2, strings.Count(reply, "Type: Lost"))
	assert.NotContains(t, reply, "Type: Found")
	assert.Less(t, strings.Index(reply, "umbrella"), strings.Index(reply, "wallet"), "newest first")
}

type failingRepo struct {
	appendErr error
	queryErr  error
	appended  int
}

func (f *failingRepo) Append(context.Context, report.Report) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended++
	return nil
}

func (f *failingRepo) Query(context.Context, func(report.Report) bool) ([]report.Report, error) {
	return nil, f.queryErr
}

func TestPersistenceFailures(t *testing.T) {
	ctx := context.Background()
	diskGone := fmt.Errorf("%w: disk gone", report.ErrPersistence)

	repo := &failingRepo{appendErr: diskGone, queryErr: diskGone}
	b := New(newParser(t), repo)
	assert.Equal(t, saveFailedText, b.Handle(ctx, inbound("1", "", "I lost my red wallet")))
	assert.Equal(t, searchFailedText, b.Handle(ctx, inbound("1", "", "Looking for a red wallet")))
	assert.Equal(t, searchFailedText, b.Handle(ctx, inbound("1", "", "/mine")))
	assert.NotEqual(t, noSearchMatchesText, searchFailedText)

	// Saved, but the lookup failed.
	repo = &failingRepo{queryErr: diskGone}
	b = New(newParser(t), repo)
	reply := b.Handle(ctx, inbound("1", "", "I lost my red wallet at the library"))
	assert.Equal(t, 1, repo.appended)
	assert.Equal(t, savedLookupFailedText(report.TypeLost), reply)
	assert.NotEqual(t, savedNoMatchesText(report.TypeLost), reply)
	assert.NotEqual(t, saveFailedText, reply)
}

func TestRematch(t *testing.T) {
	b, store := newResponder(t)
	ctx := context.Background()

	b.Handle(ctx, inbound("1", "ann", "I lost my red wallet at the library"))
	b.Handle(ctx, inbound("3", "", "I lost my green scarf"))
	all, err := store.Query(ctx, report.All)
	require.NoError(t, err)
	require.Len(t, all, 2)
	lastOld := all[1].CreatedAt

	b.Handle(ctx, inbound("2", "ben", "Found a red wallet near the library"))
	// Same user as the finder: never notified about their own report.
	b.Handle(ctx, inbound("2", "ben", "I lost my red wallet at the library"))

	notices, err := b.Rematch(ctx, lastOld, baseTime.Add(time.Hour), 3)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	n := notices[0]
	assert.Equal(t, "telegram", n.Channel)
	assert.Equal(t, "chat-1", n.ChatID)
	assert.True(t, strings.HasPrefix(n.Content, "Good news! A new found report may match the lost wallet you reported:"), n.Content)
	assert.Contains(t, n.Content, "User: @ben")
	assert.Equal(t, 4, n.Metadata["score"])

	notices, err = b.Rematch(ctx, lastOld, baseTime.Add(time.Hour), 5)
	require.NoError(t, err)
	assert.Empty(t, notices, "minScore filters weak matches")

	notices, err = b.Rematch(ctx, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), 1)
	require.NoError(t, err)
	assert.Empty(t, notices, "nothing new in the window")
}

func TestRematchPropagatesPersistence(t *testing.T) {
	repo := &failingRepo{queryErr: fmt.Errorf("%w: disk gone", report.ErrPersistence)}
	b := New(newParser(t), repo)
	_, err := b.Rematch(context.Background(), time.Time{}, baseTime, 3)
	assert.ErrorIs(t, err, report.ErrPersistence)
}
