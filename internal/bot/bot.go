// Package bot turns inbound chat messages into replies: it files lost and
// found reports, looks up candidate matches and answers searches.
package bot

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/stellarlinkco/lostfound/internal/bus"
	"github.com/stellarlinkco/lostfound/internal/logger"
	"github.com/stellarlinkco/lostfound/internal/match"
	"github.com/stellarlinkco/lostfound/internal/parser"
	"github.com/stellarlinkco/lostfound/internal/report"
)

// Option configures a Responder.
type Option func(*Responder)

// WithLimit caps the number of matches in a reply.
func WithLimit(n int) Option {
	return func(r *Responder) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithClock sets the creation time source for new reports.
func WithClock(now func() time.Time) Option {
	return func(r *Responder) { r.now = now }
}

// Responder answers one message at a time. It holds no per-chat state and
// is safe for concurrent use.
type Responder struct {
	parser *parser.Parser
	repo   report.Repository
	limit  int
	now    func() time.Time
}

func New(p *parser.Parser, repo report.Repository, opts ...Option) *Responder {
	r := &Responder{
		parser: p,
		repo:   repo,
		limit:  match.DefaultLimit,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle returns the reply to msg. Storage failures are logged and answered
// with an apology rather than returned.
func (r *Responder) Handle(ctx context.Context, msg bus.InboundMessage) string {
	text := strings.TrimSpace(msg.Content)
	if cmd, ok := command(text); ok {
		return r.handleCommand(ctx, cmd, msg)
	}

	parsed := r.parser.Parse(text)
	logger.C(ctx).Debug().
		Str("intent", parsed.Intent.String()).
		Str("item", parsed.Item).
		Str("color", parsed.Color).
		Str("location", parsed.Location).
		Str("date", parsed.DateISO).
		Msg("parsed message")

	switch parsed.Intent {
	case parser.IntentLost, parser.IntentFound:
		return r.fileReport(ctx, msg, parsed)
	case parser.IntentSearch:
		return r.search(ctx, parsed)
	}
	return unknownText
}

func (r *Responder) fileReport(ctx context.Context, msg bus.InboundMessage, parsed parser.ParsedUtterance) string {
	log := logger.C(ctx)

	rep := report.New(report.Type(parsed.Intent))
	rep.Item = parsed.Item
	rep.Color = parsed.Color
	rep.Location = parsed.Location
	rep.DateISO = parsed.DateISO
	rep.UserID = msg.SenderID
	rep.Username = msg.Username()
	rep.Text = msg.Content
	rep.Channel = msg.Channel
	rep.ChatID = msg.ChatID
	rep.CreatedAt = r.now().UTC()

	if err := r.repo.Append(ctx, rep); err != nil {
		log.Error().Err(err).Msg("save report failed")
		return saveFailedText
	}
	log.Info().Str("report_id", rep.ID).Str("type", string(rep.Type)).Msg("report saved")

	matches, err := match.FindMatches(ctx, r.repo, match.FromReport(rep), r.limit)
	if err != nil {
		log.Error().Err(err).Msg("match lookup failed")
		return savedLookupFailedText(rep.Type)
	}
	if len(matches) == 0 {
		return savedNoMatchesText(rep.Type)
	}
	return savedWithMatchesText(rep.Type, FormatReports(matches))
}

func (r *Responder) search(ctx context.Context, parsed parser.ParsedUtterance) string {
	c := match.Criteria{
		Type:     report.TypeFound,
		Item:     parsed.Item,
		Color:    parsed.Color,
		Location: parsed.Location,
		DateISO:  parsed.DateISO,
	}
	matches, err := match.FindMatches(ctx, r.repo, c, r.limit)
	if err != nil {
		logger.C(ctx).Error().Err(err).Msg("search failed")
		return searchFailedText
	}
	if len(matches) == 0 {
		return noSearchMatchesText
	}
	return searchMatchesText(FormatReports(matches))
}

// command recognizes "/name" or "/name@botname" as the first word.
func command(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(word, '@'); at >= 0 {
		word = word[:at]
	}
	return strings.ToLower(word), true
}

func (r *Responder) handleCommand(ctx context.Context, cmd string, msg bus.InboundMessage) string {
	switch cmd {
	case "start":
		return startText
	case "help":
		return helpText
	case "report":
		return reportText
	case "mine":
		return r.mine(ctx, msg.SenderID)
	}
	return unknownCommandText
}

// mine lists the sender's reports, newest first.
func (r *Responder) mine(ctx context.Context, userID string) string {
	if userID == "" {
		return noReportsText
	}
	reports, err := r.repo.Query(ctx, report.ByUser(userID))
	if err != nil {
		logger.C(ctx).Error().Err(err).Msg("list reports failed")
		return searchFailedText
	}
	if len(reports) == 0 {
		return noReportsText
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	if len(reports) > r.limit {
		reports = reports[:r.limit]
	}
	return mineText(FormatReports(reports))
}
