package bot

import (
	"context"
	"sort"
	"time"

	"github.com/stellarlinkco/lostfound/internal/bus"
	"github.com/stellarlinkco/lostfound/internal/logger"
	"github.com/stellarlinkco/lostfound/internal/match"
	"github.com/stellarlinkco/lostfound/internal/report"
)

// Rematch looks at reports created in (since, until] and, for each, ranks
// the opposite-type reports filed before it. Every earlier report scoring at
// least minScore gets a notice addressed to the chat it came from. Reports
// without a chat, or filed by the same user, are skipped.
func (r *Responder) Rematch(ctx context.Context, since, until time.Time, minScore int) ([]bus.OutboundMessage, error) {
	records, err := r.repo.Query(ctx, report.All)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	var out []bus.OutboundMessage
	for i, fresh := range records {
		if !fresh.CreatedAt.After(since) || fresh.CreatedAt.After(until) {
			continue
		}
		for _, m := range match.RankScored(records[:i], match.FromReport(fresh), r.limit) {
			older := m.Report
			if m.Score < minScore || older.ChatID == "" || older.Channel == "" {
				continue
			}
			if older.UserID != "" && older.UserID == fresh.UserID {
				continue
			}
			out = append(out, bus.OutboundMessage{
				Channel: older.Channel,
				ChatID:  older.ChatID,
				Content: rematchText(fresh, older),
				Metadata: map[string]any{
					"report_id": older.ID,
					"match_id":  fresh.ID,
					"score":     m.Score,
				},
			})
		}
	}

	logger.Named("rematch").Debug().
		Time("since", since).
		Time("until", until).
		Int("notices", len(out)).
		Msg("sweep done")
	return out, nil
}
