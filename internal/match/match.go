// Package match scores stored reports against search criteria and ranks them.
package match

import (
	"context"
	"sort"
	"strings"

	"github.com/stellarlinkco/lostfound/internal/report"
)

const (
	// DefaultLimit is the number of matches a reply shows unless configured.
	DefaultLimit = 5

	// MaxScore is the score of a report matching every criterion.
	MaxScore = WeightItem + WeightColor + WeightLocation + WeightDate
)

const (
	WeightItem     = 2
	WeightColor    = 1
	WeightLocation = 1
	WeightDate     = 1
)

// Criteria is a partial set of report attributes. Empty fields are ignored.
// Type is a filter, not a scored dimension.
type Criteria struct {
	Type     report.Type
	Item     string
	Color    string
	Location string
	DateISO  string
}

// FromReport returns criteria that look for reports of the opposite type
// sharing r's attributes.
func FromReport(r report.Report) Criteria {
	return Criteria{
		Type:     r.Type.Opposite(),
		Item:     r.Item,
		Color:    r.Color,
		Location: r.Location,
		DateISO:  r.DateISO,
	}
}

// Allows reports whether r passes the type filter.
func (c Criteria) Allows(r report.Report) bool {
	return c.Type == "" || r.Type == c.Type
}

// Score is the relevance of r to c: item and location match by
// case-insensitive substring, color case-insensitively, date exactly.
func Score(r report.Report, c Criteria) int {
	s := 0
	if c.Item != "" && strings.Contains(strings.ToLower(r.Item), strings.ToLower(c.Item)) {
		s += WeightItem
	}
	if c.Color != "" && strings.EqualFold(r.Color, c.Color) {
		s += WeightColor
	}
	if c.Location != "" && strings.Contains(strings.ToLower(r.Location), strings.ToLower(c.Location)) {
		s += WeightLocation
	}
	if c.DateISO != "" && r.DateISO == c.DateISO {
		s += WeightDate
	}
	return s
}

// Match is a report with its score.
type Match struct {
	Report report.Report
	Score  int
}

// RankScored filters by type, scores, drops zero scores and returns at most
// limit matches ordered by descending score. Equal scores keep input order.
// A limit of zero or less yields no matches.
func RankScored(records []report.Report, c Criteria, limit int) []Match {
	if limit <= 0 {
		return []Match{}
	}
	matches := make([]Match, 0, len(records))
	for _, r := range records {
		if !c.Allows(r) {
			continue
		}
		if s := Score(r, c); s > 0 {
			matches = append(matches, Match{Report: r, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Rank is RankScored without the scores.
func Rank(records []report.Report, c Criteria, limit int) []report.Report {
	return reportsOf(RankScored(records, c, limit))
}

func reportsOf(ms []Match) []report.Report {
	out := make([]report.Report, len(ms))
	for i, m := range ms {
		out[i] = m.Report
	}
	return out
}

// FindScored queries repo with the type filter and ranks the result.
func FindScored(ctx context.Context, repo report.Repository, c Criteria, limit int) ([]Match, error) {
	records, err := repo.Query(ctx, c.Allows)
	if err != nil {
		return nil, err
	}
	return RankScored(records, c, limit), nil
}

// FindMatches queries repo and returns the ranked reports.
func FindMatches(ctx context.Context, repo report.Repository, c Criteria, limit int) ([]report.Report, error) {
	scored, err := FindScored(ctx, repo, c, limit)
	if err != nil {
		return nil, err
	}
	return reportsOf(scored), nil
}
