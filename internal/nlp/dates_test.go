package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaturalDateParser(t *testing.T) {
	p := NewNaturalDateParser()
	now := time.Date(2024, time.June, 12, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want string
	}{
		{"2024-05-03", "2024-05-03"},
		{"5/3/2024", "2024-05-03"},
		{"5/3", "2024-05-03"},
		{"May 3rd, 2024", "2024-05-03"},
		{"3rd of May", "2024-05-03"},
		{"Sept. 9", "2023-09-09"},
		{"December 20", "2023-12-20"},
		{"June 12", "2024-06-12"},
		{"March 5", "2024-03-05"},
		{"today", "2024-06-12"},
		{"tonight", "2024-06-12"},
		{"this morning", "2024-06-12"},
		{"3 days ago", "2024-06-09"},
		{"1 day ago", "2024-06-11"},
		{"monday", "2024-06-10"},
		{"Friday", "2024-06-07"},
		{"wednesday", "2024-06-12"},
		{"last wednesday", "2024-06-05"},
		{"last monday", "2024-06-10"},
		{"last night", "2024-06-11"},
		{"this week", "2024-06-12"},
		{"last week", "2024-06-05"},
		{"last month", "2024-05-12"},
		{"last weekend", "2024-06-08"},
		{"this weekend", "2024-06-15"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := p.ParseDate(tt.expr, now)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestNaturalDateParserWeekday(t *testing.T) {
	p := NewNaturalDateParser()
	now := time.Date(2024, time.June, 12, 15, 30, 0, 0, time.UTC) // Wednesday

	got, ok := p.ParseDate("next friday", now)
	require.True(t, ok)
	assert.Equal(t, time.Friday, got.Weekday())
	assert.True(t, got.After(now))
	assert.Zero(t, got.Hour())
}

func TestNaturalDateParserRejects(t *testing.T) {
	p := NewNaturalDateParser()
	now := time.Now()

	for _, expr := range []string{"", "   ", "wallet", "blue umbrella"} {
		_, ok := p.ParseDate(expr, now)
		assert.False(t, ok, expr)
	}
}
