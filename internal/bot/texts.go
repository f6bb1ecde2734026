package bot

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stellarlinkco/lostfound/internal/match"
	"github.com/stellarlinkco/lostfound/internal/report"
)

const (
	startText = "Hi! I help match lost and found items.\n" +
		"Describe what you lost/found, for example:\n" +
		"- I lost my red wallet at the library yesterday\n" +
		"- Found a blue water bottle near the gym\n" +
		"Or search: 'Looking for a black backpack near cafeteria'"

	helpText = "Tips:\n\n" +
		"Include item, color, location, and date/time if possible.\n" +
		"Examples:\n" +
		"- I lost my gray headphones in Room 204 on Monday\n" +
		"- I found a set of keys by Parking Lot B today\n" +
		"- Looking for a calculator left in the library\n\n" +
		"Commands: /start /help /report /mine"

	reportText = "Please send a message describing the item. Example: 'I lost my red wallet at the library yesterday'"

	unknownText = "I didn't quite get that. Please say if you 'lost' or 'found' something, " +
		"for example: 'I lost my red wallet at the library yesterday'."

	unknownCommandText = "I don't know that command. Try /help."

	noSearchMatchesText = "I couldn't find any matches. Try adding color, location, or date."

	saveFailedText   = "Sorry, I couldn't save your report right now. Please try again in a moment."
	searchFailedText = "Sorry, I couldn't search reports right now. Please try again in a moment."

	noReportsText = "You haven't filed any reports yet. " + reportText
)

func savedWithMatchesText(t report.Type, formatted string) string {
	return fmt.Sprintf("Thanks! I saved your %s report. Here are potential matches:\n\n%s", t, formatted)
}

func savedNoMatchesText(t report.Type) string {
	return fmt.Sprintf("Thanks! I saved your %s report. No immediate matches, but I'll keep looking.", t)
}

func savedLookupFailedText(t report.Type) string {
	return fmt.Sprintf("Thanks! I saved your %s report, but I couldn't look for matches right now. "+
		"I'll check again later.", t)
}

func searchMatchesText(formatted string) string {
	return "Here are possible matches:\n\n" + formatted
}

func mineText(formatted string) string {
	return "Your reports:\n\n" + formatted
}

func rematchText(fresh, older report.Report) string {
	return fmt.Sprintf("Good news! A new %s report may match the %s %s you reported:\n\n%s",
		fresh.Type, older.Type, orUnknown(older.Item), FormatReport(fresh))
}

// FormatReport renders r as the multi-line block shown to users. Missing
// attributes read "Unknown"; the user line prefers the username.
func FormatReport(r report.Report) string {
	user := r.Username
	if user == "" {
		user = r.UserID
	}
	return strings.Join([]string{
		"Type: " + cases.Title(language.English).String(string(r.Type)),
		"Item: " + orUnknown(r.Item),
		"Color: " + orUnknown(r.Color),
		"Location: " + orUnknown(r.Location),
		"Date: " + orUnknown(r.DateISO),
		"User: @" + user,
	}, "\n")
}

// FormatReports joins formatted reports with blank lines.
func FormatReports(rs []report.Report) string {
	blocks := make([]string, len(rs))
	for i, r := range rs {
		blocks[i] = FormatReport(r)
	}
	return strings.Join(blocks, "\n\n")
}

// FormatMatches is FormatReports with each block followed by its score.
func FormatMatches(ms []match.Match) string {
	blocks := make([]string, len(ms))
	for i, m := range ms {
		blocks[i] = fmt.Sprintf("%s\nScore: %d/%d", FormatReport(m.Report), m.Score, match.MaxScore)
	}
	return strings.Join(blocks, "\n\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
