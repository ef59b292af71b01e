package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/dustin/go-humanize"
)

// Markdown renders the stats fragment
// profile is optional, when given the account totals are printed above the languages
func Markdown(entries []aggregator.RankedEntry, unit aggregator.Unit, profile *model.Profile) (string, error) {
	if len(entries) == 0 {
		return "", ErrNothingToRender
	}

	var b strings.Builder

	if profile != nil {
		b.WriteString(fmt.Sprintf("**Total Stars:** %s\n\n", humanize.Comma(int64(profile.TotalStars))))
		b.WriteString(fmt.Sprintf("**Public Repositories:** %s\n\n", humanize.Comma(int64(profile.TotalRepositories))))
		b.WriteString(fmt.Sprintf("**Commits:** %s · **Pull Requests:** %s · **Issues:** %s · **Reviews:** %s\n\n",
			humanize.Comma(int64(profile.TotalCommitContributions)),
			humanize.Comma(int64(profile.TotalPullRequests)),
			humanize.Comma(int64(profile.TotalIssueContributions)),
			humanize.Comma(int64(profile.TotalPullRequestReviews)),
		))
	}

	b.WriteString("**Top Languages:**\n")

	for _, e := range entries {
		b.WriteString(MarkdownLine(e, unit))
		b.WriteString("\n")
	}

	return b.String(), nil
}

// MarkdownLine formats one ranked entry
func MarkdownLine(e aggregator.RankedEntry, unit aggregator.Unit) string {
	if unit == aggregator.UnitRepositories {
		return fmt.Sprintf("- %s (%d)", e.Name, int64(math.Round(e.Weight)))
	}

	return fmt.Sprintf("- **%s**: %s bytes (%s%%)", e.Name, humanize.Comma(int64(math.Round(e.Weight))), formatPercent(e.Percent))
}
