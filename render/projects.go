package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/model"
)

// ProjectLimits caps each section of the projects block, 0 disables a section
type ProjectLimits struct {
	Latest  int
	Recent  int
	Popular int
	More    int
}

// ProjectSections holds the repositories picked for each section
// a repository appears in one section at most
type ProjectSections struct {
	Latest  []model.GithubRepository
	Recent  []model.GithubRepository
	Popular []model.GithubRepository
	More    []model.GithubRepository
}

// Len is the number of repositories over all sections
func (s ProjectSections) Len() int {
	return len(s.Latest) + len(s.Recent) + len(s.Popular) + len(s.More)
}

// SelectProjects splits the repositories into sections:
// latest by creation date, recently active by update date, popular by stars and forks,
// then the remaining ones by update date. Each section skips what an earlier one picked
func SelectProjects(repos []model.GithubRepository, limits ProjectLimits) ProjectSections {
	picked := make(map[string]bool, len(repos))

	pick := func(less func(a, b model.GithubRepository) bool, limit int) []model.GithubRepository {
		if limit <= 0 {
			return nil
		}

		candidates := make([]model.GithubRepository, 0, len(repos))
		for _, r := range repos {
			if !picked[r.FullName] {
				candidates = append(candidates, r)
			}
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			if less(candidates[i], candidates[j]) {
				return true
			}

			if less(candidates[j], candidates[i]) {
				return false
			}

			return candidates[i].FullName < candidates[j].FullName
		})

		if len(candidates) > limit {
			candidates = candidates[:limit]
		}

		for _, r := range candidates {
			picked[r.FullName] = true
		}

		return candidates
	}

	byCreation := func(a, b model.GithubRepository) bool { return a.CreatedAt.After(b.CreatedAt) }
	byUpdate := func(a, b model.GithubRepository) bool { return a.UpdatedAt.After(b.UpdatedAt) }
	byPopularity := func(a, b model.GithubRepository) bool {
		if a.Stars+a.Forks != b.Stars+b.Forks {
			return a.Stars+a.Forks > b.Stars+b.Forks
		}

		return a.UpdatedAt.After(b.UpdatedAt)
	}

	var sections ProjectSections
	sections.Latest = pick(byCreation, limits.Latest)
	sections.Recent = pick(byUpdate, limits.Recent)
	sections.Popular = pick(byPopularity, limits.Popular)
	sections.More = pick(byUpdate, limits.More)

	return sections
}

// ProjectsMarkdown renders the sections, empty sections are left out
func ProjectsMarkdown(sections ProjectSections) (string, error) {
	if sections.Len() == 0 {
		return "", ErrNothingToRender
	}

	var b strings.Builder

	for _, section := range []struct {
		title string
		repos []model.GithubRepository
	}{
		{"### Latest Projects", sections.Latest},
		{"### Recently Active Projects", sections.Recent},
		{"### Popular Projects", sections.Popular},
		{"### More Projects", sections.More},
	} {
		if len(section.repos) == 0 {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n")
		}

		b.WriteString(section.title)
		b.WriteString("\n")

		for _, r := range section.repos {
			b.WriteString(ProjectLine(r))
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// ProjectLine formats a repository with its description and its three main languages
func ProjectLine(r model.GithubRepository) string {
	description := strings.Join(strings.Fields(r.Description), " ")
	if description == "" {
		description = "No description provided."
	}

	line := fmt.Sprintf("- [%s](%s): %s", r.Repository, r.URL, description)

	if languages := topLanguages(r, 3); len(languages) > 0 {
		line += "\n  " + strings.Join(languages, " · ")
	}

	return line
}

func topLanguages(r model.GithubRepository, n int) []string {
	usage, err := aggregator.Accumulate([]aggregator.Record{aggregator.FromBytes(r.FullName, r.Languages)})
	if err != nil {
		return nil
	}

	entries, err := aggregator.Rank(usage, n)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}

	return names
}
