package service

import (
	"context"
	"fmt"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/metrics"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/shurcooL/githubv4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

type ProfileService interface {
	FetchProfile(ctx context.Context, login string) (model.Profile, error)
}

type profileService struct {
	client       *githubv4.Client
	exclusions   *model.ExclusionRules
	includeForks bool
}

type profileQuery struct {
	User struct {
		Login                   githubv4.String
		Name                    githubv4.String
		ContributionsCollection struct {
			TotalCommitContributions                githubv4.Int
			TotalIssueContributions                 githubv4.Int
			TotalPullRequestContributions           githubv4.Int
			TotalPullRequestReviewContributions     githubv4.Int
			TotalRepositoriesWithContributedCommits githubv4.Int
		}
		Repositories struct {
			TotalCount githubv4.Int
			Nodes      []struct {
				Name           githubv4.String
				StargazerCount githubv4.Int
				Languages      struct {
					Nodes []struct {
						Name githubv4.String
					}
				} `graphql:"languages(first: 10, orderBy: {field: SIZE, direction: DESC})"`
			}
			PageInfo struct {
				HasNextPage githubv4.Boolean
				EndCursor   githubv4.String
			}
		} `graphql:"repositories(first: 100, privacy: PUBLIC, ownerAffiliations: OWNER, isFork: $isFork, after: $after)"`
	} `graphql:"user(login: $login)"`
}

// NewGraphQLClient returns a client authenticated with a static token
// the GraphQL API refuses anonymous calls
func NewGraphQLClient(ctx context.Context, token string) *githubv4.Client {
	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)

	return githubv4.NewClient(oauth2.NewClient(ctx, src))
}

// NewProfileService builds the GraphQL data source, includeForks mirrors Github.IncludeForks
// so both data sources count the same repositories
func NewProfileService(client *githubv4.Client, exclusions *model.ExclusionRules, includeForks bool) ProfileService {
	return profileService{
		client:       client,
		exclusions:   exclusions,
		includeForks: includeForks,
	}
}

// FetchProfile loads the account statistics and the top languages of each public repository
func (s profileService) FetchProfile(ctx context.Context, login string) (model.Profile, error) {
	if login == "" {
		return model.Profile{}, fmt.Errorf("MISSING_USERNAME")
	}

	variables := map[string]interface{}{
		"login":  githubv4.String(login),
		"after":  (*githubv4.String)(nil),
		"isFork": githubv4.NewBoolean(false),
	}

	// a null isFork returns forks and sources alike
	if s.includeForks {
		variables["isFork"] = (*githubv4.Boolean)(nil)
	}

	profile := model.Profile{
		Login:     login,
		Languages: make(map[string][]string),
	}

	for {
		var q profileQuery

		if err := s.client.Query(ctx, &q, variables); err != nil {
			metrics.GithubRequests.WithLabelValues("graphql_profile", "error").Inc()
			log.WithError(err).WithField("login", login).Error("unable to query github profile")
			return model.Profile{}, fmt.Errorf("FETCH_ERROR")
		}

		metrics.GithubRequests.WithLabelValues("graphql_profile", "ok").Inc()

		user := q.User
		profile.Name = string(user.Name)
		profile.TotalRepositories = int(user.Repositories.TotalCount)
		profile.TotalCommitContributions = int(user.ContributionsCollection.TotalCommitContributions)
		profile.TotalIssueContributions = int(user.ContributionsCollection.TotalIssueContributions)
		profile.TotalPullRequests = int(user.ContributionsCollection.TotalPullRequestContributions)
		profile.TotalPullRequestReviews = int(user.ContributionsCollection.TotalPullRequestReviewContributions)
		profile.RepositoriesContributedTo = int(user.ContributionsCollection.TotalRepositoriesWithContributedCommits)

		for _, repo := range user.Repositories.Nodes {
			name := string(repo.Name)

			if s.exclusions.IsExcluded(name) {
				log.WithField("repository", name).Debug("repository excluded by rules")
				continue
			}

			profile.TotalStars += int(repo.StargazerCount)

			languages := make([]string, 0, len(repo.Languages.Nodes))
			for _, lang := range repo.Languages.Nodes {
				languages = append(languages, string(lang.Name))
			}

			profile.Languages[name] = languages
		}

		if !user.Repositories.PageInfo.HasNextPage {
			break
		}

		variables["after"] = githubv4.NewString(user.Repositories.PageInfo.EndCursor)
	}

	log.WithFields(log.Fields{
		"login":        login,
		"repositories": len(profile.Languages),
		"stars":        profile.TotalStars,
	}).Info("github profile loaded")

	return profile, nil
}

// ProfileRecords counts every language listed by a repository once
func ProfileRecords(profile model.Profile) []aggregator.Record {
	records := make([]aggregator.Record, 0, len(profile.Languages))

	for repository, languages := range profile.Languages {
		records = append(records, aggregator.FromPresence(repository, languages))
	}

	return records
}
