package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/config"
	"github.com/Scalingo/ghlangstats/metrics"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/google/go-github/v66/github"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"

	"golang.org/x/time/rate"
)

type GithubService interface {
	FetchLastHundredRepositories(ctx context.Context, searchQuery model.SearchQuery) ([]model.GithubRepository, error)
	ListUserRepositories(ctx context.Context, username string) ([]model.GithubRepository, error)
	GetRepositoriesLanguages(ctx context.Context, repos []model.GithubRepository) ([]model.GithubRepository, error)
	FetchLanguagesForSingleRepository(ctx context.Context, r model.GithubRepository, swg *sizedwaitgroup.SizedWaitGroup, ch chan<- model.GithubRepositoryLanguages) error

	HandleRequestErrors(err error) error
}

type githubService struct {
	githubClient      *github.Client
	githubRateLimiter *rate.Limiter
	exclusions        *model.ExclusionRules
	config            config.Config
}

// we have two github request with different rate limit
// but the search limit is higher, so we limit to the ListLanguages
// ListLanguages rate limit = 60 calls per hour for non-authenticated and 5000 calls for authenticated
// Search = 30 calls per minute = 1800 calls per hour
func NewGithubService(config config.Config, githubClient *github.Client, rateLimiter *rate.Limiter, exclusions *model.ExclusionRules) GithubService {
	return githubService{
		githubClient:      githubClient,
		githubRateLimiter: rateLimiter,
		exclusions:        exclusions,
		config:            config,
	}
}

func (s githubService) FetchLastHundredRepositories(ctx context.Context, searchQuery model.SearchQuery) ([]model.GithubRepository, error) {
	if !s.githubRateLimiter.Allow() {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return []model.GithubRepository{}, fmt.Errorf("RATE_LIMIT_REACHED")
	}

	log.WithFields(log.Fields{
		"owner":    searchQuery.Owner,
		"licence":  searchQuery.License,
		"language": searchQuery.Language,
	}).Info("fetch last 100 repositories from github with filters")

	// search repositories that match the query filters
	// using this we can limit the number of results directly using Github search API
	// this will limit the number of loops required to filter afterwards
	repos, _, err := s.githubClient.Search.Repositories(
		ctx,
		searchQuery.ToGithubQuery(model.SearchScope{
			PublicOnly:      true,
			IncludeForks:    s.config.Github.IncludeForks,
			IncludeArchived: s.config.Github.IncludeArchived,
		}),
		&github.SearchOptions{
			Sort:  "created",
			Order: "desc",
			ListOptions: github.ListOptions{
				Page:    1,
				PerPage: 100,
			},
		},
	)

	if err != nil {
		metrics.GithubRequests.WithLabelValues("search", "error").Inc()
		return []model.GithubRepository{}, fmt.Errorf("FETCH_ERROR")
	}

	metrics.GithubRequests.WithLabelValues("search", "ok").Inc()

	// build output format for each repo
	repositoriesAggregated := make([]model.GithubRepository, 0)

	for _, r := range repos.Repositories {
		repositoryAggregated, valid := toGithubRepository(r)

		if !valid {
			return []model.GithubRepository{}, fmt.Errorf("INVALID_DATA_FOUND")
		}

		repositoriesAggregated = append(repositoriesAggregated, repositoryAggregated)
	}

	// aggregate and fetch the languages used for each repo using goroutines
	repositoriesAggregated, err = s.GetRepositoriesLanguages(ctx, repositoriesAggregated)

	if err != nil {
		log.WithError(err).Error("unable to get repositories languages")
		return []model.GithubRepository{}, err
	}

	return repositoriesAggregated, nil
}

// ListUserRepositories loads every public repository owned by a user, page by page
// forks, archived and excluded repositories are dropped according to the configuration
func (s githubService) ListUserRepositories(ctx context.Context, username string) ([]model.GithubRepository, error) {
	if username == "" {
		return []model.GithubRepository{}, fmt.Errorf("MISSING_USERNAME")
	}

	opts := &github.RepositoryListByUserOptions{
		Type:      "owner",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			Page:    1,
			PerPage: 100,
		},
	}

	seen := make(map[string]bool)
	repositories := make([]model.GithubRepository, 0)

	for {
		// one token per page
		if !s.githubRateLimiter.Allow() {
			log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
			return []model.GithubRepository{}, fmt.Errorf("RATE_LIMIT_REACHED")
		}

		log.WithFields(log.Fields{
			"username": username,
			"page":     opts.Page,
		}).Debug("list user repositories")

		page, res, err := s.githubClient.Repositories.ListByUser(ctx, username, opts)

		if err != nil {
			metrics.GithubRequests.WithLabelValues("list_repositories", "error").Inc()
			return []model.GithubRepository{}, s.HandleRequestErrors(err)
		}

		metrics.GithubRequests.WithLabelValues("list_repositories", "ok").Inc()

		for _, r := range page {
			repository, valid := toGithubRepository(r)

			if !valid {
				return []model.GithubRepository{}, fmt.Errorf("INVALID_DATA_FOUND")
			}

			if seen[repository.FullName] || !s.keepRepository(repository) {
				continue
			}

			seen[repository.FullName] = true
			repositories = append(repositories, repository)
		}

		if res == nil || res.NextPage == 0 {
			break
		}

		opts.Page = res.NextPage
	}

	log.WithFields(log.Fields{
		"username":             username,
		"numberOfRepositories": len(repositories),
	}).Info("user repositories listed")

	return repositories, nil
}

func (s githubService) keepRepository(r model.GithubRepository) bool {
	logger := log.WithField("repository", r.FullName)

	switch {
	case r.Fork && !s.config.Github.IncludeForks:
		logger.Debug("fork skipped")
		return false
	case r.Archived && !s.config.Github.IncludeArchived:
		logger.Debug("archived repository skipped")
		return false
	case s.exclusions.IsExcluded(r.Repository):
		logger.Debug("repository excluded by rules")
		return false
	}

	return true
}

// GetRepositoriesLanguages will fetch the languages used for each repository in parameters
// this function use wait groups to parallelize the requests for each repository
// if a single repository fails, the whole result is dropped so nothing partial gets aggregated
func (s githubService) GetRepositoriesLanguages(ctx context.Context, repos []model.GithubRepository) ([]model.GithubRepository, error) {

	// count number of repositories where the languages are available for loading
	// if there is not enought request on rate limiter to load all of them, return an error here
	// this avoid to load the languages not completly
	reposWithLanguagesToLoad := 0

	for _, r := range repos {
		if r.MostUsedLanguage != nil {
			reposWithLanguagesToLoad += 1
		}
	}

	if !s.githubRateLimiter.AllowN(time.Now(), reposWithLanguagesToLoad) {
		log.WithField("repositoriesToLoad", reposWithLanguagesToLoad).Warning("not enought requests in rate limiter to load languages for all repositories")
		return []model.GithubRepository{}, fmt.Errorf("RATE_LIMIT_REACHED")
	}

	log.WithFields(log.Fields{
		"numberOfRepositories": reposWithLanguagesToLoad,
	}).Debug("will load languages from all repositories found with main language available")

	// create a group to wait for all goroutines to finish
	swg := sizedwaitgroup.New(s.config.Tasks.MaxParallelTasksAllowed)

	// results carry the repository ID so they can arrive in any order
	results := make(chan model.GithubRepositoryLanguages, len(repos))
	failures := make(chan error, len(repos))

	for _, r := range repos {

		// to avoid to many requests for nothing
		// check if the main language (most used) is available for the repo
		// if not, the ListLanguages will return nil (or empty) and we can avoid executing the request
		if r.MostUsedLanguage == nil {
			log.WithFields(log.Fields{
				"repositoryID": r.ID,
			}).Debug("repository without most used language. skipped from loading languages list")

			results <- model.GithubRepositoryLanguages{RepositoryID: r.ID, Languages: map[string]int{}}
			continue
		}

		swg.Add()
		go func(r model.GithubRepository) {
			if err := s.FetchLanguagesForSingleRepository(ctx, r, &swg, results); err != nil {
				failures <- err
			}
		}(r)
	}

	// wait for all tasks to be finished
	log.Debug("waiting for all threads for loading repositories to be finished")
	swg.Wait()
	log.Debug("all threads for loading repositories languages finished")

	close(results)
	close(failures)

	if err, failed := <-failures; failed {
		return []model.GithubRepository{}, err
	}

	langMap := make(map[int64]map[string]int)
	for result := range results {
		langMap[result.RepositoryID] = result.Languages
	}

	// work on a copy, the caller slice is left untouched
	loaded := make([]model.GithubRepository, len(repos))
	copy(loaded, repos)

	for i := range loaded {
		if lang, found := langMap[loaded[i].ID]; found {
			loaded[i].Languages = lang
		}
	}

	return loaded, nil
}

// FetchLanguagesForSingleRepository get the languages for a specific repository
// It will add the results to a channel and use a goroutine
// note: we are not checking the rate limit in this function, because done in the parent function
// note: take care if you call this function from another function
func (s githubService) FetchLanguagesForSingleRepository(ctx context.Context, r model.GithubRepository, swg *sizedwaitgroup.SizedWaitGroup, ch chan<- model.GithubRepositoryLanguages) error {
	defer swg.Done()

	log.WithFields(log.Fields{
		"repositoryID":     r.ID,
		"mostUsedLanguage": r.MostUsedLanguage,
	}).Debug("fetch languages for repository")

	res, _, err := s.githubClient.Repositories.ListLanguages(
		ctx,
		r.Owner,
		r.Repository,
	)

	if err != nil {
		metrics.GithubRequests.WithLabelValues("languages", "error").Inc()
		return s.HandleRequestErrors(err)
	}

	metrics.GithubRequests.WithLabelValues("languages", "ok").Inc()

	if res == nil {
		res = map[string]int{}
	}

	ch <- model.GithubRepositoryLanguages{RepositoryID: r.ID, Languages: res}
	return nil
}

// HandleRequestErrors manage errors including github rate limit errors at the same location
// If error is a rate limit error, this function will update the local rate limiter to consume all available requests
// this can help us to keep the local rate limiter up to date
func (s githubService) HandleRequestErrors(err error) error {
	var rateLimitErr *github.RateLimitError

	if errors.As(err, &rateLimitErr) {
		metrics.GithubRequests.WithLabelValues("any", "rate_limited").Inc()

		if !s.githubRateLimiter.AllowN(time.Now(), s.githubRateLimiter.Burst()) {
			return fmt.Errorf("RATE_LIMITER_ERROR")
		}

		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return fmt.Errorf("RATE_LIMIT_REACHED")
	}

	log.WithError(err).Error("error catched when fetching data from github")
	return fmt.Errorf("FETCH_ERROR")
}

// toGithubRepository converts an API repository, returns false when mandatory fields are missing
func toGithubRepository(r *github.Repository) (model.GithubRepository, bool) {
	if r == nil || r.FullName == nil || r.Owner == nil || r.Owner.Login == nil || r.Name == nil {
		log.WithFields(log.Fields{
			"repositoryID": r.GetID(),
		}).Debug("repository found with invalid information. skipped")

		return model.GithubRepository{}, false
	}

	repository := model.GithubRepository{
		ID:               r.GetID(),
		FullName:         *r.FullName,
		Owner:            *r.Owner.Login,
		Repository:       *r.Name,
		MostUsedLanguage: r.Language,
		Description:      r.GetDescription(),
		URL:              r.GetHTMLURL(),
		Stars:            r.GetStargazersCount(),
		Forks:            r.GetForksCount(),
		Fork:             r.GetFork(),
		Archived:         r.GetArchived(),
		CreatedAt:        r.GetCreatedAt().Time,
		UpdatedAt:        r.GetUpdatedAt().Time,
	}

	// extract licence info
	// licence can be null or empty for some repositories
	if r.License != nil {
		repository.Licence = r.License.Key
	}

	return repository, true
}

// BuildRecords converts loaded repositories into aggregation records using a single unit
func BuildRecords(repos []model.GithubRepository, unit aggregator.Unit) []aggregator.Record {
	records := make([]aggregator.Record, 0, len(repos))

	for _, r := range repos {
		records = append(records, aggregator.BuildRecord(unit, r.FullName, r.Languages))
	}

	return records
}

// TotalStars sums the stargazers of the repositories
func TotalStars(repos []model.GithubRepository) int {
	total := 0
	for _, r := range repos {
		total += r.Stars
	}

	return total
}
