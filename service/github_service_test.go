package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/config"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/google/go-github/v66/github"
	githubMock "github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/remeh/sizedwaitgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// TestFetchLastHundredRepositories will test function FetchLastHundredRepositories
func TestFetchLastHundredRepositories(t *testing.T) {
	tests := []struct {
		name                     string
		searchQuery              model.SearchQuery
		mockResponseRepositories github.RepositoriesSearchResult
		mockResponseLanguages    map[string]int
		rateLimit                int
		expectedRepos            []model.GithubRepository
		expectError              bool
		expectedErrMsg           string
	}{
		{
			name:        "Single repository without search",
			rateLimit:   60,
			searchQuery: model.SearchQuery{},
			mockResponseRepositories: github.RepositoriesSearchResult{
				Repositories: []*github.Repository{
					{
						ID:              github.Int64(1),
						FullName:        github.String("test/repo1"),
						Owner:           &github.User{Login: github.String("test-owner")},
						Name:            github.String("repo1"),
						Language:        github.String("Go"),
						StargazersCount: github.Int(3),
					},
				},
			},
			mockResponseLanguages: map[string]int{
				"Go": 10,
			},
			expectedRepos: []model.GithubRepository{
				{
					ID:               1,
					FullName:         "test/repo1",
					Owner:            "test-owner",
					Repository:       "repo1",
					MostUsedLanguage: github.String("Go"),
					Stars:            3,
					Languages: map[string]int{
						"Go": 10,
					},
				},
			},
			expectError: false,
		},
		{
			name:      "Multiple repository search by language",
			rateLimit: 60,
			searchQuery: model.SearchQuery{
				Language: "Java",
			},
			mockResponseRepositories: github.RepositoriesSearchResult{
				Repositories: []*github.Repository{
					{
						ID:       github.Int64(2),
						FullName: github.String("Owner2/repo2"),
						Owner:    &github.User{Login: github.String("Owner2")},
						Name:     github.String("repo2"),
						Language: github.String("Java"),
						License:  &github.License{Key: github.String("mit")},
					},
				},
			},
			mockResponseLanguages: map[string]int{
				"Java": 200,
			},
			expectedRepos: []model.GithubRepository{
				{
					ID:               2,
					FullName:         "Owner2/repo2",
					Owner:            "Owner2",
					Repository:       "repo2",
					Licence:          github.String("mit"),
					MostUsedLanguage: github.String("Java"),
					Languages: map[string]int{
						"Java": 200,
					},
				},
			},
			expectError: false,
		},
		{
			name:        "Invalid data for specific repository",
			rateLimit:   60,
			searchQuery: model.SearchQuery{},
			mockResponseRepositories: github.RepositoriesSearchResult{
				Repositories: []*github.Repository{
					{
						ID:       github.Int64(2),
						FullName: github.String("Owner2/repo2"),
						Name:     github.String("repo2"),
						Language: github.String("Java"),
					},
				},
			},
			expectedRepos:  []model.GithubRepository{},
			expectError:    true,
			expectedErrMsg: "INVALID_DATA_FOUND",
		},
		{
			name:        "Two repositories with rate limit",
			rateLimit:   1,
			searchQuery: model.SearchQuery{},
			mockResponseRepositories: github.RepositoriesSearchResult{
				Repositories: []*github.Repository{
					{
						ID:       github.Int64(1),
						FullName: github.String("test/repo1"),
						Owner:    &github.User{Login: github.String("test-owner")},
						Name:     github.String("repo1"),
						Language: github.String("Go"),
					},
					{
						ID:       github.Int64(2),
						FullName: github.String("Owner2/repo2"),
						Owner:    &github.User{Login: github.String("Owner2")},
						Name:     github.String("repo2"),
						Language: github.String("Java"),
					},
				},
			},
			expectedRepos:  []model.GithubRepository{},
			expectError:    true,
			expectedErrMsg: "RATE_LIMIT_REACHED",
		},
	}

	// execute tests
	for _, tt := range tests {

		t.Run(tt.name, func(t *testing.T) {
			mockedHTTPClient := githubMock.NewMockedHTTPClient(
				githubMock.WithRequestMatchHandler(
					githubMock.GetSearchRepositories,
					http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
						_, err := w.Write(githubMock.MustMarshal(tt.mockResponseRepositories))

						if err != nil {
							t.Error("unable to configure mock http client")
						}
					}),
				),
				githubMock.WithRequestMatchHandler(
					githubMock.GetReposLanguagesByOwnerByRepo,
					http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
						_, err := w.Write(githubMock.MustMarshal(tt.mockResponseLanguages))

						if err != nil {
							t.Error("unable to configure mock http client")
						}
					}),
				),
			)

			// setup github service using default config and mocked client
			mockedRateLimiter := rate.NewLimiter(rate.Every(time.Hour), tt.rateLimit)
			mockedGithubClient := github.NewClient(mockedHTTPClient)
			conf := config.GetDefault()
			svc := NewGithubService(*conf, mockedGithubClient, mockedRateLimiter, nil)

			repos, err := svc.FetchLastHundredRepositories(context.Background(), tt.searchQuery)

			if tt.expectError {
				assert.Error(t, err)
				assert.EqualError(t, err, tt.expectedErrMsg)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.expectedRepos, repos)
		})
	}
}

// TestListUserRepositories will test function ListUserRepositories
func TestListUserRepositories(t *testing.T) {
	firstPage := []github.Repository{
		{
			ID:              github.Int64(1),
			FullName:        github.String("octocat/hello"),
			Owner:           &github.User{Login: github.String("octocat")},
			Name:            github.String("hello"),
			Language:        github.String("Go"),
			StargazersCount: github.Int(5),
		},
		{
			ID:       github.Int64(2),
			FullName: github.String("octocat/forked"),
			Owner:    &github.User{Login: github.String("octocat")},
			Name:     github.String("forked"),
			Fork:     github.Bool(true),
		},
	}

	secondPage := []github.Repository{
		{
			ID:       github.Int64(3),
			FullName: github.String("octocat/old"),
			Owner:    &github.User{Login: github.String("octocat")},
			Name:     github.String("old"),
			Archived: github.Bool(true),
		},
		{
			ID:       github.Int64(4),
			FullName: github.String("octocat/tmp-playground"),
			Owner:    &github.User{Login: github.String("octocat")},
			Name:     github.String("tmp-playground"),
		},
		{
			ID:       github.Int64(5),
			FullName: github.String("octocat/site"),
			Owner:    &github.User{Login: github.String("octocat")},
			Name:     github.String("site"),
			Language: github.String("HTML"),
		},
		{
			ID:              github.Int64(1),
			FullName:        github.String("octocat/hello"),
			Owner:           &github.User{Login: github.String("octocat")},
			Name:            github.String("hello"),
			Language:        github.String("Go"),
			StargazersCount: github.Int(5),
		},
	}

	tests := []struct {
		name          string
		username      string
		forks         bool
		archived      bool
		rateLimit     int
		expectedNames []string
		expectedErr   string
	}{
		{
			name:          "Default filters",
			username:      "octocat",
			rateLimit:     60,
			expectedNames: []string{"octocat/hello", "octocat/site"},
		},
		{
			name:          "Forks and archived included",
			username:      "octocat",
			forks:         true,
			archived:      true,
			rateLimit:     60,
			expectedNames: []string{"octocat/hello", "octocat/forked", "octocat/old", "octocat/site"},
		},
		{
			name:        "Missing username",
			username:    "",
			rateLimit:   60,
			expectedErr: "MISSING_USERNAME",
		},
		{
			name:        "Rate limit reached on second page",
			username:    "octocat",
			rateLimit:   1,
			expectedErr: "RATE_LIMIT_REACHED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockedHTTPClient := githubMock.NewMockedHTTPClient(
				githubMock.WithRequestMatchPages(
					githubMock.GetUsersReposByUsername,
					firstPage,
					secondPage,
				),
			)

			conf := config.GetDefault()
			conf.Github.IncludeForks = tt.forks
			conf.Github.IncludeArchived = tt.archived

			exclusions := &model.ExclusionRules{Prefixes: []string{"tmp-"}}
			exclusions.Compile()

			svc := NewGithubService(*conf, github.NewClient(mockedHTTPClient), rate.NewLimiter(rate.Every(time.Hour), tt.rateLimit), exclusions)

			repos, err := svc.ListUserRepositories(context.Background(), tt.username)

			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
				assert.Empty(t, repos)
				return
			}

			require.NoError(t, err)

			names := make([]string, 0, len(repos))
			for _, r := range repos {
				names = append(names, r.FullName)
			}

			assert.Equal(t, tt.expectedNames, names)
		})
	}
}

// TestFetchLanguagesForSingleRepository test the function called FetchLanguagesForSingleRepository
func TestFetchLanguagesForSingleRepository(t *testing.T) {
	tests := []struct {
		name           string
		repo           model.GithubRepository
		mockResponse   map[string]int
		mockStatus     int
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "Fetch languages successfully",
			repo: model.GithubRepository{
				ID:         1,
				Owner:      "Owner1",
				Repository: "Repo1",
			},
			mockResponse: map[string]int{
				"Go":     10000,
				"Python": 5000,
			},
			mockStatus:  http.StatusOK,
			expectError: false,
		},
		{
			name: "Github error",
			repo: model.GithubRepository{
				ID:         2,
				Owner:      "Owner2",
				Repository: "Repo2",
			},
			mockStatus:     http.StatusInternalServerError,
			expectError:    true,
			expectedErrMsg: "FETCH_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockedHTTPClient := githubMock.NewMockedHTTPClient(
				githubMock.WithRequestMatchHandler(
					githubMock.GetReposLanguagesByOwnerByRepo,
					http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
						if tt.mockStatus != http.StatusOK {
							githubMock.WriteError(w, tt.mockStatus, "github went away")
							return
						}

						_, err := w.Write(githubMock.MustMarshal(tt.mockResponse))

						if err != nil {
							t.Error("unable to configure mock http client")
						}
					}),
				),
			)

			mockedRateLimiter := rate.NewLimiter(rate.Every(time.Hour), 60)
			mockedGithubClient := github.NewClient(mockedHTTPClient)
			conf := config.GetDefault()
			svc := NewGithubService(*conf, mockedGithubClient, mockedRateLimiter, nil)

			// Prepare wait group and channel
			swg := sizedwaitgroup.New(1)
			ch := make(chan model.GithubRepositoryLanguages, 1)

			// execute the function
			swg.Add()
			err := svc.FetchLanguagesForSingleRepository(context.Background(), tt.repo, &swg, ch)

			if tt.expectError {
				assert.Error(t, err)
				assert.EqualError(t, err, tt.expectedErrMsg)
				assert.Len(t, ch, 0)
			} else {
				assert.NoError(t, err)

				// check that the expected result was sent to the channel
				langResult := <-ch
				assert.Equal(t, tt.repo.ID, langResult.RepositoryID)
				assert.Equal(t, tt.mockResponse, langResult.Languages)
			}
		})
	}
}

// TestGetRepositoriesLanguages test function called GetRepositoriesLanguages
func TestGetRepositoriesLanguages(t *testing.T) {
	tests := []struct {
		name                        string
		repos                       []model.GithubRepository
		mockGithubResponseLanguages map[string]int
		mockStatus                  int
		expectedLanguages           map[int64]map[string]int
		expectedErr                 string
	}{
		{
			name: "Fetch languages successfully for multiple repositories",
			repos: []model.GithubRepository{
				{ID: 1, Owner: "owner1", Repository: "repo1", MostUsedLanguage: github.String("Go")},
				{ID: 3, Owner: "owner1", Repository: "repo3", MostUsedLanguage: github.String("Go")},
			},
			mockGithubResponseLanguages: map[string]int{
				"Go":   10000,
				"HTML": 500,
			},
			mockStatus: http.StatusOK,
			expectedLanguages: map[int64]map[string]int{
				1: {"Go": 10000, "HTML": 500},
				3: {"Go": 10000, "HTML": 500},
			},
		},
		{
			name: "Some repositories don't have a most used language",
			repos: []model.GithubRepository{
				{ID: 1, Owner: "owner1", Repository: "repo1", MostUsedLanguage: github.String("Go")},
				{ID: 2, Owner: "owner2", Repository: "repo2", MostUsedLanguage: nil},
			},
			mockGithubResponseLanguages: map[string]int{
				"Go":   10000,
				"HTML": 500,
			},
			mockStatus: http.StatusOK,
			expectedLanguages: map[int64]map[string]int{
				1: {"Go": 10000, "HTML": 500},
				2: {},
			},
		},
		{
			name: "One failing repository drops the whole result",
			repos: []model.GithubRepository{
				{ID: 1, Owner: "owner1", Repository: "repo1", MostUsedLanguage: github.String("Go")},
				{ID: 2, Owner: "owner2", Repository: "repo2", MostUsedLanguage: nil},
			},
			mockStatus:  http.StatusBadGateway,
			expectedErr: "FETCH_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockedHTTPClient := githubMock.NewMockedHTTPClient(
				githubMock.WithRequestMatchHandler(
					githubMock.GetReposLanguagesByOwnerByRepo,
					http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
						if tt.mockStatus != http.StatusOK {
							githubMock.WriteError(w, tt.mockStatus, "github went away")
							return
						}

						_, err := w.Write(githubMock.MustMarshal(tt.mockGithubResponseLanguages))

						if err != nil {
							t.Error("unable to configure mock http client")
						}
					}),
				),
			)

			mockedRateLimiter := rate.NewLimiter(rate.Every(time.Hour), 60)
			mockedGithubClient := github.NewClient(mockedHTTPClient)
			conf := config.GetDefault()
			svc := NewGithubService(*conf, mockedGithubClient, mockedRateLimiter, nil)

			repos, err := svc.GetRepositoriesLanguages(context.Background(), tt.repos)

			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
				assert.Empty(t, repos)
				return
			}

			assert.NoError(t, err)
			assert.Len(t, repos, len(tt.repos))

			// validate that the expected languages were correctly assigned to each repository
			for _, repo := range repos {
				assert.Equal(t, tt.expectedLanguages[repo.ID], repo.Languages)
			}

			// input is left untouched
			for _, repo := range tt.repos {
				assert.Nil(t, repo.Languages)
			}
		})
	}
}

func TestHandleRequestErrors(t *testing.T) {
	svc := NewGithubService(*config.GetDefault(), github.NewClient(nil), rate.NewLimiter(rate.Every(time.Hour), 10), nil)

	err := svc.HandleRequestErrors(&github.RateLimitError{Message: "API rate limit exceeded"})
	assert.EqualError(t, err, "RATE_LIMIT_REACHED")

	// the limiter is now empty
	err = svc.HandleRequestErrors(&github.RateLimitError{Message: "API rate limit exceeded"})
	assert.EqualError(t, err, "RATE_LIMITER_ERROR")

	err = svc.HandleRequestErrors(assert.AnError)
	assert.EqualError(t, err, "FETCH_ERROR")
}

func TestBuildRecords(t *testing.T) {
	repos := []model.GithubRepository{
		{FullName: "a/one", Stars: 2, Languages: map[string]int{"Go": 400, "Shell": 10}},
		{FullName: "a/two", Stars: 5, Languages: map[string]int{"Go": 100}},
		{FullName: "a/empty", Languages: map[string]int{}},
	}

	byBytes, err := aggregator.Accumulate(BuildRecords(repos, aggregator.UnitBytes))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Go": 500, "Shell": 10}, byBytes.Totals())

	byRepositories, err := aggregator.Accumulate(BuildRecords(repos, aggregator.UnitRepositories))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Go": 2, "Shell": 1}, byRepositories.Totals())

	assert.Equal(t, 7, TotalStars(repos))
}

func TestNewRateLimiter(t *testing.T) {
	mockedHTTPClient := githubMock.NewMockedHTTPClient(
		githubMock.WithRequestMatchHandler(
			githubMock.GetRateLimit,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, err := w.Write([]byte(`{"resources":{"core":{"limit":60,"remaining":2,"reset":1372700873}}}`))

				if err != nil {
					t.Error("unable to configure mock http client")
				}
			}),
		),
	)

	limiter, err := NewRateLimiter(context.Background(), github.NewClient(mockedHTTPClient))
	require.NoError(t, err)

	assert.Equal(t, 60, limiter.Burst())
	assert.True(t, limiter.AllowN(time.Now(), 2))
	assert.False(t, limiter.Allow())
}
