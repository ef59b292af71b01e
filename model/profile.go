package model

// Profile gathers the account wide statistics displayed next to the languages
type Profile struct {
	Login                     string              `json:"login"`
	Name                      string              `json:"name"`
	TotalRepositories         int                 `json:"totalRepositories"`
	TotalStars                int                 `json:"totalStars"`
	TotalCommitContributions  int                 `json:"totalCommitContributions"`
	TotalIssueContributions   int                 `json:"totalIssueContributions"`
	TotalPullRequests         int                 `json:"totalPullRequestContributions"`
	TotalPullRequestReviews   int                 `json:"totalPullRequestReviewContributions"`
	RepositoriesContributedTo int                 `json:"totalRepositoriesWithContributedCommits"`
	Languages                 map[string][]string `json:"-"` // repository name -> top languages by size
}
