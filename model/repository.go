package model

import "time"

type GithubRepository struct {
	ID               int64          `json:"-"` // ignored from json only used to fetch languages easily
	FullName         string         `json:"fullName"`
	Owner            string         `json:"owner"`
	Repository       string         `json:"repository"`
	Description      string         `json:"description,omitempty"`
	URL              string         `json:"url,omitempty"`
	Licence          *string        `json:"licence,omitempty"` // licence can be nil for some repositories without licence
	MostUsedLanguage *string        `json:"-"`
	Stars            int            `json:"stars"`
	Forks            int            `json:"forks"`
	Fork             bool           `json:"-"`
	Archived         bool           `json:"-"`
	CreatedAt        time.Time      `json:"-"`
	UpdatedAt        time.Time      `json:"-"`
	Languages        map[string]int `json:"languages"`
}

type GithubRepositoryLanguages struct {
	RepositoryID int64
	Languages    map[string]int
}
