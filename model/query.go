package model

import "strings"

// SearchQuery is bound from the /repos query string
type SearchQuery struct {
	Owner    string `form:"owner"`
	License  string `form:"license"`
	Language string `form:"language"`
}

// SearchScope holds the qualifiers coming from the configuration rather than from the caller
type SearchScope struct {
	PublicOnly      bool
	IncludeForks    bool
	IncludeArchived bool
}

// ToGithubQuery builds the search qualifiers, github search already leaves forks out
func (params SearchQuery) ToGithubQuery(scope SearchScope) string {
	qualifiers := make([]string, 0, 6)

	if scope.PublicOnly {
		qualifiers = append(qualifiers, "is:public")
	}

	for _, q := range []struct{ key, value string }{
		{"owner", params.Owner},
		{"license", params.License},
		{"language", params.Language},
	} {
		if value := strings.TrimSpace(q.value); value != "" {
			qualifiers = append(qualifiers, q.key+":"+value)
		}
	}

	if scope.IncludeForks {
		qualifiers = append(qualifiers, "fork:true")
	}

	if !scope.IncludeArchived {
		qualifiers = append(qualifiers, "archived:false")
	}

	return strings.Join(qualifiers, " ")
}

// LanguagesQuery is bound from /languages and /languages.svg query strings
// empty values fall back to the configuration
type LanguagesQuery struct {
	User  string `form:"user"`
	Limit *int   `form:"limit" binding:"omitempty,min=0,max=100"`
	Unit  string `form:"unit" binding:"omitempty,oneof=bytes repositories count"`
}
