package model

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ExclusionRules filters repositories by name before their languages are fetched
type ExclusionRules struct {
	Exact    []string `yaml:"exclude_exact"`
	Prefixes []string `yaml:"exclude_prefixes"`
	Contains []string `yaml:"exclude_contains"` // case insensitive
	Regex    []string `yaml:"exclude_regex"`

	compiled []*regexp.Regexp
}

// LoadExclusionRules reads rules from a yaml file
// an empty path or a missing file means no exclusion
func LoadExclusionRules(path string) (*ExclusionRules, error) {
	if path == "" {
		return &ExclusionRules{}, nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", path).Warning("exclusions file not found. no repository will be excluded")
		return &ExclusionRules{}, nil
	}

	if err != nil {
		return nil, err
	}

	return ParseExclusionRules(content)
}

// ParseExclusionRules decodes yaml content and compiles the regular expressions
// invalid patterns are skipped with a warning
func ParseExclusionRules(content []byte) (*ExclusionRules, error) {
	rules := &ExclusionRules{}

	if err := yaml.Unmarshal(content, rules); err != nil {
		return nil, fmt.Errorf("unable to parse exclusion rules: %w", err)
	}

	rules.Compile()
	return rules, nil
}

// Compile prepares the regular expressions, must be called after building rules by hand
func (r *ExclusionRules) Compile() {
	r.compiled = r.compiled[:0]

	for _, pattern := range r.Regex {
		rx, err := regexp.Compile(pattern)
		if err != nil {
			log.WithError(err).WithField("pattern", pattern).Warning("invalid exclusion pattern ignored")
			continue
		}

		r.compiled = append(r.compiled, rx)
	}
}

// IsExcluded reports whether a repository name matches any rule
func (r *ExclusionRules) IsExcluded(repositoryName string) bool {
	if r == nil {
		return false
	}

	for _, name := range r.Exact {
		if repositoryName == name {
			return true
		}
	}

	for _, prefix := range r.Prefixes {
		if strings.HasPrefix(repositoryName, prefix) {
			return true
		}
	}

	lower := strings.ToLower(repositoryName)
	for _, part := range r.Contains {
		if strings.Contains(lower, strings.ToLower(part)) {
			return true
		}
	}

	for _, rx := range r.compiled {
		if rx.MatchString(repositoryName) {
			return true
		}
	}

	return false
}
