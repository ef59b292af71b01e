package aggregator

import (
	"fmt"
	"strings"
)

// Unit is the measure used as weight for a whole aggregation
type Unit string

const (
	// UnitBytes weights a language by its bytes of code
	UnitBytes Unit = "bytes"

	// UnitRepositories weights a language by the number of repositories using it
	UnitRepositories Unit = "repositories"
)

// ParseUnit converts a configuration value into a Unit (case insensitive)
func ParseUnit(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(UnitBytes):
		return UnitBytes, nil
	case string(UnitRepositories), "count":
		return UnitRepositories, nil
	default:
		return "", fmt.Errorf("unknown weight unit %q", value)
	}
}

// FromBytes builds a record from a languages map as returned by the GitHub languages endpoint
func FromBytes(repository string, languages map[string]int) Record {
	weights := make(map[string]float64, len(languages))
	for lang, size := range languages {
		weights[lang] = float64(size)
	}

	return Record{Repository: repository, Weights: weights}
}

// FromPresence builds a record where every language used by the repository counts once
func FromPresence(repository string, languages []string) Record {
	weights := make(map[string]float64, len(languages))
	for _, lang := range languages {
		if lang == "" {
			continue
		}

		weights[lang] = 1
	}

	return Record{Repository: repository, Weights: weights}
}

// BuildRecord converts a languages map into a record according to the unit
func BuildRecord(unit Unit, repository string, languages map[string]int) Record {
	if unit == UnitRepositories {
		names := make([]string, 0, len(languages))
		for lang, size := range languages {
			if size > 0 {
				names = append(names, lang)
			}
		}

		return FromPresence(repository, names)
	}

	return FromBytes(repository, languages)
}
