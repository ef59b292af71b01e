package aggregator

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrInvalidWeight is returned when a record carries a negative or non-finite weight
	ErrInvalidWeight = errors.New("INVALID_WEIGHT")

	// ErrEmptyDataset is returned when ranking a usage whose grand total is zero
	ErrEmptyDataset = errors.New("EMPTY_DATASET")
)

// Record is the language breakdown observed for one repository
type Record struct {
	Repository string
	Weights    map[string]float64
}

// Usage holds the accumulated weight per language
// languages with a zero cumulative weight are never stored
type Usage struct {
	totals map[string]float64
}

// RankedEntry is one row of the ranked output
type RankedEntry struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Percent float64 `json:"percent"`
}

// Accumulate folds the records into a single Usage
// the accumulator is local to the call, so records can come from concurrent fetches in any order.
// contributions of a language are summed in ascending order, the totals are identical for
// every permutation of the records, fractional weights included
func Accumulate(records []Record) (Usage, error) {
	contributions := make(map[string][]float64)

	for _, r := range records {
		for lang, weight := range r.Weights {
			if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
				return Usage{}, fmt.Errorf("%w: %q has weight %v in repository %q", ErrInvalidWeight, lang, weight, r.Repository)
			}

			if weight == 0 {
				continue
			}

			contributions[lang] = append(contributions[lang], weight)
		}
	}

	totals := make(map[string]float64, len(contributions))

	for lang, weights := range contributions {
		sort.Float64s(weights)

		total := 0.0
		for _, weight := range weights {
			total += weight
		}

		if math.IsInf(total, 0) {
			return Usage{}, fmt.Errorf("%w: cumulative weight of %q overflows", ErrInvalidWeight, lang)
		}

		totals[lang] = total
	}

	return Usage{totals: totals}, nil
}

// Totals returns a copy of the accumulated weights
func (u Usage) Totals() map[string]float64 {
	out := make(map[string]float64, len(u.totals))
	for lang, weight := range u.totals {
		out[lang] = weight
	}

	return out
}

// Weight returns the accumulated weight of a language, 0 when never observed
func (u Usage) Weight(lang string) float64 {
	return u.totals[lang]
}

// Len returns the number of distinct languages
func (u Usage) Len() int {
	return len(u.totals)
}

// GrandTotal is the sum of all accumulated weights
// languages are summed in name order so the result does not depend on map iteration
func (u Usage) GrandTotal() float64 {
	names := make([]string, 0, len(u.totals))
	for lang := range u.totals {
		names = append(names, lang)
	}

	sort.Strings(names)

	total := 0.0
	for _, lang := range names {
		total += u.totals[lang]
	}

	return total
}

// Rank sorts languages by weight (descending, ties by name ascending) and computes their share
// a limit <= 0 returns every language
func Rank(usage Usage, limit int) ([]RankedEntry, error) {
	grandTotal := usage.GrandTotal()
	if grandTotal == 0 {
		return nil, ErrEmptyDataset
	}

	if math.IsInf(grandTotal, 0) {
		return nil, fmt.Errorf("%w: grand total overflows", ErrInvalidWeight)
	}

	entries := make([]RankedEntry, 0, len(usage.totals))
	for lang, weight := range usage.totals {
		entries = append(entries, RankedEntry{
			Name:    lang,
			Weight:  weight,
			Percent: roundPercent(weight / grandTotal * 100),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}

		return entries[i].Name < entries[j].Name
	})

	// truncate only once sorted, otherwise the true top languages could be dropped
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	return entries, nil
}

func roundPercent(p float64) float64 {
	return math.Round(p*100) / 100
}
