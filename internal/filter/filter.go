// Package filter narrows and summarizes the comparison history.
package filter

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tayloree/confere/internal/model"
)

// Status partitions comparisons for the history view.
type Status string

const (
	StatusAll     Status = "all"
	StatusCorrect Status = "correct"
	StatusErrors  Status = "errors"
)

// Options holds all filter criteria.
type Options struct {
	Supermarket string
	Status      Status
	Limit       int
}

// ParseStatus accepts the status names and a few synonyms.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all", "todos":
		return StatusAll, true
	case "correct", "ok", "match", "matches", "correto", "corretos":
		return StatusCorrect, true
	case "errors", "error", "wrong", "mismatch", "erro", "erros":
		return StatusErrors, true
	default:
		return "", false
	}
}

// Correct reports whether c counts as a correct checkout. Undercharges are
// in this bucket: only paying more than calculated is an error.
func Correct(c model.Comparison) bool {
	return c.Matches || c.Difference < 0
}

// Apply filters comparisons and returns them newest first.
func Apply(comparisons []model.Comparison, opts Options) []model.Comparison {
	result := where(comparisons, func(model.Comparison) bool { return true })

	if q := strings.ToLower(strings.TrimSpace(opts.Supermarket)); q != "" {
		result = where(result, func(c model.Comparison) bool {
			return strings.Contains(strings.ToLower(c.Supermarket), q)
		})
	}

	switch opts.Status {
	case StatusCorrect:
		result = where(result, Correct)
	case StatusErrors:
		result = where(result, func(c model.Comparison) bool {
			return !Correct(c)
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})

	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result
}

// Summary counts the history buckets.
type Summary struct {
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	Errors      int     `json:"errors"`
	Overcharged float64 `json:"overcharged"`
}

// Summarize counts comparisons per bucket and adds up what was overpaid.
func Summarize(comparisons []model.Comparison) Summary {
	var s Summary
	over := decimal.Zero
	for _, c := range comparisons {
		s.Total++
		if Correct(c) {
			s.Correct++
			continue
		}
		s.Errors++
		over = over.Add(decimal.NewFromFloat(c.Difference))
	}
	s.Overcharged = over.InexactFloat64()
	return s
}

// Supermarkets returns a map of supermarket name to comparison count.
func Supermarkets(comparisons []model.Comparison) map[string]int {
	out := make(map[string]int)
	for _, c := range comparisons {
		out[strings.TrimSpace(c.Supermarket)]++
	}
	return out
}

func where(items []model.Comparison, fn func(model.Comparison) bool) []model.Comparison {
	result := make([]model.Comparison, 0, len(items))
	for _, item := range items {
		if fn(item) {
			result = append(result, item)
		}
	}
	return result
}
