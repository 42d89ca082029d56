package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/devhub-tools/wikibot/internal/models"
)

// CategoryOrder fixes the scan order over the wiki index so encounter order,
// and therefore tie order after the stable sort, does not depend on map
// iteration.
var CategoryOrder = []string{
	"articles",
	"videos",
	"code_samples",
	"datatype",
	"recipes",
	"enum",
	"resources",
	"other",
}

// DefaultWeights orders results across categories; lower sorts first. Every
// category the index can emit must be present here.
var DefaultWeights = map[string]int{
	"articles":     1,
	"recipes":      2,
	"videos":       3,
	"code_samples": 4,
	"datatype":     5,
	"enum":         6,
	"resources":    7,
	"other":        8,
}

// ValidateWeights checks that every category present in the index carries a
// weight. A missing weight is a configuration error and must abort startup
// rather than produce an undefined ranking later.
func ValidateWeights(index models.Index, weights map[string]int) error {
	for category := range index {
		if _, ok := weights[category]; !ok {
			return fmt.Errorf("no weight configured for category %q", category)
		}
	}
	return nil
}

// Match resolves a query against the wiki index. Exact title equality is
// tried first; substring containment only runs when no exact match exists.
// Both phases are case-insensitive. Results are sorted by ascending weight
// with ties keeping encounter order.
func Match(query string, index models.Index, weights map[string]int) ([]models.ScoredResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	results := scan(index, func(title string) bool {
		return strings.ToLower(title) == q
	})
	if len(results) == 0 {
		results = scan(index, func(title string) bool {
			return strings.Contains(strings.ToLower(title), q)
		})
	}

	for i := range results {
		w, ok := weights[results[i].Category]
		if !ok {
			return nil, fmt.Errorf("no weight configured for category %q", results[i].Category)
		}
		results[i].Weight = w
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Weight < results[j].Weight
	})

	return results, nil
}

func scan(index models.Index, match func(title string) bool) []models.ScoredResult {
	var results []models.ScoredResult

	for _, category := range categories(index) {
		entries := index[category]

		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			entry := entries[key]
			if match(entry.Title) {
				results = append(results, models.ScoredResult{
					Category: category,
					Title:    entry.Title,
					URL:      entry.URL,
				})
			}
		}
	}

	return results
}

// categories yields the known categories first, then any extra categories the
// corpus document happens to carry, alphabetically. Extras still reach the
// weight lookup and fail there when unconfigured.
func categories(index models.Index) []string {
	seen := make(map[string]bool, len(CategoryOrder))
	out := make([]string, 0, len(index))

	for _, category := range CategoryOrder {
		if _, ok := index[category]; ok {
			out = append(out, category)
			seen[category] = true
		}
	}

	var extra []string
	for category := range index {
		if !seen[category] {
			extra = append(extra, category)
		}
	}
	sort.Strings(extra)

	return append(out, extra...)
}

// ArticleField selects which article field a query is matched against.
type ArticleField string

const (
	FieldTitle  ArticleField = "title"
	FieldAuthor ArticleField = "author"
)

// MatchArticles filters the RSA corpus by case-insensitive substring
// containment on the chosen field, preserving corpus order.
func MatchArticles(query string, articles []models.Article, field ArticleField) ([]models.Article, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	var pick func(models.Article) string
	switch field {
	case FieldTitle:
		pick = func(a models.Article) string { return a.Title }
	case FieldAuthor:
		pick = func(a models.Article) string { return a.Author }
	default:
		return nil, fmt.Errorf("unknown article field %q", field)
	}

	var out []models.Article
	for _, a := range articles {
		if strings.Contains(strings.ToLower(pick(a)), q) {
			out = append(out, a)
		}
	}

	return out, nil
}
