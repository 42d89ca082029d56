package search_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devhub-tools/wikibot/internal/models"
	"github.com/devhub-tools/wikibot/internal/search"
)

func testIndex() models.Index {
	return models.Index{
		"articles": {
			"a1": {Title: "Part", URL: "/part"},
			"a2": {Title: "Scripting Basics", URL: "/articles/scripting-basics"},
		},
		"enum": {
			"e1": {Title: "PartType", URL: "/enum/PartType"},
		},
	}
}

func testWeights() map[string]int {
	return map[string]int{"articles": 2, "enum": 4}
}

func TestMatchExactSingle(t *testing.T) {
	got, err := search.Match("Part", testIndex(), testWeights())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Part", got[0].Title)
	require.Equal(t, "articles", got[0].Category)
	require.Equal(t, 2, got[0].Weight)
}

func TestMatchExactIsCaseInsensitive(t *testing.T) {
	got, err := search.Match("pArT", testIndex(), testWeights())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Part", got[0].Title)
}

func TestMatchSubstringFallback(t *testing.T) {
	got, err := search.Match("part", testIndex(), testWeights())
	require.NoError(t, err)

	// Exact match on "Part" wins over the substring phase entirely.
	require.Len(t, got, 1)
	require.Equal(t, "Part", got[0].Title)

	got, err = search.Match("artT", testIndex(), testWeights())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "PartType", got[0].Title)
}

func TestMatchSubstringOrdersByWeight(t *testing.T) {
	idx := models.Index{
		"articles": {"a1": {Title: "Part", URL: "/part"}},
		"enum":     {"e1": {Title: "PartType", URL: "/enum/PartType"}},
	}

	got, err := search.Match("parttt", idx, testWeights())
	require.NoError(t, err)
	require.Empty(t, got)

	// Force the substring phase with a query no title equals exactly.
	idx["articles"] = models.Category{"a1": {Title: "Part One", URL: "/part-one"}}
	got, err = search.Match("part", idx, testWeights())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Part One", got[0].Title)
	require.Equal(t, "articles", got[0].Category)
	require.Equal(t, "PartType", got[1].Title)
	require.Equal(t, "enum", got[1].Category)
}

func TestMatchIsDeterministic(t *testing.T) {
	idx := models.Index{
		"articles": {
			"b": {Title: "Terrain Water", URL: "/b"},
			"a": {Title: "Terrain Editor", URL: "/a"},
			"c": {Title: "Terrain Paint", URL: "/c"},
		},
	}

	first, err := search.Match("terrain", idx, map[string]int{"articles": 1})
	require.NoError(t, err)
	require.Len(t, first, 3)

	for i := 0; i < 20; i++ {
		again, err := search.Match("terrain", idx, map[string]int{"articles": 1})
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestMatchUnweightedCategoryFails(t *testing.T) {
	// "artt" has no exact match and its substring phase reaches only the
	// unweighted "enum" category.
	_, err := search.Match("artt", testIndex(), map[string]int{"articles": 2})
	require.Error(t, err)
	require.Contains(t, err.Error(), "enum")

	// A query resolved entirely inside weighted categories is fine even
	// when the weight table is partial.
	got, err := search.Match("Part", testIndex(), map[string]int{"articles": 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestMatchEmptyQuery(t *testing.T) {
	got, err := search.Match("   ", testIndex(), testWeights())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestValidateWeights(t *testing.T) {
	require.NoError(t, search.ValidateWeights(testIndex(), testWeights()))

	err := search.ValidateWeights(testIndex(), map[string]int{"articles": 2})
	require.Error(t, err)

	full := models.Index{}
	for _, category := range search.CategoryOrder {
		full[category] = models.Category{}
	}
	require.NoError(t, search.ValidateWeights(full, search.DefaultWeights))
}

func TestMatchArticles(t *testing.T) {
	articles := []models.Article{
		{Title: "Building Your First Game", Author: "Alice"},
		{Title: "Advanced Building", Author: "Bob"},
		{Title: "Scripting 101", Author: "alice b"},
	}

	byTitle, err := search.MatchArticles("building", articles, search.FieldTitle)
	require.NoError(t, err)
	require.Len(t, byTitle, 2)
	require.Equal(t, "Building Your First Game", byTitle[0].Title)
	require.Equal(t, "Advanced Building", byTitle[1].Title)

	byAuthor, err := search.MatchArticles("Alice", articles, search.FieldAuthor)
	require.NoError(t, err)
	require.Len(t, byAuthor, 2)

	_, err = search.MatchArticles("x", articles, search.ArticleField("editor"))
	require.Error(t, err)
}
