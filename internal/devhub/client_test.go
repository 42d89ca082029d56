package devhub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devhub-tools/wikibot/internal/devhub"
	"github.com/devhub-tools/wikibot/internal/render"
)

func searchServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func framed(payload string) string {
	return devhub.FramingPrefix + payload + devhub.FramingSuffix
}

func TestSanitizeQuery(t *testing.T) {
	require.Equal(t, "VectorToString", devhub.SanitizeQuery("Vector.ToString"))
	require.Equal(t, "plain", devhub.SanitizeQuery("plain"))
}

func TestLookupExactMatch(t *testing.T) {
	payload := `{
		"record_count": 2,
		"records": {
			"page": [
				{"url": "https://developer.roblox.com/en-us/api-reference/class/Part",
				 "display_title": "Part", "summary": "A physical object.", "_score": 3.5},
				{"url": "https://developer.roblox.com/en-us/articles/parts",
				 "display_title": "Working with Parts", "summary": "Guide.", "_score": 9.9}
			]
		}
	}`
	srv := searchServer(t, framed(payload))

	client := devhub.New(srv.URL+"/?q=", "", nil)
	rec, candidates, err := client.Lookup(context.Background(), "part")
	require.NoError(t, err)
	require.Nil(t, candidates)
	require.NotNil(t, rec)
	require.Equal(t, "Part", rec.Title)
	require.Equal(t, "A physical object.", rec.Description)
}

func TestLookupAmbiguousRanksByScore(t *testing.T) {
	payload := `{
		"record_count": 2,
		"records": {
			"page": [
				{"url": "https://developer.roblox.com/en-us/a", "display_title": "Terrain Editor", "_score": 1.0},
				{"url": "https://developer.roblox.com/en-us/b", "display_title": "Terrain Water", "_score": 7.0}
			]
		}
	}`
	srv := searchServer(t, framed(payload))

	client := devhub.New(srv.URL+"/?q=", "", nil)
	rec, candidates, err := client.Lookup(context.Background(), "terrain")
	require.NoError(t, err)
	require.Nil(t, rec)
	require.Len(t, candidates, 2)
	require.Equal(t, "Terrain Water", candidates[0].Title)
	require.Equal(t, "Terrain Editor", candidates[1].Title)
}

func TestLookupFiltersLocaleAndEmptyTitles(t *testing.T) {
	payload := `{
		"record_count": 3,
		"records": {
			"page": [
				{"url": "https://developer.roblox.com/ja-jp/a", "display_title": "Terrain JP", "_score": 9.0},
				{"url": "https://developer.roblox.com/en-us/b", "display_title": "", "title": "", "_score": 8.0},
				{"url": "https://developer.roblox.com/en-us/c", "display_title": "", "title": "Terrain", "_score": 2.0}
			]
		}
	}`
	srv := searchServer(t, framed(payload))

	client := devhub.New(srv.URL+"/?q=", "", nil)
	rec, candidates, err := client.Lookup(context.Background(), "terrain")
	require.NoError(t, err)
	require.Nil(t, candidates)
	// The bare title field backs an empty display_title.
	require.NotNil(t, rec)
	require.Equal(t, "Terrain", rec.Title)
}

func TestLookupDescriptionFallbackChain(t *testing.T) {
	long := strings.Repeat("x", 150)
	payload := `{
		"record_count": 3,
		"records": {
			"page": [
				{"url": "https://developer.roblox.com/en-us/a", "display_title": "Body Only",
				 "body": "` + long + `", "_score": 1.0},
				{"url": "https://developer.roblox.com/en-us/b", "display_title": "Highlight Only",
				 "highlight": {"body": "highlighted text"}, "_score": 1.0},
				{"url": "https://developer.roblox.com/en-us/c", "display_title": "Nothing", "_score": 1.0}
			]
		}
	}`
	srv := searchServer(t, framed(payload))

	client := devhub.New(srv.URL+"/?q=", "", nil)
	_, candidates, err := client.Lookup(context.Background(), "no exact title")
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	byTitle := map[string]string{}
	for _, c := range candidates {
		byTitle[c.Title] = c.Description
	}
	require.Equal(t, strings.Repeat("x", render.DescriptionLimit), byTitle["Body Only"])
	require.Equal(t, "highlighted text", byTitle["Highlight Only"])
	require.Equal(t, render.NoDescription, byTitle["Nothing"])
}

func TestLookupBadFraming(t *testing.T) {
	srv := searchServer(t, `{"record_count": 0, "records": {}}`)

	client := devhub.New(srv.URL+"/?q=", "", nil)
	_, _, err := client.Lookup(context.Background(), "part")
	require.Error(t, err)
	require.Contains(t, err.Error(), "framing")
}

func TestLookupMalformedJSON(t *testing.T) {
	srv := searchServer(t, framed(`{"records": [broken`))

	client := devhub.New(srv.URL+"/?q=", "", nil)
	_, _, err := client.Lookup(context.Background(), "part")
	require.Error(t, err)
}

func TestLookupBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := devhub.New(srv.URL+"/?q=", "", nil)
	_, _, err := client.Lookup(context.Background(), "part")
	require.Error(t, err)
}
