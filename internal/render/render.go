// Package render turns matcher output into chat embeds and provides the
// inverse parse used to recover a result from its rendered line.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/devhub-tools/wikibot/internal/models"
	"github.com/devhub-tools/wikibot/internal/search"
)

// NoDescription is the terminal fallback when a record carries no usable
// description text.
const NoDescription = "No description found."

// DescriptionLimit caps how many characters of body text are promoted into a
// description.
const DescriptionLimit = 100

const apiReferenceMarker = "/api-reference/"

// ErrBadResultLine reports a line that does not follow the listing format.
var ErrBadResultLine = errors.New("malformed result line")

var resultLinePattern = regexp.MustCompile(`^\[(.+?)\] \[(.+)\]\((.+)\)$`)

// CategoryLabel derives the bracketed display label for a result and the
// possibly adjusted title shown next to it. Entries in the "other" bucket
// label themselves from their URL path: api-reference URLs reduce to the segment
// after the marker, onboarding URLs collapse to a fixed label with the title
// rewritten to the capitalized chapter segment.
func CategoryLabel(r models.ScoredResult) (string, string) {
	label := r.Category
	title := r.Title

	if label == "other" {
		label = urlPath(r.URL)
	}

	if i := strings.Index(label, apiReferenceMarker); i >= 0 {
		rest := label[i+len(apiReferenceMarker):]
		if j := strings.Index(rest, "/"); j >= 0 {
			rest = rest[:j]
		}
		label = rest
	}

	if strings.Contains(label, "onboarding") {
		label = "Onboarding"
		title = onboardingChapter(title)
	}

	return capitalize(label), title
}

func onboardingChapter(title string) string {
	rest := strings.TrimPrefix(title, "/onboarding/")
	if j := strings.Index(rest, "/"); j >= 0 {
		rest = rest[:j]
	}
	return capitalize(rest)
}

// urlPath drops the scheme and host from an absolute URL so labels derived
// from it stay short. Relative URLs pass through unchanged.
func urlPath(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return u
	}
	rest := u[i+3:]
	if j := strings.Index(rest, "/"); j >= 0 {
		return rest[j:]
	}
	return "/"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// FormatResultLine renders one listing row. baseURL is prepended to the
// result URL; pass "" when the URL is already absolute. ParseResultLine is
// the structural inverse of this format.
func FormatResultLine(baseURL string, r models.ScoredResult) string {
	label, title := CategoryLabel(r)
	return fmt.Sprintf("[%s] [%s](%s%s)", label, title, baseURL, r.URL)
}

// ParseResultLine recovers the title and URL from a rendered listing row.
// It must stay the exact inverse of FormatResultLine.
func ParseResultLine(line string) (models.Entry, error) {
	m := resultLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return models.Entry{}, fmt.Errorf("%w: %q", ErrBadResultLine, line)
	}
	return models.Entry{Title: m[2], URL: m[3]}, nil
}

// Listing builds the paginated multi-result embed from pre-rendered rows.
func Listing(query string, lines []string, pg search.Page) models.Embed {
	first, last := pg.ShownRange()
	return models.Embed{
		Title:  fmt.Sprintf("Results for %s", query),
		Lines:  lines,
		Footer: fmt.Sprintf("Showing %d-%d of %d results (page %d/%d)", first, last, pg.Total, pg.Number, pg.LastPage()),
	}
}

// Detail builds the single-record embed for a remote search record.
func Detail(rec models.Record) models.Embed {
	desc := rec.Description
	if desc == "" {
		desc = NoDescription
	}
	return models.Embed{Title: rec.Title, URL: rec.URL, Description: desc}
}

// ArticleDetail builds the single-record embed for an RSA article. The
// excerpt wins over truncated content; an authorless article gets no footer.
func ArticleDetail(a models.Article) models.Embed {
	desc := a.Excerpt
	if desc == "" {
		desc = Truncate(a.Content, DescriptionLimit)
	}
	if desc == "" {
		desc = NoDescription
	}

	footer := ""
	if a.Author != "" {
		footer = "By " + a.Author
	}

	return models.Embed{Title: a.Title, URL: a.URL, Description: desc, Footer: footer}
}

// Truncate returns at most limit runes of s.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
