// Package devhub calls the Developer Hub search API and normalizes its
// records for single-result display.
package devhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/devhub-tools/wikibot/internal/models"
	"github.com/devhub-tools/wikibot/internal/render"
)

// The search API wraps its JSON payload in fixed non-JSON framing. Both
// markers must be present before the body can be parsed; a mismatch means
// the protocol changed and the response is unusable.
const (
	FramingPrefix = ")]}'\n"
	FramingSuffix = "\n"
)

// localeMarker filters records to the locale this bot serves.
const localeMarker = "/en-us/"

// Client queries the remote search API. The endpoint template is split into
// a prefix and suffix around the interpolated query.
type Client struct {
	prefix string
	suffix string
	http   *http.Client
	log    *slog.Logger
}

// New builds a search client for the given endpoint template.
func New(prefix, suffix string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		prefix: prefix,
		suffix: suffix,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// SanitizeQuery strips the '.' character, which the remote API misreads as a
// path delimiter.
func SanitizeQuery(q string) string {
	return strings.ReplaceAll(q, ".", "")
}

type rawRecord struct {
	URL          string  `json:"url"`
	DisplayTitle string  `json:"display_title"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
	Body         string  `json:"body"`
	Category     string  `json:"category"`
	APIType      string  `json:"api_type"`
	Score        float64 `json:"_score"`
	Highlight    struct {
		Body string `json:"body"`
	} `json:"highlight"`
}

type rawResponse struct {
	RecordCount int                    `json:"record_count"`
	Records     map[string][]rawRecord `json:"records"`
}

// Lookup resolves a disambiguated title against the search API. When one
// record's normalized title equals the input case-insensitively it is
// returned as the single answer. Otherwise the lookup is ambiguous and the
// full candidate list, ranked by descending score, is returned so the caller
// can degrade to listing mode. Transport and framing failures come back as
// errors; callers surface those as "no results" rather than crashing the
// interaction.
func (c *Client) Lookup(ctx context.Context, title string) (*models.Record, []models.Record, error) {
	endpoint := c.prefix + url.QueryEscape(SanitizeQuery(title)) + c.suffix

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("search request: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read search response: %w", err)
	}

	payload, err := stripFraming(body)
	if err != nil {
		return nil, nil, err
	}

	var parsed rawResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode search response: %w", err)
	}

	records := flatten(parsed)

	want := strings.ToLower(strings.TrimSpace(title))
	for i := range records {
		if strings.ToLower(records[i].Title) == want {
			return &records[i], nil, nil
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})

	return nil, records, nil
}

// stripFraming validates and removes the protocol framing around the JSON
// payload.
func stripFraming(body []byte) ([]byte, error) {
	s := string(body)
	if len(s) < len(FramingPrefix)+len(FramingSuffix) ||
		!strings.HasPrefix(s, FramingPrefix) || !strings.HasSuffix(s, FramingSuffix) {
		return nil, fmt.Errorf("unexpected framing in search response (%d bytes)", len(body))
	}
	return []byte(s[len(FramingPrefix) : len(s)-len(FramingSuffix)]), nil
}

// flatten merges the per-segment record buckets into one normalized list,
// keeping only en-us records with a usable display title. Segments are
// visited in sorted order so the output is deterministic.
func flatten(parsed rawResponse) []models.Record {
	segments := make([]string, 0, len(parsed.Records))
	for segment := range parsed.Records {
		segments = append(segments, segment)
	}
	sort.Strings(segments)

	var out []models.Record
	for _, segment := range segments {
		for _, raw := range parsed.Records[segment] {
			title := raw.DisplayTitle
			if title == "" {
				title = raw.Title
			}
			if title == "" || !strings.Contains(raw.URL, localeMarker) {
				continue
			}
			out = append(out, models.Record{
				Title:       title,
				URL:         raw.URL,
				Description: describe(raw),
				Score:       raw.Score,
			})
		}
	}

	return out
}

// describe picks the record description: summary, then truncated body, then
// truncated highlight body, then the fixed fallback text.
func describe(raw rawRecord) string {
	if raw.Summary != "" {
		return raw.Summary
	}
	if raw.Body != "" {
		return render.Truncate(raw.Body, render.DescriptionLimit)
	}
	if raw.Highlight.Body != "" {
		return render.Truncate(raw.Highlight.Body, render.DescriptionLimit)
	}
	return render.NoDescription
}
