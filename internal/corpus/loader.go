// Package corpus loads the read-only search corpora fetched once at startup.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devhub-tools/wikibot/internal/models"
)

// Snapshot bundles the immutable corpora. It is built once before the
// gateway accepts commands and never mutated afterwards.
type Snapshot struct {
	Wiki     models.Index
	Articles []models.Article
}

// Load fetches the wiki index and the RSA article list in parallel. Any
// fetch or parse failure aborts the whole load; a partial snapshot is never
// returned.
func Load(ctx context.Context, client *http.Client, wikiURL, rsaURL string) (*Snapshot, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	snap := &Snapshot{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := fetchJSON(ctx, client, wikiURL, &snap.Wiki); err != nil {
			return fmt.Errorf("load wiki corpus: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := fetchJSON(ctx, client, rsaURL, &snap.Articles); err != nil {
			return fmt.Errorf("load rsa corpus: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snap, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	return nil
}

// FindArticle returns the first article whose title equals the given title
// case-insensitively.
func FindArticle(articles []models.Article, title string) (models.Article, bool) {
	want := strings.ToLower(strings.TrimSpace(title))
	for _, a := range articles {
		if strings.ToLower(a.Title) == want {
			return a, true
		}
	}
	return models.Article{}, false
}
